package primitives

import (
	"fmt"

	"github.com/chazu/quill/pkg/value"
)

func registerReflection(t *Table) {
	t.Register(&Primitive{Name: "mx1", MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		if t.Expander == nil {
			return value.Nil, fmt.Errorf("primitives: mx1: no compiler wired for macro expansion")
		}
		return t.Expander.ExpandOnce(a[0])
	}})
	t.Register(&Primitive{Name: "mx", MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		if t.Expander == nil {
			return value.Nil, fmt.Errorf("primitives: mx: no compiler wired for macro expansion")
		}
		return t.Expander.ExpandFull(a[0])
	}})
	t.Register(&Primitive{Name: "gensym", MinArity: 0, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		return t.gensym(""), nil
	}})
	t.Register(&Primitive{Name: "gensym", MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		if !a[0].IsString() {
			return value.Nil, fmt.Errorf("primitives: gensym: prefix must be a string")
		}
		return t.gensym(a[0].StringVal()), nil
	}})
	t.Register(&Primitive{Name: "trace", MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		// trace's argument turns tracing on/off; the actual sink
		// (DefaultTracer) is wired by the host via pkg/quillctx,
		// mirroring spec.md §6's "optionally provide a logger sink".
		if a[0].Truthy() {
			t.Trace = t.DefaultTracer
		} else {
			t.Trace = nil
		}
		return value.Bool(t.Trace != nil), nil
	}})
}

func (t *Table) gensym(prefix string) value.Value {
	if prefix == "" {
		prefix = "g"
	}
	t.gensymSeq++
	name := fmt.Sprintf("%s%d", prefix, t.gensymSeq)
	return value.FromSymbol(t.Packages.Global.Intern(name))
}
