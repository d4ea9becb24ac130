// Package primitives implements spec.md §4.5: the built-in function
// table the VM's CALL_PRIMOP opcode dispatches against, arity-matched by
// (name, argc), plus the synthetic stub closures that let ordinary
// function-call bytecode invoke them uniformly.
package primitives

import (
	"fmt"

	"github.com/chazu/quill/pkg/bytecode"
	"github.com/chazu/quill/pkg/value"
)

// ArityKind is how a Primitive's declared MinArity is matched against a
// call's actual argument count.
type ArityKind int

const (
	// Exact requires argc == MinArity.
	Exact ArityKind = iota
	// Varargs requires argc >= MinArity.
	Varargs
)

// Fn is a primitive's implementation. The VM pops exactly len(args)
// values off the value stack (left-to-right) before calling Fn, and
// pushes Fn's result.
type Fn func(t *Table, args []value.Value) (value.Value, error)

// Primitive is `(name, min_arity, kind, side_effects?, function)` from
// spec.md §4.5.
type Primitive struct {
	Name        string
	MinArity    int
	Kind        ArityKind
	SideEffects bool
	Func        Fn
}

func (p *Primitive) matches(argc int) bool {
	if p.Kind == Exact {
		return argc == p.MinArity
	}
	return argc >= p.MinArity
}

// Expander is the compiler's macro-reflection surface, used by the mx1/mx
// primitives (spec.md §4.5). pkg/compiler.Compiler satisfies this;
// quillctx wires the concrete compiler in after construction, so this
// package never imports pkg/compiler.
type Expander interface {
	ExpandOnce(form value.Value) (value.Value, error)
	ExpandFull(form value.Value) (value.Value, error)
}

// Tracer receives a line of text for every primitive call once tracing is
// enabled via the `trace` primitive.
type Tracer interface {
	Tracef(format string, args ...any)
}

// Table is the (name, argc)-dispatched primitive registry, plus the
// ambient state a handful of reflection primitives need (the macro
// expander, the gensym counter, an optional call tracer).
type Table struct {
	Packages *value.Packages
	Store    *bytecode.Store
	Expander Expander
	// Trace is nil unless the `trace` primitive has turned tracing on; it
	// is then set to DefaultTracer. Both are exposed so a host embedding
	// quillctx can supply the actual sink (spec.md §6, "optionally
	// provide a logger sink") while the `trace` primitive (reflect.go)
	// only toggles it.
	Trace        Tracer
	DefaultTracer Tracer

	// Apply invokes a closure Value with args, re-entering the VM. Wired
	// by pkg/quillctx once the VM exists; used by primitives (`map`) that
	// must call back into user code rather than just manipulate data.
	Apply func(fn value.Value, args []value.Value) (value.Value, error)

	byName    map[string][]*Primitive
	gensymSeq int
}

// New creates an empty table. Call RegisterCore to install the required
// primitive set of spec.md §4.5.
func New(pkgs *value.Packages, store *bytecode.Store) *Table {
	return &Table{Packages: pkgs, Store: store, byName: make(map[string][]*Primitive)}
}

// Register adds p to the table and, the first time this name is seen,
// binds a synthetic one-instruction stub closure (CALL_PRIMOP name;
// RETURN_VAL) to the symbol of the same name in the core package,
// exported so every user package can call it (spec.md §4.5).
func (t *Table) Register(p *Primitive) {
	if _, exists := t.byName[p.Name]; !exists {
		handle := t.Store.Add([]bytecode.Instruction{
			{Op: bytecode.OpCallPrimop, First: value.String(p.Name)},
			{Op: bytecode.OpReturnVal},
		}, p.Name)
		sym := t.Packages.Core.Intern(p.Name)
		closure := &value.Closure{CodeHandle: handle, Name: p.Name}
		if err := t.Packages.Core.Set(sym, value.FromClosure(closure)); err != nil {
			panic(fmt.Sprintf("primitives: registering %s: %v", p.Name, err))
		}
		if err := t.Packages.Core.Export(sym); err != nil {
			panic(fmt.Sprintf("primitives: exporting %s: %v", p.Name, err))
		}
	}
	t.byName[p.Name] = append(t.byName[p.Name], p)
}

// Dispatch finds the Primitive registered under name whose arity accepts
// len(args), and calls it. This is CALL_PRIMOP's implementation.
func (t *Table) Dispatch(name string, args []value.Value) (value.Value, error) {
	variants, ok := t.byName[name]
	if !ok {
		return value.Nil, fmt.Errorf("primitives: unknown primitive %q", name)
	}
	for _, p := range variants {
		if p.matches(len(args)) {
			if t.Trace != nil {
				t.Trace.Tracef("(%s %s)", name, printArgs(args))
			}
			return p.Func(t, args)
		}
	}
	return value.Nil, fmt.Errorf("primitives: %s: no variant accepts %d argument(s)", name, len(args))
}

func printArgs(args []value.Value) string {
	s := ""
	for i, a := range args {
		if i > 0 {
			s += " "
		}
		s += value.Print(a)
	}
	return s
}

// RegisterCore installs the required primitive set of spec.md §4.5.
func (t *Table) RegisterCore() {
	registerArithmetic(t)
	registerList(t)
	registerPredicates(t)
	registerVector(t)
	registerReflection(t)
	registerPackageControl(t)
}
