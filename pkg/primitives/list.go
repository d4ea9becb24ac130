package primitives

import (
	"fmt"

	"github.com/chazu/quill/pkg/value"
)

func registerList(t *Table) {
	t.Register(&Primitive{Name: "cons", MinArity: 2, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		return value.NewCons(a[0], a[1]), nil
	}})
	t.Register(&Primitive{Name: "list", MinArity: 0, Kind: Varargs, Func: func(t *Table, a []value.Value) (value.Value, error) {
		return value.List(a...), nil
	}})
	t.Register(&Primitive{Name: "append", MinArity: 0, Kind: Varargs, Func: func(t *Table, a []value.Value) (value.Value, error) {
		var elems []value.Value
		for _, list := range a {
			part, err := value.ListToSlice(list)
			if err != nil {
				return value.Nil, fmt.Errorf("primitives: append: %w", err)
			}
			elems = append(elems, part...)
		}
		return value.List(elems...), nil
	}})
	t.Register(&Primitive{Name: "length", MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		return value.Int(int32(value.Length(a[0]))), nil
	}})
	t.Register(&Primitive{Name: "car", MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		if !a[0].IsCons() {
			return value.Nil, fmt.Errorf("primitives: car: not a cons: %s", value.Print(a[0]))
		}
		return a[0].ConsVal().Car, nil
	}})
	t.Register(&Primitive{Name: "cdr", MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		if !a[0].IsCons() {
			return value.Nil, fmt.Errorf("primitives: cdr: not a cons: %s", value.Print(a[0]))
		}
		return a[0].ConsVal().Cdr, nil
	}})
	t.Register(cxr("cadr", "ad"))
	t.Register(cxr("cddr", "dd"))
	t.Register(cxr("caddr", "add"))
	t.Register(cxr("cdddr", "ddd"))
	t.Register(&Primitive{Name: "nth", MinArity: 2, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		v, err := nthCons(a[0], a[1])
		if err != nil {
			return value.Nil, err
		}
		return v.ConsVal().Car, nil
	}})
	t.Register(&Primitive{Name: "nth-tail", MinArity: 2, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		v, err := nthCons(a[0], a[1])
		if err != nil {
			return value.Nil, err
		}
		return v.ConsVal().Cdr, nil
	}})
	t.Register(&Primitive{Name: "nth-cons", MinArity: 2, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		return nthCons(a[0], a[1])
	}})
	t.Register(&Primitive{Name: "map", MinArity: 2, Kind: Varargs, Func: primMap})
}

// cxr builds a car/cdr composition primitive from a sequence of 'a'/'d'
// steps applied right-to-left (matching Scheme's cadr/cddr naming).
func cxr(name, steps string) *Primitive {
	return &Primitive{Name: name, MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		v := a[0]
		for i := len(steps) - 1; i >= 0; i-- {
			if !v.IsCons() {
				return value.Nil, fmt.Errorf("primitives: %s: not a cons: %s", name, value.Print(a[0]))
			}
			if steps[i] == 'a' {
				v = v.ConsVal().Car
			} else {
				v = v.ConsVal().Cdr
			}
		}
		return v, nil
	}}
}

func nthCons(list, index value.Value) (value.Value, error) {
	if !index.IsInt() {
		return value.Nil, fmt.Errorf("primitives: nth: index must be an int")
	}
	n := int(index.IntVal())
	v := list
	for i := 0; i < n; i++ {
		if !v.IsCons() {
			return value.Nil, fmt.Errorf("primitives: nth: index %d out of bounds", n)
		}
		v = v.ConsVal().Cdr
	}
	if !v.IsCons() {
		return value.Nil, fmt.Errorf("primitives: nth: index %d out of bounds", n)
	}
	return v, nil
}

// primMap has no direct access to the VM (the closure argument must be
// invoked to produce each mapped element), so it is registered here but
// implemented against t.Apply, wired by pkg/quillctx once the VM exists.
func primMap(t *Table, args []value.Value) (value.Value, error) {
	if t.Apply == nil {
		return value.Nil, fmt.Errorf("primitives: map: no VM wired for closure application")
	}
	fn := args[0]
	lists := make([][]value.Value, len(args)-1)
	minLen := -1
	for i, l := range args[1:] {
		elems, err := value.ListToSlice(l)
		if err != nil {
			return value.Nil, fmt.Errorf("primitives: map: %w", err)
		}
		lists[i] = elems
		if minLen == -1 || len(elems) < minLen {
			minLen = len(elems)
		}
	}
	out := make([]value.Value, minLen)
	for i := 0; i < minLen; i++ {
		callArgs := make([]value.Value, len(lists))
		for j, l := range lists {
			callArgs[j] = l[i]
		}
		v, err := t.Apply(fn, callArgs)
		if err != nil {
			return value.Nil, err
		}
		out[i] = v
	}
	return value.List(out...), nil
}
