package primitives

import (
	"fmt"

	"github.com/chazu/quill/pkg/value"
)

func registerVector(t *Table) {
	t.Register(&Primitive{Name: "vector", MinArity: 0, Kind: Varargs, Func: func(t *Table, a []value.Value) (value.Value, error) {
		return value.NewVector(a...), nil
	}})
	t.Register(&Primitive{Name: "vector-ref", MinArity: 2, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		vec, idx, err := vectorIndex(a[0], a[1], "vector-ref")
		if err != nil {
			return value.Nil, err
		}
		return vec.Elems[idx], nil
	}})
	t.Register(&Primitive{Name: "vector-set!", MinArity: 3, Kind: Exact, SideEffects: true, Func: func(t *Table, a []value.Value) (value.Value, error) {
		vec, idx, err := vectorIndex(a[0], a[1], "vector-set!")
		if err != nil {
			return value.Nil, err
		}
		vec.Elems[idx] = a[2]
		return a[2], nil
	}})
	t.Register(&Primitive{Name: "vector-length", MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		if !a[0].IsVector() {
			return value.Nil, fmt.Errorf("primitives: vector-length: not a vector: %s", value.Print(a[0]))
		}
		return value.Int(int32(len(a[0].VectorVal().Elems))), nil
	}})
}

func vectorIndex(v, idx value.Value, who string) (*value.Vector, int, error) {
	if !v.IsVector() {
		return nil, 0, fmt.Errorf("primitives: %s: not a vector: %s", who, value.Print(v))
	}
	if !idx.IsInt() {
		return nil, 0, fmt.Errorf("primitives: %s: index must be an int", who)
	}
	vec := v.VectorVal()
	n := int(idx.IntVal())
	if n < 0 || n >= len(vec.Elems) {
		return nil, 0, fmt.Errorf("primitives: %s: index %d out of bounds (length %d)", who, n, len(vec.Elems))
	}
	return vec, n, nil
}
