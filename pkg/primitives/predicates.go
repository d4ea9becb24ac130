package primitives

import "github.com/chazu/quill/pkg/value"

func predicate(name string, fn func(v value.Value) bool) *Primitive {
	return &Primitive{Name: name, MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		return value.Bool(fn(a[0])), nil
	}}
}

func registerPredicates(t *Table) {
	t.Register(&Primitive{Name: "not", MinArity: 1, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		return value.Bool(!a[0].Truthy()), nil
	}})
	t.Register(predicate("null?", func(v value.Value) bool { return v.IsNil() }))
	t.Register(predicate("cons?", func(v value.Value) bool { return v.IsCons() }))
	t.Register(predicate("atom?", func(v value.Value) bool { return !v.IsCons() }))
	t.Register(predicate("string?", func(v value.Value) bool { return v.IsString() }))
	t.Register(predicate("number?", func(v value.Value) bool { return v.IsNumber() }))
	t.Register(predicate("boolean?", func(v value.Value) bool { return v.IsBool() }))
	t.Register(predicate("vector?", func(v value.Value) bool { return v.IsVector() }))
	t.Register(&Primitive{Name: "equal?", MinArity: 2, Kind: Exact, Func: func(t *Table, a []value.Value) (value.Value, error) {
		return value.Bool(structurallyEqual(a[0], a[1])), nil
	}})
}

// structurallyEqual is Scheme's equal?: value.Equal treats cons and vector
// as reference types (spec.md §3's identity rule), but lib/stdlib.scm's
// cond/case/member?/define-record-type all need equal? to recurse into
// list and vector structure and compare leaves by content instead.
func structurallyEqual(a, b value.Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case value.KindCons:
		ac, bc := a.ConsVal(), b.ConsVal()
		return structurallyEqual(ac.Car, bc.Car) && structurallyEqual(ac.Cdr, bc.Cdr)
	case value.KindVector:
		av, bv := a.VectorVal(), b.VectorVal()
		if len(av.Elems) != len(bv.Elems) {
			return false
		}
		for i := range av.Elems {
			if !structurallyEqual(av.Elems[i], bv.Elems[i]) {
				return false
			}
		}
		return true
	default:
		return value.Equal(a, b)
	}
}
