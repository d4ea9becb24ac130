package value

import "fmt"

// Cons is a mutable pair. A "list" is a chain of Cons cells terminated by
// Nil; a dotted pair has a non-nil, non-Cons final Cdr.
type Cons struct {
	Car Value
	Cdr Value
}

// FromCons wraps a *Cons as a Value.
func FromCons(c *Cons) Value {
	return newRef(KindCons, c)
}

// ConsVal returns the *Cons payload. Panics if v is not KindCons.
func (v Value) ConsVal() *Cons {
	mustKind(v, KindCons)
	return v.ref.(*Cons)
}

// NewCons allocates a new pair.
func NewCons(car, cdr Value) Value {
	return FromCons(&Cons{Car: car, Cdr: cdr})
}

// List builds a nil-terminated list from the given elements.
func List(elems ...Value) Value {
	result := Nil
	for i := len(elems) - 1; i >= 0; i-- {
		result = NewCons(elems[i], result)
	}
	return result
}

// ListToSlice flattens a proper (nil-terminated) list into a Go slice.
// Returns an error if v is not a proper list.
func ListToSlice(v Value) ([]Value, error) {
	var out []Value
	for {
		if v.IsNil() {
			return out, nil
		}
		if !v.IsCons() {
			return nil, fmt.Errorf("value: improper list")
		}
		c := v.ConsVal()
		out = append(out, c.Car)
		v = c.Cdr
	}
}

// Length returns the number of Cons cells in the chain reachable from v
// before a non-Cons Cdr is reached (O(n), per spec.md §3).
func Length(v Value) int {
	n := 0
	for v.IsCons() {
		n++
		v = v.ConsVal().Cdr
	}
	return n
}

// Car returns the car of a Cons Value, or Nil if v is Nil (Common-Lisp-ish
// leniency used internally by the compiler and primitives; the "cons?"-checked
// primitive form in pkg/primitives is stricter).
func Car(v Value) Value {
	if v.IsCons() {
		return v.ConsVal().Car
	}
	return Nil
}

// Cdr returns the cdr of a Cons Value, or Nil if v is Nil.
func Cdr(v Value) Value {
	if v.IsCons() {
		return v.ConsVal().Cdr
	}
	return Nil
}
