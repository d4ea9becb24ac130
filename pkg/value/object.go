package value

// ReturnAddress is a stack-resident continuation placed by SAVE_RETURN and
// consumed by RETURN_VAL to resume a non-tail caller. Env is any for the
// same reason as Closure.Env — see closure.go.
type ReturnAddress struct {
	Closure Value // KindClosure
	PC      int
	Env     any
	Label   string
}

// FromReturnAddress wraps a *ReturnAddress as a Value.
func FromReturnAddress(r *ReturnAddress) Value {
	return newRef(KindReturnAddress, r)
}

// ReturnAddressVal returns the *ReturnAddress payload.
func (v Value) ReturnAddressVal() *ReturnAddress {
	mustKind(v, KindReturnAddress)
	return v.ref.(*ReturnAddress)
}

// Object is the opaque host-value variant (spec.md §9 "Opaque objects").
// The core never inspects Native; it only guarantees identity equality and
// the "[Native <typename> <tostring>]" print form.
type Object struct {
	TypeName string
	Native   any
	String   string
}

// FromObject wraps a *Object as a Value.
func FromObject(o *Object) Value {
	return newRef(KindObject, o)
}

// ObjectVal returns the *Object payload.
func (v Value) ObjectVal() *Object {
	mustKind(v, KindObject)
	return v.ref.(*Object)
}
