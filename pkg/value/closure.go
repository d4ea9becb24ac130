package value

// Closure pairs a compiled code block (identified by its Code Store handle
// — see pkg/bytecode) with the environment captured at MAKE_CLOSURE time.
// Env is typed any to avoid an import cycle between pkg/value and
// pkg/env (an Environment's frames hold Values); pkg/vm and pkg/compiler
// are the only consumers that need to type-assert it back to
// *env.Environment.
type Closure struct {
	CodeHandle int
	Env        any
	Params     []*Symbol
	Dotted     bool // true if the final Param collects surplus args
	Name       string
}

// FromClosure wraps a *Closure as a Value.
func FromClosure(c *Closure) Value {
	return newRef(KindClosure, c)
}

// ClosureVal returns the *Closure payload. Panics if v is not KindClosure.
func (v Value) ClosureVal() *Closure {
	mustKind(v, KindClosure)
	return v.ref.(*Closure)
}
