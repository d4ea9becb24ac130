// Package env implements the lexical-scope frame chain shared by the
// compiler (for compile-time variable resolution) and the VM (as its
// runtime locals). See spec.md §3, "Environment (frame chain)".
package env

import (
	"fmt"

	"github.com/chazu/quill/pkg/value"
)

// VarPos is the compile-time coordinate LOCAL_GET/LOCAL_SET address:
// how many frames out (Depth) and which slot within that frame (Slot).
// {-1, -1} denotes "not local — resolve globally".
type VarPos struct {
	Depth int
	Slot  int
}

// NotLocal is the sentinel VarPos meaning "look up globally instead".
var NotLocal = VarPos{Depth: -1, Slot: -1}

func (p VarPos) IsLocal() bool { return p.Depth >= 0 }

// Environment is one frame in the lexical chain: a fixed-size, parallel
// pair of symbol and value slots plus a parent pointer. Frames may
// outlive the call that created them for as long as some Closure
// references them (spec.md §3 lifecycle note).
type Environment struct {
	symbols []*value.Symbol
	values  []value.Value
	parent  *Environment
}

// New creates a frame binding names (in order) to values (in order); the
// two slices must be the same length. parent may be nil for the outermost
// (i.e. eventually-global) scope.
func New(names []*value.Symbol, values_ []value.Value, parent *Environment) (*Environment, error) {
	if len(names) != len(values_) {
		return nil, fmt.Errorf("env: %d names but %d values", len(names), len(values_))
	}
	syms := make([]*value.Symbol, len(names))
	copy(syms, names)
	vals := make([]value.Value, len(values_))
	copy(vals, values_)
	return &Environment{symbols: syms, values: vals, parent: parent}, nil
}

// NewSized creates a frame with one slot per name, the symbol names
// already fixed but every value defaulted to Nil. pkg/compiler uses it to
// build the compile-time scope of a lambda or defmacro body.
func NewSized(names []*value.Symbol, parent *Environment) *Environment {
	syms := make([]*value.Symbol, len(names))
	copy(syms, names)
	return &Environment{
		symbols: syms,
		values:  make([]value.Value, len(names)),
		parent:  parent,
	}
}

// NewFrame creates a runtime frame of n slots with no symbol names
// attached, used by pkg/vm's MAKE_ENV/MAKE_ENVDOT: at runtime, locals are
// addressed purely by the (depth, slot) VarPos coordinates the compiler
// already resolved, so no symbol chain is needed for lookup (Resolve is a
// compile-time-only operation performed against the compiler's own,
// separately constructed, symbol-carrying frames).
func NewFrame(n int, parent *Environment) *Environment {
	return &Environment{symbols: make([]*value.Symbol, n), values: make([]value.Value, n), parent: parent}
}

// Parent returns the enclosing frame, or nil at the outermost frame.
func (e *Environment) Parent() *Environment { return e.parent }

// Size returns the number of slots in this frame.
func (e *Environment) Size() int { return len(e.symbols) }

// SetSlot stores a value directly by index, used when constructing a
// frame incrementally (MAKE_ENV/MAKE_ENVDOT).
func (e *Environment) SetSlot(i int, v value.Value) {
	e.values[i] = v
}

// Get returns the value at (frame depth, slot).
func (e *Environment) Get(pos VarPos) value.Value {
	frame := e.frameAt(pos.Depth)
	return frame.values[pos.Slot]
}

// Set stores a value at (frame depth, slot); this is the only mutation
// spec.md allows post-construction (via set!), and it is visible through
// every Closure sharing this frame chain (spec.md §5).
func (e *Environment) Set(pos VarPos, v value.Value) {
	frame := e.frameAt(pos.Depth)
	frame.values[pos.Slot] = v
}

func (e *Environment) frameAt(depth int) *Environment {
	f := e
	for i := 0; i < depth; i++ {
		f = f.parent
	}
	return f
}

// Resolve walks the chain (starting at e, depth 0) looking for sym,
// comparing by Symbol identity (interning guarantees pointer equality is
// correct — spec.md §3). Returns NotLocal if sym is not bound in any frame.
func Resolve(e *Environment, sym *value.Symbol) VarPos {
	depth := 0
	for f := e; f != nil; f = f.parent {
		for slot, s := range f.symbols {
			if s == sym {
				return VarPos{Depth: depth, Slot: slot}
			}
		}
		depth++
	}
	return NotLocal
}
