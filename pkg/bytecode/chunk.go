package bytecode

import (
	"fmt"

	"github.com/chazu/quill/pkg/value"
)

// Instruction is one assembled VM instruction: an opcode plus two Value
// operands whose meaning depends on the opcode (spec.md §3, "Instruction").
// For a jump instruction (Op.IsJump() true), Second holds the
// assembly-time label as a KindString until the compiler's label pass
// resolves it, after which Second holds the integer target program
// counter as a KindInt; First is unused for those opcodes. Debug
// optionally carries a source annotation (a symbol name or a fragment of
// the originating form) used only for tracing and disassembly.
type Instruction struct {
	Op     Opcode
	First  value.Value
	Second value.Value
	Debug  string
}

// CodeBlock is one compiled unit: a handle stable for the Context's
// lifetime, its assembled instruction stream, and a debug label
// (typically the source form or a lambda's name), per spec.md §3.
type CodeBlock struct {
	Handle       int
	Instructions []Instruction
	Debug        string
}

// InvalidHandle is reserved and never assigned to a real CodeBlock.
const InvalidHandle = 0

// Store is the handle-indexed, append-only vector of compiled code blocks
// described in spec.md §3 ("Code Store"). Blocks are never reshuffled so
// Closures may hold stable handles across the Context's life; Remove
// leaves a hole rather than compacting.
type Store struct {
	blocks []*CodeBlock // blocks[0] is always nil (handle 0 reserved)
}

// NewStore creates an empty store with handle 0 reserved.
func NewStore() *Store {
	return &Store{blocks: []*CodeBlock{nil}}
}

// Add registers a new code block and returns its handle.
func (s *Store) Add(instructions []Instruction, debug string) int {
	handle := len(s.blocks)
	s.blocks = append(s.blocks, &CodeBlock{
		Handle:       handle,
		Instructions: instructions,
		Debug:        debug,
	})
	return handle
}

// Get returns the block for handle, or an error if the handle is invalid,
// out of range, or was removed.
func (s *Store) Get(handle int) (*CodeBlock, error) {
	if handle <= InvalidHandle || handle >= len(s.blocks) {
		return nil, fmt.Errorf("bytecode: invalid code handle %d", handle)
	}
	block := s.blocks[handle]
	if block == nil {
		return nil, fmt.Errorf("bytecode: code handle %d was removed", handle)
	}
	return block, nil
}

// Remove clears the block at handle, leaving a hole; the handle is never
// reused.
func (s *Store) Remove(handle int) {
	if handle > InvalidHandle && handle < len(s.blocks) {
		s.blocks[handle] = nil
	}
}

// Handles returns every live (non-removed) handle, for host-facing
// enumeration (spec.md §6, "Enumerate code blocks for debugging").
func (s *Store) Handles() []int {
	var out []int
	for h, b := range s.blocks {
		if h == InvalidHandle || b == nil {
			continue
		}
		out = append(out, h)
	}
	return out
}

// Len returns the number of slots in the store, including handle 0 and any
// holes left by Remove.
func (s *Store) Len() int {
	return len(s.blocks)
}
