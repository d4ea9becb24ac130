package compiler

import (
	"github.com/chazu/quill/pkg/bytecode"
	"github.com/chazu/quill/pkg/value"
)

// assemble resolves every label pseudo-instruction to the integer program
// counter of its position (spec.md §4.3, "Assembly"). Labels remain in
// the output stream as no-op OpLabel instructions; every jump's Second
// field is rewritten from its assembly-time KindString label to a
// KindInt target. An unresolved label is a fatal compile error.
func (c *Compiler) assemble(instrs []bytecode.Instruction) ([]bytecode.Instruction, error) {
	positions := make(map[string]int, len(instrs))
	for i, ins := range instrs {
		if ins.Op == bytecode.OpLabel {
			positions[ins.First.StringVal()] = i
		}
	}
	out := make([]bytecode.Instruction, len(instrs))
	for i, ins := range instrs {
		if ins.Op.IsJump() {
			label := ins.Second.StringVal()
			pc, ok := positions[label]
			if !ok {
				return nil, compileErrorf("unresolved jump label %q", label)
			}
			ins.Second = value.Int(int32(pc))
		}
		out[i] = ins
	}
	return out, nil
}
