package bytecode

import (
	"fmt"
	"strings"

	"github.com/chazu/quill/pkg/value"
)

// Disassemble renders block as a human-readable instruction listing, in
// the spirit of the teacher's DisassembleWithName (chazu-maggie
// pkg/bytecode/disasm.go): one line per instruction, a header naming the
// block, and operands printed with Print rather than raw bit patterns.
func Disassemble(block *CodeBlock) string {
	var sb strings.Builder
	name := block.Debug
	if name == "" {
		name = fmt.Sprintf("block-%d", block.Handle)
	}
	fmt.Fprintf(&sb, "; %s (handle=%d, %d instructions)\n", name, block.Handle, len(block.Instructions))
	for i, ins := range block.Instructions {
		fmt.Fprintf(&sb, "%4d  %-14s", i, ins.Op)
		if ins.Op != OpLabel {
			if !ins.First.IsNil() || ins.Op == OpPushConst {
				fmt.Fprintf(&sb, " %s", operand(ins.First))
			}
			if ins.Op.IsJump() || !ins.Second.IsNil() {
				fmt.Fprintf(&sb, " %s", operand(ins.Second))
			}
		} else {
			fmt.Fprintf(&sb, " %s", operand(ins.First))
		}
		if ins.Debug != "" {
			fmt.Fprintf(&sb, "\t; %s", ins.Debug)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// operand prints one instruction operand. Labels (pre-assembly) and
// resolved jump targets are already plain values.Values (string or int)
// by the time an Instruction reaches the store, so Print handles both.
func operand(v value.Value) string {
	if v.IsNil() {
		return "-"
	}
	return value.Print(v)
}

// DisassembleStore renders every live block in s, in handle order, for
// the host's "dump all compiled code" debugging entry point (spec.md §6).
func DisassembleStore(s *Store) string {
	var sb strings.Builder
	for _, h := range s.Handles() {
		block, err := s.Get(h)
		if err != nil {
			continue
		}
		sb.WriteString(Disassemble(block))
		sb.WriteByte('\n')
	}
	return sb.String()
}
