// Package bytecode implements the Instruction/Code-Store component of
// spec.md §3–4: opcodes, an assembled Instruction stream, and a
// handle-addressed, append-only store of compiled code blocks.
package bytecode

import "fmt"

// Opcode identifies one VM instruction, per spec.md §4.4's opcode table.
type Opcode uint8

const (
	OpLabel Opcode = iota // pseudo-instruction, no-op at runtime

	OpPushConst
	OpLocalGet
	OpLocalSet
	OpGlobalGet
	OpGlobalSet
	OpStackPop
	OpDuplicate

	OpJmpIfTrue
	OpJmpIfFalse
	OpJmpToLabel

	OpSaveReturn
	OpJmpClosure
	OpReturnVal

	OpMakeEnv
	OpMakeEnvDot
	OpMakeClosure

	OpCallPrimop
)

// opcodeNames mirrors the teacher's opcodeInfoTable pattern (chazu-maggie
// pkg/bytecode/opcodes.go) but keyed only by name, since this VM's
// Instructions are a typed struct stream (First/Second Values) rather than
// a packed byte stream with variable operand widths.
var opcodeNames = map[Opcode]string{
	OpLabel:       "LABEL",
	OpPushConst:   "PUSH_CONST",
	OpLocalGet:    "LOCAL_GET",
	OpLocalSet:    "LOCAL_SET",
	OpGlobalGet:   "GLOBAL_GET",
	OpGlobalSet:   "GLOBAL_SET",
	OpStackPop:    "STACK_POP",
	OpDuplicate:   "DUPLICATE",
	OpJmpIfTrue:   "JMP_IF_TRUE",
	OpJmpIfFalse:  "JMP_IF_FALSE",
	OpJmpToLabel:  "JMP_TO_LABEL",
	OpSaveReturn:  "SAVE_RETURN",
	OpJmpClosure:  "JMP_CLOSURE",
	OpReturnVal:   "RETURN_VAL",
	OpMakeEnv:     "MAKE_ENV",
	OpMakeEnvDot:  "MAKE_ENVDOT",
	OpMakeClosure: "MAKE_CLOSURE",
	OpCallPrimop:  "CALL_PRIMOP",
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))
}

// IsJump reports whether op is one whose Second field is (once assembled)
// an integer program-counter target.
func (op Opcode) IsJump() bool {
	switch op {
	case OpJmpIfTrue, OpJmpIfFalse, OpJmpToLabel, OpSaveReturn:
		return true
	default:
		return false
	}
}
