package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/quill/pkg/value"
)

// unitDTO is the wire form of a Unit: every CodeBlock one top-level
// Compiler.Compile call registered, in original Store order.
type unitDTO struct {
	Blocks []blockDTO `cbor:"1,keyasint,omitempty"`
}

// MarshalUnit serializes blocks, a contiguous run of CodeBlocks produced
// by a single compilation (its own top-level block last, any nested
// lambda or defmacro bodies before it — see Compiler.LastCompileRange).
// Any OpMakeClosure operand referencing another block in the run is
// rewritten relative to the run's own start rather than as an absolute
// Store handle, so InstallUnit can restore the whole run at a different
// handle offset in a different Store.
func MarshalUnit(blocks []*CodeBlock) ([]byte, error) {
	var dto unitDTO
	if len(blocks) == 0 {
		return cbor.Marshal(dto)
	}
	base := blocks[0].Handle
	for _, block := range blocks {
		var instrs []instructionDTO
		for _, ins := range block.Instructions {
			first := ins.First
			if ins.Op == OpMakeClosure {
				first = value.Int(int32(int(first.IntVal()) - base))
			}
			firstDTO, err := EncodeValue(first)
			if err != nil {
				return nil, fmt.Errorf("bytecode: marshal unit instruction %s: %w", ins.Op, err)
			}
			secondDTO, err := EncodeValue(ins.Second)
			if err != nil {
				return nil, fmt.Errorf("bytecode: marshal unit instruction %s: %w", ins.Op, err)
			}
			instrs = append(instrs, instructionDTO{Op: ins.Op, First: firstDTO, Second: secondDTO, Debug: ins.Debug})
		}
		dto.Blocks = append(dto.Blocks, blockDTO{Instructions: instrs, Debug: block.Debug})
	}
	return cbor.Marshal(dto)
}

// UnmarshalUnit decodes bytes produced by MarshalUnit. The returned
// blocks' OpMakeClosure operands still hold run-relative offsets (0 is
// the first block in the slice); call InstallUnit to register them in a
// Store and resolve real handles before executing anything against them.
func UnmarshalUnit(data []byte, internPackage func(name string) *value.Package) ([]*CodeBlock, error) {
	var dto unitDTO
	if err := cbor.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal unit: %w", err)
	}
	blocks := make([]*CodeBlock, len(dto.Blocks))
	for i, bd := range dto.Blocks {
		block := &CodeBlock{Debug: bd.Debug}
		for _, ins := range bd.Instructions {
			first, err := DecodeValue(ins.First, internPackage)
			if err != nil {
				return nil, err
			}
			second, err := DecodeValue(ins.Second, internPackage)
			if err != nil {
				return nil, err
			}
			block.Instructions = append(block.Instructions, Instruction{Op: ins.Op, First: first, Second: second, Debug: ins.Debug})
		}
		blocks[i] = block
	}
	return blocks, nil
}

// InstallUnit registers blocks (as returned by UnmarshalUnit, still
// carrying run-relative OpMakeClosure operands) into store in order,
// rewriting each one to the real handle Store.Add assigns, and returns
// those handles in the same order as blocks — so the compilation's own
// top-level block is always handles[len(handles)-1], mirroring
// Compiler.LastCompileRange's convention.
func InstallUnit(store *Store, blocks []*CodeBlock) []int {
	if len(blocks) == 0 {
		return nil
	}
	newBase := store.Len()
	handles := make([]int, len(blocks))
	for i := range blocks {
		handles[i] = newBase + i
	}
	for _, block := range blocks {
		for j, ins := range block.Instructions {
			if ins.Op == OpMakeClosure {
				local := int(ins.First.IntVal())
				block.Instructions[j].First = value.Int(int32(newBase + local))
			}
		}
		store.Add(block.Instructions, block.Debug)
	}
	return handles
}
