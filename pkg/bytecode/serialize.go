package bytecode

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/quill/pkg/value"
)

// valueDTO is the wire representation of a value.Value constant. Only the
// variants that can legally appear as a compile-time constant (operands of
// PUSH_CONST, or an assembled jump target) are representable: closures,
// return-addresses, and opaque objects are always runtime-only and never
// serialized — see EncodeValue.
type valueDTO struct {
	Kind  uint8      `cbor:"1,keyasint"`
	Int   int32      `cbor:"2,keyasint,omitempty"`
	Float float32    `cbor:"3,keyasint,omitempty"`
	Str   string     `cbor:"4,keyasint,omitempty"`
	Bool  bool       `cbor:"5,keyasint,omitempty"`
	Pkg   string     `cbor:"6,keyasint,omitempty"` // symbol only
	Items []valueDTO `cbor:"7,keyasint,omitempty"` // cons (2 items: car, cdr) / vector (n items)
}

// EncodeValue converts a runtime Value into its serializable form, for use
// by pkg/cache's content-addressed bytecode cache. It fails on the
// runtime-only variants (closure, return-address, opaque object), which
// can never legally be a compiled constant.
func EncodeValue(v value.Value) (valueDTO, error) {
	switch v.Kind() {
	case value.KindNil:
		return valueDTO{Kind: uint8(value.KindNil)}, nil
	case value.KindBool:
		return valueDTO{Kind: uint8(value.KindBool), Bool: v.BoolVal()}, nil
	case value.KindInt:
		return valueDTO{Kind: uint8(value.KindInt), Int: v.IntVal()}, nil
	case value.KindFloat:
		return valueDTO{Kind: uint8(value.KindFloat), Float: v.FloatVal()}, nil
	case value.KindString:
		return valueDTO{Kind: uint8(value.KindString), Str: v.StringVal()}, nil
	case value.KindSymbol:
		sym := v.SymbolVal()
		return valueDTO{Kind: uint8(value.KindSymbol), Str: sym.Name, Pkg: sym.Pkg.Name}, nil
	case value.KindCons:
		c := v.ConsVal()
		car, err := EncodeValue(c.Car)
		if err != nil {
			return valueDTO{}, err
		}
		cdr, err := EncodeValue(c.Cdr)
		if err != nil {
			return valueDTO{}, err
		}
		return valueDTO{Kind: uint8(value.KindCons), Items: []valueDTO{car, cdr}}, nil
	case value.KindVector:
		vec := v.VectorVal()
		items := make([]valueDTO, len(vec.Elems))
		for i, e := range vec.Elems {
			d, err := EncodeValue(e)
			if err != nil {
				return valueDTO{}, err
			}
			items[i] = d
		}
		return valueDTO{Kind: uint8(value.KindVector), Items: items}, nil
	default:
		return valueDTO{}, fmt.Errorf("bytecode: cannot serialize %s constant", v.Kind())
	}
}

// DecodeValue is the inverse of EncodeValue. internPackage resolves (or
// creates) a package by name for symbol constants, mirroring how the
// reader interns symbols on the way in.
func DecodeValue(d valueDTO, internPackage func(name string) *value.Package) (value.Value, error) {
	switch value.Kind(d.Kind) {
	case value.KindNil:
		return value.Nil, nil
	case value.KindBool:
		return value.Bool(d.Bool), nil
	case value.KindInt:
		return value.Int(d.Int), nil
	case value.KindFloat:
		return value.Float(d.Float), nil
	case value.KindString:
		return value.String(d.Str), nil
	case value.KindSymbol:
		pkg := internPackage(d.Pkg)
		return value.FromSymbol(pkg.Intern(d.Str)), nil
	case value.KindCons:
		if len(d.Items) != 2 {
			return value.Nil, fmt.Errorf("bytecode: malformed cons DTO")
		}
		car, err := DecodeValue(d.Items[0], internPackage)
		if err != nil {
			return value.Nil, err
		}
		cdr, err := DecodeValue(d.Items[1], internPackage)
		if err != nil {
			return value.Nil, err
		}
		return value.NewCons(car, cdr), nil
	case value.KindVector:
		elems := make([]value.Value, len(d.Items))
		for i, item := range d.Items {
			e, err := DecodeValue(item, internPackage)
			if err != nil {
				return value.Nil, err
			}
			elems[i] = e
		}
		return value.NewVector(elems...), nil
	default:
		return value.Nil, fmt.Errorf("bytecode: unknown constant kind %d", d.Kind)
	}
}

// instructionDTO is the wire form of one Instruction.
type instructionDTO struct {
	Op     Opcode   `cbor:"1,keyasint"`
	First  valueDTO `cbor:"2,keyasint"`
	Second valueDTO `cbor:"3,keyasint"`
	Debug  string   `cbor:"4,keyasint,omitempty"`
}

// blockDTO is the wire form of a CodeBlock (handle is not serialized —
// handles are Context-local and reassigned on load).
type blockDTO struct {
	Instructions []instructionDTO `cbor:"1,keyasint"`
	Debug        string           `cbor:"2,keyasint,omitempty"`
}

// Marshal serializes block using CBOR (github.com/fxamacker/cbor), the
// library pkg/cache's SQLite-backed compiled-code cache stores blobs with.
func Marshal(block *CodeBlock) ([]byte, error) {
	dto := blockDTO{Debug: block.Debug}
	for _, ins := range block.Instructions {
		first, err := EncodeValue(ins.First)
		if err != nil {
			return nil, fmt.Errorf("bytecode: marshal instruction %s: %w", ins.Op, err)
		}
		second, err := EncodeValue(ins.Second)
		if err != nil {
			return nil, fmt.Errorf("bytecode: marshal instruction %s: %w", ins.Op, err)
		}
		dto.Instructions = append(dto.Instructions, instructionDTO{
			Op: ins.Op, First: first, Second: second, Debug: ins.Debug,
		})
	}
	return cbor.Marshal(dto)
}

// Unmarshal decodes bytes produced by Marshal back into a CodeBlock. The
// returned block's Handle is unset (0); a caller that adds it to a
// Store (Store.Add) gets a fresh, Context-local handle.
func Unmarshal(data []byte, internPackage func(name string) *value.Package) (*CodeBlock, error) {
	var dto blockDTO
	if err := cbor.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal: %w", err)
	}
	block := &CodeBlock{Debug: dto.Debug}
	for _, ins := range dto.Instructions {
		first, err := DecodeValue(ins.First, internPackage)
		if err != nil {
			return nil, err
		}
		second, err := DecodeValue(ins.Second, internPackage)
		if err != nil {
			return nil, err
		}
		block.Instructions = append(block.Instructions, Instruction{
			Op: ins.Op, First: first, Second: second, Debug: ins.Debug,
		})
	}
	return block, nil
}
