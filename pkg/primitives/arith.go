package primitives

import (
	"fmt"

	"github.com/chazu/quill/pkg/value"
)

// promote implements spec.md §4.5's numeric promotion rule: int op int ->
// int; if either side is float, both promote to float.
func promote(a, b value.Value) (af, bf float32, isFloat bool, err error) {
	if !a.IsNumber() || !b.IsNumber() {
		return 0, 0, false, fmt.Errorf("primitives: expected numbers, got %s and %s", value.Print(a), value.Print(b))
	}
	if a.IsFloat() || b.IsFloat() {
		return floatOf(a), floatOf(b), true, nil
	}
	return 0, 0, false, nil
}

func floatOf(v value.Value) float32 {
	if v.IsFloat() {
		return v.FloatVal()
	}
	return float32(v.IntVal())
}

func binaryArith(name string, intOp func(a, b int32) (int32, error), floatOp func(a, b float32) float32) *Primitive {
	return &Primitive{
		Name: name, MinArity: 2, Kind: Exact,
		Func: func(t *Table, args []value.Value) (value.Value, error) {
			_, _, isFloat, err := promote(args[0], args[1])
			if err != nil {
				return value.Nil, err
			}
			if isFloat {
				return value.Float(floatOp(floatOf(args[0]), floatOf(args[1]))), nil
			}
			n, err := intOp(args[0].IntVal(), args[1].IntVal())
			if err != nil {
				return value.Nil, err
			}
			return value.Int(n), nil
		},
	}
}

func registerArithmetic(t *Table) {
	t.Register(binaryArith("+", func(a, b int32) (int32, error) { return a + b, nil }, func(a, b float32) float32 { return a + b }))
	t.Register(binaryArith("-", func(a, b int32) (int32, error) { return a - b, nil }, func(a, b float32) float32 { return a - b }))
	t.Register(binaryArith("*", func(a, b int32) (int32, error) { return a * b, nil }, func(a, b float32) float32 { return a * b }))
	t.Register(binaryArith("/", func(a, b int32) (int32, error) {
		if b == 0 {
			return 0, fmt.Errorf("primitives: division by zero")
		}
		return a / b, nil
	}, func(a, b float32) float32 { return a / b }))

	// + and * are additionally variadic (spec.md §4.5).
	t.Register(&Primitive{Name: "+", MinArity: 0, Kind: Varargs, Func: func(t *Table, args []value.Value) (value.Value, error) {
		return foldNumeric(args, 0, func(a, b int32) int32 { return a + b }, func(a, b float32) float32 { return a + b })
	}})
	t.Register(&Primitive{Name: "*", MinArity: 0, Kind: Varargs, Func: func(t *Table, args []value.Value) (value.Value, error) {
		return foldNumeric(args, 1, func(a, b int32) int32 { return a * b }, func(a, b float32) float32 { return a * b })
	}})

	t.Register(comparison("=", func(a, b float32) bool { return a == b }, func(a, b int32) bool { return a == b }))
	t.Register(comparison("!=", func(a, b float32) bool { return a != b }, func(a, b int32) bool { return a != b }))
	t.Register(comparison("<", func(a, b float32) bool { return a < b }, func(a, b int32) bool { return a < b }))
	t.Register(comparison("<=", func(a, b float32) bool { return a <= b }, func(a, b int32) bool { return a <= b }))
	t.Register(comparison(">", func(a, b float32) bool { return a > b }, func(a, b int32) bool { return a > b }))
	t.Register(comparison(">=", func(a, b float32) bool { return a >= b }, func(a, b int32) bool { return a >= b }))
}

func foldNumeric(args []value.Value, identity int32, intOp func(a, b int32) int32, floatOp func(a, b float32) float32) (value.Value, error) {
	if len(args) == 0 {
		return value.Int(identity), nil
	}
	acc := args[0]
	if !acc.IsNumber() {
		return value.Nil, fmt.Errorf("primitives: expected a number, got %s", value.Print(acc))
	}
	for _, next := range args[1:] {
		_, _, isFloat, err := promote(acc, next)
		if err != nil {
			return value.Nil, err
		}
		if isFloat {
			acc = value.Float(floatOp(floatOf(acc), floatOf(next)))
		} else {
			acc = value.Int(intOp(acc.IntVal(), next.IntVal()))
		}
	}
	return acc, nil
}

func comparison(name string, floatOp func(a, b float32) bool, intOp func(a, b int32) bool) *Primitive {
	return &Primitive{
		Name: name, MinArity: 2, Kind: Exact,
		Func: func(t *Table, args []value.Value) (value.Value, error) {
			_, _, isFloat, err := promote(args[0], args[1])
			if err != nil {
				return value.Nil, err
			}
			if isFloat {
				return value.Bool(floatOp(floatOf(args[0]), floatOf(args[1]))), nil
			}
			return value.Bool(intOp(args[0].IntVal(), args[1].IntVal())), nil
		},
	}
}
