package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders v in the bit-exact, round-trippable format of spec.md §6.
func Print(v Value) string {
	var sb strings.Builder
	print1(&sb, v)
	return sb.String()
}

func print1(sb *strings.Builder, v Value) {
	switch v.Kind() {
	case KindNil:
		sb.WriteString("()")
	case KindBool:
		if v.BoolVal() {
			sb.WriteString("#t")
		} else {
			sb.WriteString("#f")
		}
	case KindInt:
		sb.WriteString(strconv.FormatInt(int64(v.IntVal()), 10))
	case KindFloat:
		f := v.FloatVal()
		s := strconv.FormatFloat(float64(f), 'g', -1, 32)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		sb.WriteString(s)
	case KindString:
		sb.WriteByte('"')
		for _, r := range v.StringVal() {
			switch r {
			case '"':
				sb.WriteString(`\"`)
			case '\\':
				sb.WriteString(`\\`)
			default:
				sb.WriteRune(r)
			}
		}
		sb.WriteByte('"')
	case KindSymbol:
		sb.WriteString(v.SymbolVal().QualifiedName())
	case KindCons:
		printList(sb, v)
	case KindVector:
		sb.WriteString("[Vector")
		for _, e := range v.VectorVal().Elems {
			sb.WriteByte(' ')
			print1(sb, e)
		}
		sb.WriteByte(']')
	case KindClosure:
		c := v.ClosureVal()
		if c.Name != "" {
			sb.WriteString(fmt.Sprintf("[Closure/%s]", c.Name))
		} else {
			sb.WriteString("[Closure]")
		}
	case KindReturnAddress:
		r := v.ReturnAddressVal()
		sb.WriteString(fmt.Sprintf("[%s/%d]", r.Label, r.PC))
	case KindObject:
		o := v.ObjectVal()
		sb.WriteString(fmt.Sprintf("[Native %s %s]", o.TypeName, o.String))
	default:
		sb.WriteString("#<unprintable>")
	}
}

func printList(sb *strings.Builder, v Value) {
	sb.WriteByte('(')
	first := true
	for v.IsCons() {
		if !first {
			sb.WriteByte(' ')
		}
		first = false
		c := v.ConsVal()
		print1(sb, c.Car)
		v = c.Cdr
	}
	if !v.IsNil() {
		sb.WriteString(" . ")
		print1(sb, v)
	}
	sb.WriteByte(')')
}
