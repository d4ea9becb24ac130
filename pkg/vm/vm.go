// Package vm implements spec.md §4.4: the single-threaded, stack-based
// virtual machine that executes assembled Instruction streams against a
// value stack and an environment (frame) chain.
package vm

import (
	"github.com/chazu/quill/pkg/bytecode"
	"github.com/chazu/quill/pkg/env"
	"github.com/chazu/quill/pkg/primitives"
	"github.com/chazu/quill/pkg/value"
)

// VM holds the state shared across every Execute call within one
// Context: the code store, the package registry (for GLOBAL_GET/SET),
// and the primitive dispatch table (for CALL_PRIMOP). Execute itself is
// reentrant — it keeps its value stack, program counter, current
// closure, and current environment as Go locals — so a primitive or a
// macro expansion may call back into Execute (directly, or via
// pkg/primitives.Table.Apply / pkg/compiler.Executor) without disturbing
// an outer, still-in-flight Execute call.
type VM struct {
	Store      *bytecode.Store
	Packages   *value.Packages
	Primitives *primitives.Table
}

// New creates a VM. Callers (pkg/quillctx) are expected to also assign
// vm.Primitives.Apply = vm.Execute after construction, closing the
// dependency loop primitives such as `map` need without pkg/primitives
// importing pkg/vm.
func New(store *bytecode.Store, pkgs *value.Packages, prims *primitives.Table) *VM {
	return &VM{Store: store, Packages: pkgs, Primitives: prims}
}

// Execute is spec.md §4.4's invocation entry point: it pushes args onto a
// fresh value stack (left-to-right), sets argcount to their count,
// installs closure's code and captured environment, and runs the
// dispatch loop to completion, returning the final value.
func (m *VM) Execute(closure value.Value, args []value.Value) (value.Value, error) {
	if !closure.IsClosure() {
		return value.Nil, runtimeErrorf("call target is not a closure: %s", value.Print(closure))
	}
	stack := make([]value.Value, len(args), len(args)+16)
	copy(stack, args)
	argcount := len(args)

	cur := closure
	curEnv, _ := cur.ClosureVal().Env.(*env.Environment)
	block, err := m.Store.Get(cur.ClosureVal().CodeHandle)
	if err != nil {
		return value.Nil, runtimeErrorf("%v", err)
	}
	pc := 0

	pop := func() (value.Value, error) {
		if len(stack) == 0 {
			return value.Nil, runtimeErrorf("stack underflow")
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}
	peek := func() (value.Value, error) {
		if len(stack) == 0 {
			return value.Nil, runtimeErrorf("stack underflow")
		}
		return stack[len(stack)-1], nil
	}

	for {
		if pc < 0 || pc >= len(block.Instructions) {
			return value.Nil, runtimeErrorf("runaway program counter (pc=%d, block has %d instructions)", pc, len(block.Instructions))
		}
		ins := block.Instructions[pc]

		switch ins.Op {
		case bytecode.OpLabel:
			pc++

		case bytecode.OpPushConst:
			stack = append(stack, ins.First)
			pc++

		case bytecode.OpLocalGet:
			depth, slot := int(ins.First.IntVal()), int(ins.Second.IntVal())
			frame, err := frameAt(curEnv, depth)
			if err != nil {
				return value.Nil, err
			}
			stack = append(stack, frame.Get(env.VarPos{Depth: 0, Slot: slot}))
			pc++

		case bytecode.OpLocalSet:
			depth, slot := int(ins.First.IntVal()), int(ins.Second.IntVal())
			v, err := peek()
			if err != nil {
				return value.Nil, err
			}
			frame, err := frameAt(curEnv, depth)
			if err != nil {
				return value.Nil, err
			}
			frame.Set(env.VarPos{Depth: 0, Slot: slot}, v)
			pc++

		case bytecode.OpGlobalGet:
			sym := ins.First.SymbolVal()
			v, ok := sym.Pkg.Get(sym)
			if !ok {
				v = value.Nil
			}
			stack = append(stack, v)
			pc++

		case bytecode.OpGlobalSet:
			sym := ins.First.SymbolVal()
			v, err := peek()
			if err != nil {
				return value.Nil, err
			}
			if v.IsNil() {
				sym.Pkg.Unbind(sym)
			} else if err := sym.Pkg.Set(sym, v); err != nil {
				return value.Nil, runtimeErrorf("%v", err)
			}
			pc++

		case bytecode.OpStackPop:
			if _, err := pop(); err != nil {
				return value.Nil, err
			}
			pc++

		case bytecode.OpDuplicate:
			v, err := peek()
			if err != nil {
				return value.Nil, err
			}
			stack = append(stack, v)
			pc++

		case bytecode.OpJmpIfTrue:
			v, err := pop()
			if err != nil {
				return value.Nil, err
			}
			if v.Truthy() {
				pc = int(ins.Second.IntVal())
			} else {
				pc++
			}

		case bytecode.OpJmpIfFalse:
			v, err := pop()
			if err != nil {
				return value.Nil, err
			}
			if !v.Truthy() {
				pc = int(ins.Second.IntVal())
			} else {
				pc++
			}

		case bytecode.OpJmpToLabel:
			pc = int(ins.Second.IntVal())

		case bytecode.OpSaveReturn:
			ra := &value.ReturnAddress{Closure: cur, PC: int(ins.Second.IntVal()), Env: curEnv, Label: block.Debug}
			stack = append(stack, value.FromReturnAddress(ra))
			pc++

		case bytecode.OpJmpClosure:
			n := int(ins.First.IntVal())
			callee, err := pop()
			if err != nil {
				return value.Nil, err
			}
			if !callee.IsClosure() {
				return value.Nil, runtimeErrorf("call target is not a closure: %s", value.Print(callee))
			}
			cc := callee.ClosureVal()
			cur = callee
			curEnv, _ = cc.Env.(*env.Environment) // discards the caller's current frame
			block, err = m.Store.Get(cc.CodeHandle)
			if err != nil {
				return value.Nil, runtimeErrorf("%v", err)
			}
			pc = 0
			argcount = n

		case bytecode.OpReturnVal:
			if len(stack) <= 1 {
				if len(stack) == 0 {
					return value.Nil, nil
				}
				return stack[0], nil
			}
			v, err := pop()
			if err != nil {
				return value.Nil, err
			}
			raVal, err := pop()
			if err != nil {
				return value.Nil, err
			}
			if !raVal.IsReturnAddress() {
				return value.Nil, runtimeErrorf("RETURN_VAL: expected a return address on the stack, got %s", value.Print(raVal))
			}
			ra := raVal.ReturnAddressVal()
			stack = append(stack, v)
			cur = ra.Closure
			curEnv, _ = ra.Env.(*env.Environment)
			block, err = m.Store.Get(cur.ClosureVal().CodeHandle)
			if err != nil {
				return value.Nil, runtimeErrorf("%v", err)
			}
			pc = ra.PC

		case bytecode.OpMakeEnv:
			n := int(ins.First.IntVal())
			if argcount != n {
				return value.Nil, runtimeErrorf("wrong arity: closure expects exactly %d argument(s), got %d", n, argcount)
			}
			frame := env.NewFrame(n, curEnv)
			for slot := n - 1; slot >= 0; slot-- {
				v, err := pop()
				if err != nil {
					return value.Nil, err
				}
				frame.SetSlot(slot, v)
			}
			curEnv = frame
			pc++

		case bytecode.OpMakeEnvDot:
			n := int(ins.First.IntVal())
			if argcount < n-1 {
				return value.Nil, runtimeErrorf("wrong arity: closure expects at least %d argument(s), got %d", n-1, argcount)
			}
			frame := env.NewFrame(n, curEnv)
			surplus := argcount - (n - 1)
			rest := make([]value.Value, surplus)
			for i := surplus - 1; i >= 0; i-- {
				v, err := pop()
				if err != nil {
					return value.Nil, err
				}
				rest[i] = v
			}
			frame.SetSlot(n-1, value.List(rest...))
			for slot := n - 2; slot >= 0; slot-- {
				v, err := pop()
				if err != nil {
					return value.Nil, err
				}
				frame.SetSlot(slot, v)
			}
			curEnv = frame
			pc++

		case bytecode.OpMakeClosure:
			handle := int(ins.First.IntVal())
			name := ""
			if ins.Second.IsString() {
				name = ins.Second.StringVal()
			}
			stack = append(stack, value.FromClosure(&value.Closure{CodeHandle: handle, Env: curEnv, Name: name}))
			pc++

		case bytecode.OpCallPrimop:
			name := ins.First.StringVal()
			if len(stack) < argcount {
				return value.Nil, runtimeErrorf("stack underflow calling primitive %q", name)
			}
			args := make([]value.Value, argcount)
			for i := argcount - 1; i >= 0; i-- {
				v, err := pop()
				if err != nil {
					return value.Nil, err
				}
				args[i] = v
			}
			result, err := m.Primitives.Dispatch(name, args)
			if err != nil {
				return value.Nil, runtimeErrorf("%v", err)
			}
			stack = append(stack, result)
			pc++

		default:
			return value.Nil, runtimeErrorf("unknown opcode %s", ins.Op)
		}
	}
}

// frameAt walks depth frames out from e, erroring rather than panicking
// on a malformed chain (a compiler bug would be the only cause).
func frameAt(e *env.Environment, depth int) (*env.Environment, error) {
	f := e
	for i := 0; i < depth; i++ {
		if f == nil {
			return nil, runtimeErrorf("local variable reference beyond the environment chain")
		}
		f = f.Parent()
	}
	if f == nil {
		return nil, runtimeErrorf("local variable reference beyond the environment chain")
	}
	return f, nil
}
