// Package compiler implements spec.md §4.3: turning one parsed form into
// an assembled instruction list (and zero or more nested code blocks for
// inner lambdas), performing macro expansion, tail-call elimination, and
// dead-code folding along the way.
package compiler

import (
	"fmt"

	"github.com/chazu/quill/pkg/bytecode"
	"github.com/chazu/quill/pkg/env"
	"github.com/chazu/quill/pkg/value"
)

// reservedWords always compile as the corresponding special form,
// regardless of the current package (spec.md §6). Mirrors
// pkg/reader.reservedWords, which is what causes the parser to intern
// these names into the global package in the first place.
var reservedWords = map[string]bool{
	"quote": true, "begin": true, "set!": true, "if": true, "if*": true,
	"lambda": true, "defmacro": true, "while": true,
}

// Executor re-enters the VM to run a macro's body at compile time
// (spec.md §4.3, "Macro expansion"). pkg/vm.VM satisfies this; quillctx
// wires the concrete VM in after both are constructed, since pkg/vm must
// not import pkg/compiler (compiler is the one that needs the VM, not
// the other way around).
type Executor interface {
	Execute(closure value.Value, args []value.Value) (value.Value, error)
}

// Compiler holds the state shared across every top-level Compile call
// within one Context: the package registry (for global resolution and
// macro lookup) and the code store (where every compiled block, inner
// lambdas included, is registered).
type Compiler struct {
	Packages *value.Packages
	Store    *bytecode.Store
	Exec     Executor

	labelSeq int

	lastFrom   int
	lastMacros []MacroInstall
}

// MacroInstall records one defmacro side effect from the most recent
// top-level Compile call: which symbol got a macro definition, its
// shape, and which Store handle (always within LastCompileRange) holds
// the compiled body. pkg/quillctx's compiled-code cache persists these
// alongside the compiled blocks themselves and replays them against a
// fresh Context's Packages on a cache hit, since installing a macro is a
// registry side effect of Compile that no bytecode instruction performs
// (see compileDefmacro).
type MacroInstall struct {
	PackageName string
	SymbolName  string
	Params      []string
	Dotted      bool
	Handle      int
}

// New creates a Compiler. Exec must be set (via the Exec field) before
// any form containing a macro call or a lambda is compiled.
func New(pkgs *value.Packages, store *bytecode.Store) *Compiler {
	return &Compiler{Packages: pkgs, Store: store}
}

// Compile compiles one top-level form into a zero-argument closure whose
// code block, when executed, evaluates the form and returns its value.
func (c *Compiler) Compile(form value.Value) (value.Value, error) {
	c.lastFrom = c.Store.Len()
	c.lastMacros = nil
	instrs, err := c.compileForm(form, nil, tail)
	if err != nil {
		return value.Nil, err
	}
	assembled, err := c.assemble(instrs)
	if err != nil {
		return value.Nil, err
	}
	handle := c.Store.Add(assembled, value.Print(form))
	closure := &value.Closure{CodeHandle: handle, Env: nil}
	return value.FromClosure(closure), nil
}

// LastCompileRange returns the inclusive range of Store handles the most
// recent top-level Compile call registered: any nested lambda or
// defmacro body it compiled, in registration order, followed last by its
// own top-level wrapper block (the one its returned closure points at).
// pkg/quillctx uses this to persist a whole compilation atomically in
// the compiled-code cache, since a lambda's OpMakeClosure operand
// embeds a raw handle into one of the earlier blocks in this same range
// and would resolve to the wrong block (or nothing) if only the final
// block were cached.
func (c *Compiler) LastCompileRange() (from, to int) {
	return c.lastFrom, c.Store.Len() - 1
}

// TakeMacroInstalls returns and clears the macros the most recent
// top-level Compile call installed via defmacro.
func (c *Compiler) TakeMacroInstalls() []MacroInstall {
	m := c.lastMacros
	c.lastMacros = nil
	return m
}

func (c *Compiler) genLabel() value.Value {
	c.labelSeq++
	return value.String(fmt.Sprintf("L%d", c.labelSeq))
}

// finish appends the trailing STACK_POP/RETURN_VAL implied by st to
// instrs, which must already leave exactly one value on the stack.
func finish(instrs []bytecode.Instruction, st State) []bytecode.Instruction {
	if !st.Used {
		return append(instrs, bytecode.Instruction{Op: bytecode.OpStackPop})
	}
	if st.Final {
		return append(instrs, bytecode.Instruction{Op: bytecode.OpReturnVal})
	}
	return instrs
}

// compileForm is the single recursive entry point for compiling one form
// under compile-time environment scope (a chain of pkg/env.Environment
// frames) and (used, final) state.
func (c *Compiler) compileForm(form value.Value, scope *env.Environment, st State) ([]bytecode.Instruction, error) {
	if form.IsSymbol() {
		return c.compileSymbol(form, scope, st)
	}
	if !form.IsCons() {
		return c.compileConstant(form, st)
	}
	return c.compileCons(form, scope, st)
}

func (c *Compiler) compileSymbol(form value.Value, scope *env.Environment, st State) ([]bytecode.Instruction, error) {
	if !st.Used {
		return nil, nil
	}
	sym := form.SymbolVal()
	pos := env.Resolve(scope, sym)
	var ins bytecode.Instruction
	if pos.IsLocal() {
		ins = bytecode.Instruction{Op: bytecode.OpLocalGet, First: value.Int(int32(pos.Depth)), Second: value.Int(int32(pos.Slot))}
	} else {
		ins = bytecode.Instruction{Op: bytecode.OpGlobalGet, First: form}
	}
	return finish([]bytecode.Instruction{ins}, st), nil
}

func (c *Compiler) compileConstant(form value.Value, st State) ([]bytecode.Instruction, error) {
	if !st.Used {
		return nil, nil
	}
	ins := bytecode.Instruction{Op: bytecode.OpPushConst, First: form}
	return finish([]bytecode.Instruction{ins}, st), nil
}

func (c *Compiler) compileCons(form value.Value, scope *env.Environment, st State) ([]bytecode.Instruction, error) {
	cons := form.ConsVal()
	if head, ok := headSymbol(cons.Car); ok {
		if head.Pkg == c.Packages.Global && reservedWords[head.Name] {
			args, err := value.ListToSlice(cons.Cdr)
			if err != nil {
				return nil, compileErrorf("%s: improper argument list", head.Name)
			}
			return c.compileSpecialForm(head.Name, args, cons.Cdr, scope, st)
		}
		if macro, ok := head.Pkg.LookupMacro(head); ok {
			expanded, err := c.expandMacroCall(macro, cons.Cdr)
			if err != nil {
				return nil, err
			}
			return c.compileForm(expanded, scope, st)
		}
	}
	return c.compileApplication(form, scope, st)
}

func headSymbol(v value.Value) (*value.Symbol, bool) {
	if !v.IsSymbol() {
		return nil, false
	}
	return v.SymbolVal(), true
}

func (c *Compiler) compileSpecialForm(name string, args []value.Value, rawArgs value.Value, scope *env.Environment, st State) ([]bytecode.Instruction, error) {
	switch name {
	case "quote":
		return c.compileQuote(args, st)
	case "begin":
		return c.compileBegin(args, scope, st)
	case "set!":
		return c.compileSet(args, scope, st)
	case "if":
		return c.compileIf(args, scope, st)
	case "if*":
		return c.compileIfStar(args, scope, st)
	case "lambda":
		return c.compileLambda(args, scope, st, "")
	case "defmacro":
		return c.compileDefmacro(args, scope, st)
	case "while":
		return c.compileWhile(args, scope, st)
	default:
		return nil, compileErrorf("unhandled reserved word %q", name)
	}
}

func (c *Compiler) compileQuote(args []value.Value, st State) ([]bytecode.Instruction, error) {
	if len(args) != 1 {
		return nil, compileErrorf("quote: expected exactly 1 argument, got %d", len(args))
	}
	if !st.Used {
		return nil, nil
	}
	ins := bytecode.Instruction{Op: bytecode.OpPushConst, First: args[0]}
	return finish([]bytecode.Instruction{ins}, st), nil
}

func (c *Compiler) compileBegin(args []value.Value, scope *env.Environment, st State) ([]bytecode.Instruction, error) {
	if len(args) == 0 {
		return c.compileQuote([]value.Value{value.Nil}, st)
	}
	var out []bytecode.Instruction
	for i, a := range args {
		var sub []bytecode.Instruction
		var err error
		if i == len(args)-1 {
			sub, err = c.compileForm(a, scope, st)
		} else {
			sub, err = c.compileForm(a, scope, discard)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

func (c *Compiler) compileSet(args []value.Value, scope *env.Environment, st State) ([]bytecode.Instruction, error) {
	if len(args) != 2 {
		return nil, compileErrorf("set!: expected exactly 2 arguments, got %d", len(args))
	}
	if !args[0].IsSymbol() {
		return nil, compileErrorf("set!: target must be a symbol")
	}
	sym := args[0].SymbolVal()
	exprInstrs, err := c.compileForm(args[1], scope, nonTail)
	if err != nil {
		return nil, err
	}
	pos := env.Resolve(scope, sym)
	var setIns bytecode.Instruction
	if pos.IsLocal() {
		setIns = bytecode.Instruction{Op: bytecode.OpLocalSet, First: value.Int(int32(pos.Depth)), Second: value.Int(int32(pos.Slot))}
	} else {
		// spec.md §9 leaves "redefine a macro as a function" implementation-
		// defined but asks that it at least be reported; a global set!
		// targeting a name still bound as a macro on its own package is
		// almost certainly a mistake (shadowing at the value level can never
		// undo the macro's compile-time expansion), so reject it outright.
		if _, ok := sym.Pkg.LookupMacro(sym); ok {
			return nil, compileErrorf("set!: %s already names a macro", sym.QualifiedName())
		}
		setIns = bytecode.Instruction{Op: bytecode.OpGlobalSet, First: args[0]}
	}
	out := append(exprInstrs, setIns)
	return finish(out, st), nil
}

func (c *Compiler) compileIf(args []value.Value, scope *env.Environment, st State) ([]bytecode.Instruction, error) {
	if len(args) != 2 && len(args) != 3 {
		return nil, compileErrorf("if: expected 2 or 3 arguments, got %d", len(args))
	}
	pred, then := args[0], args[1]
	els := value.Nil
	if len(args) == 3 {
		els = args[2]
	}
	if lit, isLit := literalBool(pred); isLit {
		if lit {
			return c.compileForm(then, scope, st)
		}
		return c.compileForm(els, scope, st)
	}

	predInstrs, err := c.compileForm(pred, scope, nonTail)
	if err != nil {
		return nil, err
	}
	l1 := c.genLabel()
	thenInstrs, err := c.compileForm(then, scope, st)
	if err != nil {
		return nil, err
	}
	elseInstrs, err := c.compileForm(els, scope, st)
	if err != nil {
		return nil, err
	}

	out := append([]bytecode.Instruction{}, predInstrs...)
	out = append(out, bytecode.Instruction{Op: bytecode.OpJmpIfFalse, Second: l1})
	out = append(out, thenInstrs...)
	if !st.Final {
		l2 := c.genLabel()
		out = append(out, bytecode.Instruction{Op: bytecode.OpJmpToLabel, Second: l2})
		out = append(out, bytecode.Instruction{Op: bytecode.OpLabel, First: l1})
		out = append(out, elseInstrs...)
		out = append(out, bytecode.Instruction{Op: bytecode.OpLabel, First: l2})
		return out, nil
	}
	out = append(out, bytecode.Instruction{Op: bytecode.OpLabel, First: l1})
	out = append(out, elseInstrs...)
	return out, nil
}

// literalBool reports whether pred is a compile-time-foldable literal
// (spec.md §4.3, "compile-time fold if P is a literal boolean/number/
// string") and its truthiness if so.
func literalBool(pred value.Value) (truthy bool, isLiteral bool) {
	switch pred.Kind() {
	case value.KindBool, value.KindInt, value.KindFloat, value.KindString, value.KindNil:
		return pred.Truthy(), true
	default:
		return false, false
	}
}

func (c *Compiler) compileIfStar(args []value.Value, scope *env.Environment, st State) ([]bytecode.Instruction, error) {
	if len(args) != 2 {
		return nil, compileErrorf("if*: expected exactly 2 arguments, got %d", len(args))
	}
	predInstrs, err := c.compileForm(args[0], scope, nonTail)
	if err != nil {
		return nil, err
	}
	elseInstrs, err := c.compileForm(args[1], scope, nonTail)
	if err != nil {
		return nil, err
	}
	l1 := c.genLabel()
	out := append([]bytecode.Instruction{}, predInstrs...)
	out = append(out, bytecode.Instruction{Op: bytecode.OpDuplicate})
	out = append(out, bytecode.Instruction{Op: bytecode.OpJmpIfTrue, Second: l1})
	out = append(out, bytecode.Instruction{Op: bytecode.OpStackPop})
	out = append(out, elseInstrs...)
	out = append(out, bytecode.Instruction{Op: bytecode.OpLabel, First: l1})
	return finish(out, st), nil
}

func (c *Compiler) compileWhile(args []value.Value, scope *env.Environment, st State) ([]bytecode.Instruction, error) {
	if len(args) == 0 {
		return nil, compileErrorf("while: expected a predicate and zero or more body forms")
	}
	pred, body := args[0], args[1:]
	predInstrs, err := c.compileForm(pred, scope, nonTail)
	if err != nil {
		return nil, err
	}
	bodyInstrs, err := c.compileBegin(body, scope, nonTail)
	if err != nil {
		return nil, err
	}
	l1, l2 := c.genLabel(), c.genLabel()
	out := []bytecode.Instruction{{Op: bytecode.OpPushConst, First: value.Nil}}
	out = append(out, bytecode.Instruction{Op: bytecode.OpLabel, First: l1})
	out = append(out, predInstrs...)
	out = append(out, bytecode.Instruction{Op: bytecode.OpJmpIfFalse, Second: l2})
	out = append(out, bytecode.Instruction{Op: bytecode.OpStackPop})
	out = append(out, bodyInstrs...)
	out = append(out, bytecode.Instruction{Op: bytecode.OpJmpToLabel, Second: l1})
	out = append(out, bytecode.Instruction{Op: bytecode.OpLabel, First: l2})
	return finish(out, st), nil
}

// parseParams splits a lambda/defmacro parameter form into its fixed
// names and dotted-rest flag (spec.md §4.3, "Argument binding prologue").
func parseParams(form value.Value) ([]*value.Symbol, bool, error) {
	var names []*value.Symbol
	for form.IsCons() {
		c := form.ConsVal()
		if !c.Car.IsSymbol() {
			return nil, false, compileErrorf("invalid lambda parameter list: non-symbol parameter")
		}
		names = append(names, c.Car.SymbolVal())
		form = c.Cdr
	}
	if form.IsNil() {
		return names, false, nil
	}
	if form.IsSymbol() {
		names = append(names, form.SymbolVal())
		return names, true, nil
	}
	return nil, false, compileErrorf("invalid lambda parameter list")
}

func (c *Compiler) compileLambda(args []value.Value, scope *env.Environment, st State, name string) ([]bytecode.Instruction, error) {
	if len(args) < 1 {
		return nil, compileErrorf("lambda: expected a parameter list")
	}
	params, dotted, err := parseParams(args[0])
	if err != nil {
		return nil, err
	}
	innerEnv := env.NewSized(params, scope)
	bodyInstrs, err := c.compileBegin(args[1:], innerEnv, tail)
	if err != nil {
		return nil, err
	}
	prologue := bytecode.OpMakeEnv
	if dotted {
		prologue = bytecode.OpMakeEnvDot
	}
	full := append([]bytecode.Instruction{{Op: prologue, First: value.Int(int32(len(params)))}}, bodyInstrs...)
	assembled, err := c.assemble(full)
	if err != nil {
		return nil, err
	}
	handle := c.Store.Add(assembled, name)

	if !st.Used {
		return nil, nil
	}
	mk := bytecode.Instruction{Op: bytecode.OpMakeClosure, First: value.Int(int32(handle)), Second: value.String(name)}
	return finish([]bytecode.Instruction{mk}, st), nil
}

func (c *Compiler) compileDefmacro(args []value.Value, scope *env.Environment, st State) ([]bytecode.Instruction, error) {
	if len(args) < 2 {
		return nil, compileErrorf("defmacro: expected a name, a parameter list, and a body")
	}
	if !args[0].IsSymbol() {
		return nil, compileErrorf("defmacro: name must be a symbol")
	}
	nameSym := args[0].SymbolVal()
	params, dotted, err := parseParams(args[1])
	if err != nil {
		return nil, err
	}
	innerEnv := env.NewSized(params, scope)
	bodyInstrs, err := c.compileBegin(args[2:], innerEnv, tail)
	if err != nil {
		return nil, err
	}
	prologue := bytecode.OpMakeEnv
	if dotted {
		prologue = bytecode.OpMakeEnvDot
	}
	full := append([]bytecode.Instruction{{Op: prologue, First: value.Int(int32(len(params)))}}, bodyInstrs...)
	assembled, err := c.assemble(full)
	if err != nil {
		return nil, err
	}
	handle := c.Store.Add(assembled, nameSym.Name)
	macroClosure := &value.Closure{CodeHandle: handle, Env: nil, Name: nameSym.Name, Params: params, Dotted: dotted}
	if err := nameSym.Pkg.DefineMacro(nameSym, &value.Macro{
		Name: nameSym.Name, Params: params, Dotted: dotted, Body: value.FromClosure(macroClosure),
	}); err != nil {
		return nil, compileErrorf("defmacro: %v", err)
	}
	paramNames := make([]string, len(params))
	for i, p := range params {
		paramNames[i] = p.Name
	}
	c.lastMacros = append(c.lastMacros, MacroInstall{
		PackageName: nameSym.Pkg.Name,
		SymbolName:  nameSym.Name,
		Params:      paramNames,
		Dotted:      dotted,
		Handle:      handle,
	})
	return c.compileQuote([]value.Value{value.Nil}, st)
}

func (c *Compiler) compileApplication(form value.Value, scope *env.Environment, st State) ([]bytecode.Instruction, error) {
	cons := form.ConsVal()
	if isImmediateNullaryLambda(cons.Car) && cons.Cdr.IsNil() {
		lambdaArgs, _ := value.ListToSlice(cons.Car.ConsVal().Cdr)
		return c.compileBegin(lambdaArgs[1:], scope, st)
	}

	argForms, err := value.ListToSlice(cons.Cdr)
	if err != nil {
		return nil, compileErrorf("application: improper argument list")
	}

	var out []bytecode.Instruction
	var afterLabel value.Value
	if !st.Final {
		afterLabel = c.genLabel()
		out = append(out, bytecode.Instruction{Op: bytecode.OpSaveReturn, Second: afterLabel})
	}
	for _, a := range argForms {
		argInstrs, err := c.compileForm(a, scope, nonTail)
		if err != nil {
			return nil, err
		}
		out = append(out, argInstrs...)
	}
	calleeInstrs, err := c.compileForm(cons.Car, scope, nonTail)
	if err != nil {
		return nil, err
	}
	out = append(out, calleeInstrs...)
	out = append(out, bytecode.Instruction{Op: bytecode.OpJmpClosure, First: value.Int(int32(len(argForms)))})
	if !st.Final {
		out = append(out, bytecode.Instruction{Op: bytecode.OpLabel, First: afterLabel})
		if !st.Used {
			out = append(out, bytecode.Instruction{Op: bytecode.OpStackPop})
		}
	}
	return out, nil
}

// isImmediateNullaryLambda recognizes the `((lambda () body…))` shortcut
// of spec.md §4.3.
func isImmediateNullaryLambda(head value.Value) bool {
	if !head.IsCons() {
		return false
	}
	c := head.ConsVal()
	sym, ok := headSymbol(c.Car)
	if !ok || sym.Name != "lambda" {
		return false
	}
	rest, err := value.ListToSlice(c.Cdr)
	if err != nil || len(rest) < 1 {
		return false
	}
	return rest[0].IsNil()
}
