package compiler_test

import (
	"strings"
	"testing"

	"github.com/chazu/quill/pkg/bytecode"
	"github.com/chazu/quill/pkg/compiler"
	"github.com/chazu/quill/pkg/reader"
	"github.com/chazu/quill/pkg/value"
)

func compileSrc(t *testing.T, src string) (*bytecode.Store, value.Value) {
	t.Helper()
	pkgs := value.NewPackages()
	store := bytecode.NewStore()
	c := compiler.New(pkgs, store)
	p := reader.New(pkgs)
	s := reader.NewStream()
	s.Add(src)
	form, err := p.ParseNext(s)
	if err != nil {
		t.Fatalf("ParseNext: %v", err)
	}
	closure, err := c.Compile(form)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return store, closure
}

func disasm(t *testing.T, store *bytecode.Store, closure value.Value) string {
	t.Helper()
	block, err := store.Get(closure.ClosureVal().CodeHandle)
	if err != nil {
		t.Fatalf("Store.Get: %v", err)
	}
	return bytecode.Disassemble(block)
}

func TestCompileConstantEndsInReturn(t *testing.T) {
	store, closure := compileSrc(t, "42")
	out := disasm(t, store, closure)
	if !strings.Contains(out, "RETURN_VAL") {
		t.Errorf("expected a RETURN_VAL in a tail-position constant, got:\n%s", out)
	}
	if !strings.Contains(out, "PUSH_CONST") {
		t.Errorf("expected a PUSH_CONST, got:\n%s", out)
	}
}

func TestCompileIfEmitsBothBranches(t *testing.T) {
	// A literal predicate would compile-time fold away one branch, so
	// this uses a bound symbol to force both branches to be emitted.
	store, closure := compileSrc(t, "(lambda (p) (begin (if p 1 2) 0))")
	inner, err := store.Get(closure.ClosureVal().CodeHandle - 1)
	if err != nil {
		t.Fatalf("Store.Get inner: %v", err)
	}
	out := bytecode.Disassemble(inner)
	for _, want := range []string{"JMP_IF_FALSE", "JMP_TO_LABEL"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %s in if compilation, got:\n%s", want, out)
		}
	}
}

func TestCompileLambdaRegistersNestedBlock(t *testing.T) {
	store, _ := compileSrc(t, "(lambda (x) x)")
	if store.Len() < 2 {
		t.Errorf("expected the lambda body to register its own code block, got %d blocks", store.Len())
	}
}

func TestCompileApplicationUsesSaveReturnWhenNonTail(t *testing.T) {
	store, closure := compileSrc(t, "(begin ((lambda (x) x) 1) 2)")
	out := disasm(t, store, closure)
	if !strings.Contains(out, "SAVE_RETURN") {
		t.Errorf("expected SAVE_RETURN for a non-tail call, got:\n%s", out)
	}
	if !strings.Contains(out, "JMP_CLOSURE") {
		t.Errorf("expected JMP_CLOSURE for the call, got:\n%s", out)
	}
}

func TestCompileTailApplicationOmitsSaveReturn(t *testing.T) {
	store, closure := compileSrc(t, "(lambda (x) (x x))")
	block, err := store.Get(closure.ClosureVal().CodeHandle)
	if err != nil {
		t.Fatalf("Store.Get: %v", err)
	}
	_ = block
	// The outer closure just builds the lambda's closure value; the
	// lambda body's own block is registered first, one handle lower.
	inner, err := store.Get(closure.ClosureVal().CodeHandle - 1)
	if err != nil {
		t.Fatalf("Store.Get inner: %v", err)
	}
	out := bytecode.Disassemble(inner)
	if strings.Contains(out, "SAVE_RETURN") {
		t.Errorf("expected no SAVE_RETURN in a tail call, got:\n%s", out)
	}
	if !strings.Contains(out, "JMP_CLOSURE") {
		t.Errorf("expected JMP_CLOSURE for the tail call, got:\n%s", out)
	}
}

func TestCompileSetBangGlobal(t *testing.T) {
	store, closure := compileSrc(t, "(set! x 1)")
	out := disasm(t, store, closure)
	if !strings.Contains(out, "GLOBAL_SET") {
		t.Errorf("expected GLOBAL_SET, got:\n%s", out)
	}
}

func TestCompileQuoteEmitsConstant(t *testing.T) {
	store, closure := compileSrc(t, "(quote (a b c))")
	out := disasm(t, store, closure)
	if !strings.Contains(out, "PUSH_CONST") {
		t.Errorf("expected a single PUSH_CONST for a quoted literal, got:\n%s", out)
	}
}

func TestLastCompileRangeCoversNestedBlocks(t *testing.T) {
	pkgs := value.NewPackages()
	store := bytecode.NewStore()
	c := compiler.New(pkgs, store)
	p := reader.New(pkgs)
	s := reader.NewStream()
	s.Add("(lambda (x) (x x))")
	form, err := p.ParseNext(s)
	if err != nil {
		t.Fatalf("ParseNext: %v", err)
	}
	closure, err := c.Compile(form)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	from, to := c.LastCompileRange()
	if to != closure.ClosureVal().CodeHandle {
		t.Errorf("expected range to end at the returned closure's handle %d, got %d", closure.ClosureVal().CodeHandle, to)
	}
	if from != to-1 {
		t.Errorf("expected a 2-block range (inner body + outer wrapper), got [%d, %d]", from, to)
	}
}

func TestTakeMacroInstallsReportsDefmacro(t *testing.T) {
	pkgs := value.NewPackages()
	store := bytecode.NewStore()
	c := compiler.New(pkgs, store)
	p := reader.New(pkgs)
	s := reader.NewStream()
	s.Add("(defmacro double (x) x)")
	form, err := p.ParseNext(s)
	if err != nil {
		t.Fatalf("ParseNext: %v", err)
	}
	if _, err := c.Compile(form); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	installs := c.TakeMacroInstalls()
	if len(installs) != 1 {
		t.Fatalf("expected 1 macro install, got %d", len(installs))
	}
	m := installs[0]
	if m.SymbolName != "double" || len(m.Params) != 1 || m.Params[0] != "x" {
		t.Errorf("unexpected macro install: %+v", m)
	}
	from, to := c.LastCompileRange()
	if m.Handle < from || m.Handle > to {
		t.Errorf("macro handle %d outside compile range [%d, %d]", m.Handle, from, to)
	}

	// TakeMacroInstalls drains what it returns.
	if got := c.TakeMacroInstalls(); len(got) != 0 {
		t.Errorf("expected TakeMacroInstalls to be empty after draining, got %+v", got)
	}
}
