package vm_test

import (
	"testing"

	"github.com/chazu/quill/pkg/bytecode"
	"github.com/chazu/quill/pkg/compiler"
	"github.com/chazu/quill/pkg/primitives"
	"github.com/chazu/quill/pkg/reader"
	"github.com/chazu/quill/pkg/value"
	"github.com/chazu/quill/pkg/vm"
)

// newHarness wires a Compiler, Table, and VM the way pkg/quillctx.New
// does, without the config/cache/logging layered on top.
func newHarness(t *testing.T) (*reader.Parser, *compiler.Compiler, *vm.VM) {
	t.Helper()
	pkgs := value.NewPackages()
	store := bytecode.NewStore()
	prims := primitives.New(pkgs, store)
	comp := compiler.New(pkgs, store)
	m := vm.New(store, pkgs, prims)
	comp.Exec = m
	prims.Expander = comp
	prims.Apply = m.Execute
	prims.RegisterCore()
	return reader.New(pkgs), comp, m
}

func run(t *testing.T, src string) value.Value {
	t.Helper()
	p, comp, m := newHarness(t)
	s := reader.NewStream()
	s.Add(src)
	form, err := p.ParseNext(s)
	if err != nil {
		t.Fatalf("ParseNext: %v", err)
	}
	closure, err := comp.Compile(form)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	val, err := m.Execute(closure, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return val
}

func TestExecuteArithmetic(t *testing.T) {
	got := run(t, "(+ 1 2)")
	want := value.Int(3)
	if got != want {
		t.Errorf("got %v, want %v", value.Print(got), value.Print(want))
	}
}

func TestExecuteIfBranches(t *testing.T) {
	if got := run(t, "(if #t 1 2)"); got != value.Int(1) {
		t.Errorf("true branch: got %v", value.Print(got))
	}
	if got := run(t, "(if #f 1 2)"); got != value.Int(2) {
		t.Errorf("false branch: got %v", value.Print(got))
	}
}

func TestExecuteLambdaApplication(t *testing.T) {
	got := run(t, "((lambda (x y) (+ x y)) 3 4)")
	if got != value.Int(7) {
		t.Errorf("got %v, want 7", value.Print(got))
	}
}

func TestExecuteVarargsLambda(t *testing.T) {
	got := run(t, "((lambda x x) 1 2 3)")
	if value.Print(got) != "(1 2 3)" {
		t.Errorf("got %v, want (1 2 3)", value.Print(got))
	}
}

// TestExecuteTailCallDoesNotGrowStack exercises the JMP_CLOSURE path
// across many self-calls; a non-tail-call-eliminating VM would either
// overflow a Go stack or grow the value stack unboundedly here.
func TestExecuteTailCallDoesNotGrowStack(t *testing.T) {
	p, comp, m := newHarness(t)
	s := reader.NewStream()
	s.Add(`
		(set! count-to
		  (lambda (n acc)
		    (if (> n 0) (count-to (+ n -1) (+ acc 1)) acc)))
	`)
	for {
		form, err := p.ParseNext(s)
		if err != nil {
			break
		}
		closure, err := comp.Compile(form)
		if err != nil {
			t.Fatalf("Compile: %v", err)
		}
		if _, err := m.Execute(closure, nil); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	}

	s2 := reader.NewStream()
	s2.Add("(count-to 50000 0)")
	form, err := p.ParseNext(s2)
	if err != nil {
		t.Fatalf("ParseNext: %v", err)
	}
	closure, err := comp.Compile(form)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	got, err := m.Execute(closure, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != value.Int(50000) {
		t.Errorf("got %v, want 50000", value.Print(got))
	}
}

func TestExecuteNonClosureIsError(t *testing.T) {
	pkgs := value.NewPackages()
	store := bytecode.NewStore()
	prims := primitives.New(pkgs, store)
	m := vm.New(store, pkgs, prims)
	if _, err := m.Execute(value.Int(5), nil); err == nil {
		t.Errorf("expected an error calling a non-closure")
	}
}
