package env_test

import (
	"testing"

	"github.com/chazu/quill/pkg/env"
	"github.com/chazu/quill/pkg/value"
)

func sym(name string) *value.Symbol {
	pkgs := value.NewPackages()
	return pkgs.Global.Intern(name)
}

func TestResolveFindsLocalAndOuterFrames(t *testing.T) {
	pkgs := value.NewPackages()
	x := pkgs.Global.Intern("x")
	y := pkgs.Global.Intern("y")

	outer, err := env.New([]*value.Symbol{x}, []value.Value{value.Int(1)}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	inner, err := env.New([]*value.Symbol{y}, []value.Value{value.Int(2)}, outer)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if pos := env.Resolve(inner, y); pos != (env.VarPos{Depth: 0, Slot: 0}) {
		t.Errorf("expected y at depth 0 slot 0, got %+v", pos)
	}
	if pos := env.Resolve(inner, x); pos != (env.VarPos{Depth: 1, Slot: 0}) {
		t.Errorf("expected x at depth 1 slot 0, got %+v", pos)
	}
	if pos := env.Resolve(inner, sym("z")); pos != env.NotLocal {
		t.Errorf("expected NotLocal for an unbound symbol, got %+v", pos)
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	pkgs := value.NewPackages()
	x := pkgs.Global.Intern("x")
	e, err := env.New([]*value.Symbol{x}, []value.Value{value.Int(10)}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pos := env.Resolve(e, x)
	e.Set(pos, value.Int(20))
	if got := e.Get(pos); got != value.Int(20) {
		t.Errorf("got %v, want 20", value.Print(got))
	}
}

func TestSetVisibleAcrossSharedFrame(t *testing.T) {
	pkgs := value.NewPackages()
	x := pkgs.Global.Intern("x")
	shared, err := env.New([]*value.Symbol{x}, []value.Value{value.Int(1)}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pos := env.Resolve(shared, x)
	// Two "closures" sharing the same frame, as set! requires (spec.md §5):
	// mutation through one must be visible through the other.
	viewA := shared
	viewB := shared
	viewA.Set(pos, value.Int(99))
	if got := viewB.Get(pos); got != value.Int(99) {
		t.Errorf("mutation through viewA not visible via viewB: got %v", value.Print(got))
	}
}

func TestNewFrameHasNoSymbolNames(t *testing.T) {
	f := env.NewFrame(3, nil)
	if f.Size() != 3 {
		t.Fatalf("expected size 3, got %d", f.Size())
	}
	f.SetSlot(0, value.Int(1))
	f.SetSlot(1, value.Int(2))
	f.SetSlot(2, value.Int(3))
	if got := f.Get(env.VarPos{Depth: 0, Slot: 1}); got != value.Int(2) {
		t.Errorf("got %v, want 2", value.Print(got))
	}
}

func TestNewMismatchedLengthsErrors(t *testing.T) {
	pkgs := value.NewPackages()
	x := pkgs.Global.Intern("x")
	if _, err := env.New([]*value.Symbol{x}, nil, nil); err == nil {
		t.Errorf("expected an error for mismatched names/values lengths")
	}
}

func TestParentReturnsEnclosingFrame(t *testing.T) {
	outer := env.NewFrame(1, nil)
	inner := env.NewFrame(1, outer)
	if inner.Parent() != outer {
		t.Errorf("expected Parent() to return the outer frame")
	}
	if outer.Parent() != nil {
		t.Errorf("expected the outermost frame's Parent() to be nil")
	}
}
