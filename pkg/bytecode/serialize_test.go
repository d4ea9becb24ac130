package bytecode_test

import (
	"testing"

	"github.com/chazu/quill/pkg/bytecode"
	"github.com/chazu/quill/pkg/value"
)

func internPackage(pkgs *value.Packages) func(string) *value.Package {
	return func(name string) *value.Package { return pkgs.FindOrCreate(name) }
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	pkgs := value.NewPackages()
	sym := pkgs.Global.Intern("x")
	block := &bytecode.CodeBlock{
		Debug: "test block",
		Instructions: []bytecode.Instruction{
			{Op: bytecode.OpPushConst, First: value.Int(42)},
			{Op: bytecode.OpPushConst, First: value.FromSymbol(sym)},
			{Op: bytecode.OpPushConst, First: value.NewCons(value.Int(1), value.Int(2))},
			{Op: bytecode.OpReturnVal, Debug: "tail"},
		},
	}

	data, err := bytecode.Marshal(block)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	roundTripPkgs := value.NewPackages()
	got, err := bytecode.Unmarshal(data, internPackage(roundTripPkgs))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if got.Debug != block.Debug {
		t.Errorf("Debug: got %q, want %q", got.Debug, block.Debug)
	}
	if len(got.Instructions) != len(block.Instructions) {
		t.Fatalf("got %d instructions, want %d", len(got.Instructions), len(block.Instructions))
	}
	if got.Instructions[0].First != value.Int(42) {
		t.Errorf("got %v, want 42", value.Print(got.Instructions[0].First))
	}
	if !got.Instructions[1].First.IsSymbol() || got.Instructions[1].First.SymbolVal().Name != "x" {
		t.Errorf("symbol did not round-trip: %v", value.Print(got.Instructions[1].First))
	}
	if value.Print(got.Instructions[2].First) != "(1 . 2)" {
		t.Errorf("cons did not round-trip: %v", value.Print(got.Instructions[2].First))
	}
	if got.Instructions[3].Debug != "tail" {
		t.Errorf("instruction Debug did not round-trip: %q", got.Instructions[3].Debug)
	}
}

func TestEncodeValueRejectsClosures(t *testing.T) {
	closure := value.FromClosure(&value.Closure{CodeHandle: 1})
	if _, err := bytecode.EncodeValue(closure); err == nil {
		t.Error("expected an error encoding a runtime-only closure constant")
	}
}

func TestStoreAddAndGet(t *testing.T) {
	store := bytecode.NewStore()
	handle := store.Add([]bytecode.Instruction{{Op: bytecode.OpReturnVal}}, "block")
	block, err := store.Get(handle)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if block.Debug != "block" {
		t.Errorf("got %q", block.Debug)
	}
	if len(store.Handles()) != 1 {
		t.Errorf("expected 1 live handle, got %d", len(store.Handles()))
	}
}
