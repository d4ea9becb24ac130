package primitives_test

import (
	"errors"
	"testing"

	"github.com/chazu/quill/pkg/bytecode"
	"github.com/chazu/quill/pkg/compiler"
	"github.com/chazu/quill/pkg/primitives"
	"github.com/chazu/quill/pkg/reader"
	"github.com/chazu/quill/pkg/value"
	"github.com/chazu/quill/pkg/vm"
)

// runAll wires the same dependency loop run does, but executes every
// top-level form in src in order and returns each one's printed result,
// for scenarios (like spec.md §8 scenario 7) whose forms depend on
// state earlier forms in the same source left behind.
func runAll(t *testing.T, src string) []string {
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

	p := reader.New(pkgs)
	s := reader.NewStream()
	s.Add(src)

	var out []string
	for {
		form, err := p.ParseNext(s)
		if errors.Is(err, reader.ErrEOF) {
			break
		}
		if err != nil {
			t.Fatalf("ParseNext: %v", err)
		}
		closure, err := comp.Compile(form)
		if err != nil {
			t.Fatalf("Compile %s: %v", value.Print(form), err)
		}
		val, err := m.Execute(closure, nil)
		if err != nil {
			t.Fatalf("Execute %s: %v", value.Print(form), err)
		}
		out = append(out, value.Print(val))
	}
	return out
}

func TestPackageSetImportScenario(t *testing.T) {
	got := runAll(t, `(package-set "foo") (package-import "core") (set! x 5) (package-set nil) x`)
	want := []string{`"foo"`, "()", "5", "()", "()"}
	if len(got) != len(want) {
		t.Fatalf("got %d results %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("result %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
