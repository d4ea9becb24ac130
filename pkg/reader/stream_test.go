package reader

import (
	"testing"

	"github.com/chazu/quill/pkg/value"
)

// TestParseNextTrimsBufferAfterSuccess reproduces spec.md §4.1's invariant
// "After a successful full read the buffer is trimmed": a long-running
// Context that keeps feeding one form at a time must not accumulate every
// byte it has ever seen.
func TestParseNextTrimsBufferAfterSuccess(t *testing.T) {
	pkgs := value.NewPackages()
	p := New(pkgs)
	s := NewStream()

	for i := 0; i < 5; i++ {
		s.Add("(+ 1 2) ")
		if _, err := p.ParseNext(s); err != nil {
			t.Fatalf("ParseNext iteration %d: %v", i, err)
		}
	}

	if len(s.buf) > len("(+ 1 2) ") {
		t.Fatalf("expected the buffer to be trimmed after each successful parse, got %d bytes: %q", len(s.buf), s.buf)
	}
}

func TestClearSaveAllowsTrim(t *testing.T) {
	s := NewStream()
	s.Add("abc")
	s.Save()
	s.Read()
	s.Trim()
	if len(s.buf) != 3 {
		t.Fatalf("Trim should be a no-op while a save is outstanding, got %q", s.buf)
	}
	s.ClearSave()
	s.Trim()
	if len(s.buf) != 2 {
		t.Fatalf("expected Trim to discard the consumed byte once the save is cleared, got %q", s.buf)
	}
}
