package quillctx_test

import (
	"path/filepath"
	"testing"

	"github.com/chazu/quill/pkg/quillctx"
	"github.com/chazu/quill/pkg/value"
)

// TestWithCachePathCreatesMissingDirectory reproduces cmd/quill's
// zero-config default: quill.toml's Cache.Dir (".quill/cache") points at
// a path whose parent directory does not exist yet on a stock checkout.
// WithCachePath must not require the caller to create it first.
func TestWithCachePathCreatesMissingDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "does-not-exist-yet", "cache")

	ctx, err := quillctx.New(quillctx.SkipStdlib(), quillctx.WithCachePath(dbPath))
	if err != nil {
		t.Fatalf("New with cache path under a missing directory: %v", err)
	}
	defer ctx.Close()

	if _, err := ctx.Execute("(+ 1 2)"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
}

// TestCacheHitReinstallsMacrosInFreshContext is the scenario the review
// flagged directly: a second Context pointed at the same cache path as
// the first must still have every stdlib macro (let, define, cond, ...)
// usable, and any nested lambda a cached top-level form registers must
// still run correctly, even though the second Context's Store and
// Packages are entirely separate objects from the first's.
func TestCacheHitReinstallsMacrosInFreshContext(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "quill-cache")

	first, err := quillctx.New(quillctx.WithCachePath(dbPath))
	if err != nil {
		t.Fatalf("New (first): %v", err)
	}
	results, err := first.Execute("(let ((x 10)) (define (add1 n) (+ n 1)) (add1 x))")
	if err != nil {
		t.Fatalf("Execute (first): %v", err)
	}
	if len(results) != 1 || results[0].Value != value.Int(11) {
		t.Fatalf("first Context: got %+v", results)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close (first): %v", err)
	}

	second, err := quillctx.New(quillctx.WithCachePath(dbPath))
	if err != nil {
		t.Fatalf("New (second): %v", err)
	}
	defer second.Close()

	// The stdlib itself was compiled once by the first Context and is
	// now served entirely from cache hits; `let`/`define` must still
	// work, which only happens if their defmacro side effects were
	// replayed into this Context's own Packages.
	results, err = second.Execute("(let ((x 10)) (define (add1 n) (+ n 1)) (add1 x))")
	if err != nil {
		t.Fatalf("Execute (second, cache hit): %v", err)
	}
	if len(results) != 1 || results[0].Value != value.Int(11) {
		t.Fatalf("second Context: got %+v", results)
	}
}
