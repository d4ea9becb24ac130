package quillctx_test

import (
	"testing"

	"github.com/chazu/quill/pkg/quillctx"
	"github.com/chazu/quill/pkg/value"
)

func TestNewLoadsStdlibByDefault(t *testing.T) {
	ctx, err := quillctx.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	results, err := ctx.Execute("(let ((x 1) (y 2)) (+ x y))")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 1 || results[0].Value != value.Int(3) {
		t.Fatalf("got %+v", results)
	}
}

func TestSkipStdlibLeavesCorePrimitivesUsable(t *testing.T) {
	ctx, err := quillctx.New(quillctx.SkipStdlib())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	// let is defined by the standard library, so it must be unavailable
	// here even though core arithmetic still works.
	if _, err := ctx.Execute("(+ 1 2)"); err != nil {
		t.Fatalf("core primitive should work without the stdlib: %v", err)
	}
	if _, err := ctx.Execute("(let ((x 1)) x)"); err == nil {
		t.Error("expected an error resolving `let` without the stdlib loaded")
	}
}

func TestExecuteAccumulatesHandlesAcrossForms(t *testing.T) {
	ctx, err := quillctx.New(quillctx.SkipStdlib())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	results, err := ctx.Execute("1 2 3")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 form results, got %d", len(results))
	}
	for _, r := range results {
		if len(r.Handles) == 0 {
			t.Errorf("expected each constant form to register at least one handle, got %+v", r)
		}
	}
}

func TestCompileOnlyDoesNotExecute(t *testing.T) {
	ctx, err := quillctx.New(quillctx.SkipStdlib())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	if err := ctx.CompileOnly("(set! never-ran 99)"); err != nil {
		t.Fatalf("CompileOnly: %v", err)
	}
	// An unbound global reads as Nil rather than raising an error.
	results, err := ctx.Execute("never-ran")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 1 || !results[0].Value.IsNil() {
		t.Error("expected `never-ran` to be unbound since CompileOnly must not execute the set!")
	}
}

func TestCompileOnlySurfacesCompileErrors(t *testing.T) {
	ctx, err := quillctx.New(quillctx.SkipStdlib())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	if err := ctx.CompileOnly("(if 1)"); err == nil {
		t.Error("expected a compile error for a malformed if")
	}
}

func TestCompileOnlyIsIndependentPerCall(t *testing.T) {
	ctx, err := quillctx.New(quillctx.SkipStdlib())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	// A full-document resend, as an editor does under TextDocumentSyncKindFull:
	// each call must be judged on its own, not appended to a running stream.
	if err := ctx.CompileOnly("(+ 1 2)"); err != nil {
		t.Fatalf("first CompileOnly: %v", err)
	}
	if err := ctx.CompileOnly("(+ 1 2)"); err != nil {
		t.Fatalf("second CompileOnly: %v", err)
	}
}

func TestHandlesAndDisassemble(t *testing.T) {
	ctx, err := quillctx.New(quillctx.SkipStdlib())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	if _, err := ctx.Execute("42"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	handles := ctx.Handles()
	if len(handles) == 0 {
		t.Fatal("expected at least one live handle")
	}
	out, err := ctx.Disassemble(handles[len(handles)-1])
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if out == "" {
		t.Error("expected non-empty disassembly")
	}
}
