package quillctx_test

import (
	"testing"

	"github.com/chazu/quill/pkg/quillctx"
	"github.com/chazu/quill/pkg/value"
)

// TestStdlibCondAndCase exercises lib/stdlib.scm's cond and case macros,
// both of which expand into equal? calls (case additionally through
// member?) that must resolve to a real primitive rather than an unbound
// global.
func TestStdlibCondAndCase(t *testing.T) {
	ctx, err := quillctx.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	results, err := ctx.Execute(`
		(cond (#f 1) (#t 2) (else 3))
		(case 2 ((1) 'one) ((2 3) 'two-or-three) (else 'other))
		(member? 3 (list 1 2 3))
		(member? 9 (list 1 2 3))
	`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d: %+v", len(results), results)
	}
	if results[0].Value != value.Int(2) {
		t.Errorf("cond: got %v, want 2", results[0].Value)
	}
	if got := value.Print(results[1].Value); got != "two-or-three" {
		t.Errorf("case: got %s, want two-or-three", got)
	}
	if results[2].Value != value.True {
		t.Errorf("member? hit: got %v, want #t", results[2].Value)
	}
	if results[3].Value != value.False {
		t.Errorf("member? miss: got %v, want #f", results[3].Value)
	}
}

// TestStdlibDefineRecordType exercises define-record-type end to end: the
// generated constructor, predicate, and accessors all depend on vector,
// vector?, vector-ref, and equal? being real primitives.
func TestStdlibDefineRecordType(t *testing.T) {
	ctx, err := quillctx.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	results, err := ctx.Execute(`
		(define-record-type point (make-point x y) point? (x point-x) (y point-y))
		(define p (make-point 3 4))
		(point? p)
		(point? 5)
		(point-x p)
		(point-y p)
	`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d: %+v", len(results), results)
	}
	if results[2].Value != value.True {
		t.Errorf("point? on a point: got %v, want #t", results[2].Value)
	}
	if results[3].Value != value.False {
		t.Errorf("point? on a non-point: got %v, want #f", results[3].Value)
	}
	if results[4].Value != value.Int(3) {
		t.Errorf("point-x: got %v, want 3", results[4].Value)
	}
	if results[5].Value != value.Int(4) {
		t.Errorf("point-y: got %v, want 4", results[5].Value)
	}
}
