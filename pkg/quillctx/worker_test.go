package quillctx_test

import (
	"testing"

	"github.com/chazu/quill/pkg/quillctx"
	"github.com/chazu/quill/pkg/value"
)

func TestWorkerDoRunsOnContext(t *testing.T) {
	ctx, err := quillctx.New(quillctx.SkipStdlib())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	w := quillctx.NewWorker(ctx)
	defer w.Stop()

	result, err := w.Do(func(c *quillctx.Context) any {
		results, err := c.Execute("(+ 1 2)")
		if err != nil {
			return err.Error()
		}
		return results[0].Value
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if result != value.Int(3) {
		t.Errorf("got %v, want 3", result)
	}
}

func TestWorkerDoSurfacesPanicAsError(t *testing.T) {
	ctx, err := quillctx.New(quillctx.SkipStdlib())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	w := quillctx.NewWorker(ctx)
	defer w.Stop()

	_, err = w.Do(func(c *quillctx.Context) any {
		panic("boom")
	})
	if err == nil {
		t.Error("expected a panic inside Do to surface as an error")
	}
}

func TestWorkerSerializesConcurrentCallers(t *testing.T) {
	ctx, err := quillctx.New(quillctx.SkipStdlib())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Close()

	w := quillctx.NewWorker(ctx)
	defer w.Stop()

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			innerErr, err := w.Do(func(c *quillctx.Context) any {
				_, execErr := c.Execute("(+ 1 1)")
				return execErr
			})
			if err != nil {
				done <- err
				return
			}
			if innerErr != nil {
				done <- innerErr.(error)
				return
			}
			done <- nil
		}()
	}
	for i := 0; i < 8; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent Do call failed: %v", err)
		}
	}
}
