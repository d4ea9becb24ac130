package quillctx

import "fmt"

// request is one unit of work to run on the Context's owning goroutine.
type request struct {
	fn   func(*Context) any
	done chan result
}

type result struct {
	value any
	err   error
}

// Worker serializes every access to one Context through a single
// goroutine, grounded on the teacher's server.VMWorker
// (chazu-maggie/server/vm_worker.go): a Context is single-threaded
// (spec.md §5), so any caller that isn't already confined to one
// goroutine — an LSP handler dispatched per-request, for instance — must
// funnel its calls through Do instead of touching the Context directly.
type Worker struct {
	ctx      *Context
	requests chan request
	quit     chan struct{}
}

// NewWorker creates a Worker over ctx and starts its processing
// goroutine.
func NewWorker(ctx *Context) *Worker {
	w := &Worker{
		ctx:      ctx,
		requests: make(chan request, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

func (w *Worker) execute(fn func(*Context) any) result {
	var r result
	func() {
		defer func() {
			if p := recover(); p != nil {
				r.err = fmt.Errorf("%v", p)
			}
		}()
		r.value = fn(w.ctx)
	}()
	return r
}

// Do submits fn for execution on the Context's goroutine and blocks
// until it completes.
func (w *Worker) Do(fn func(*Context) any) (any, error) {
	req := request{fn: fn, done: make(chan result, 1)}
	w.requests <- req
	r := <-req.done
	return r.value, r.err
}

// Stop shuts down the worker goroutine. The wrapped Context is not
// closed; callers that opened it (or its Cache) remain responsible for
// that.
func (w *Worker) Stop() {
	close(w.quit)
}
