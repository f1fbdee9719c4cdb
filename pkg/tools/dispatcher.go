package tools

import "context"

// ToolFunc defines a function executed asynchronously.
type ToolFunc func(ctx context.Context) error

// Handle joins a dispatched task. Callers normally observe progress
// through the record store; the handle exists for shutdown and tests.
type Handle struct {
	name string
	done chan struct{}
	err  error
}

// Wait blocks until the task returns and reports its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Done is closed when the task has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Name identifies the task for logging.
func (h *Handle) Name() string { return h.name }

// Dispatch runs the provided tool in a separate goroutine and returns
// a handle to join it.
func Dispatch(ctx context.Context, name string, fn ToolFunc) *Handle {
	h := &Handle{name: name, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		h.err = fn(ctx)
	}()
	return h
}
