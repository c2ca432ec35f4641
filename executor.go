package dispatch

import (
	"context"
	"runtime/debug"
	"time"
)

// Result describes the outcome of a single isolated invocation.
type Result struct {
	// Success is true if the invocation completed without error or panic.
	Success bool

	// Error is the error returned by the handler, if any.
	Error error

	// Panicked is true if the invocation panicked.
	Panicked bool

	// PanicValue is the value passed to panic().
	PanicValue any

	// PanicStack is the stack trace captured at the point of the panic.
	PanicStack []byte

	// Duration is how long the synchronous body ran.
	Duration time.Duration
}

// IsSuccess returns true if the invocation completed normally.
func (r Result) IsSuccess() bool {
	return r.Success
}

// run executes fn with panic recovery and timing. Recovery happens at this
// boundary so one failing invocation can never affect its siblings or the
// caller of Dispatch.
func run(fn func() error) (result Result) {
	start := time.Now()

	defer func() {
		result.Duration = time.Since(start)

		if r := recover(); r != nil {
			result.Success = false
			result.Panicked = true
			result.PanicValue = r
			result.PanicStack = debug.Stack()
		}
	}()

	if err := fn(); err != nil {
		result.Error = err
		return result
	}

	result.Success = true
	return result
}

// execute runs one handler invocation in isolation.
func execute[T any](ctx context.Context, h Handler[T], ev Event[T]) Result {
	return run(func() error {
		return h.Handle(ctx, ev)
	})
}
