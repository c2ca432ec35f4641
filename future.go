package dispatch

import (
	"context"
	"sync"
)

// Future settles exactly once with the event of a single dispatch.
// Create one via [Dispatcher.Next].
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	ev   Event[T]
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// settle records the event and releases waiters. Later calls are no-ops.
func (f *Future[T]) settle(ev Event[T]) {
	f.once.Do(func() {
		f.ev = ev
		close(f.done)
	})
}

// Done returns a channel that is closed once the future has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future settles or ctx is cancelled.
func (f *Future[T]) Wait(ctx context.Context) (Event[T], error) {
	select {
	case <-f.done:
		return f.ev, nil
	case <-ctx.Done():
		var zero Event[T]
		return zero, ctx.Err()
	}
}
