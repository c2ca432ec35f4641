package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Dispatcher is a single in-process event channel. The zero value is not
// usable; create instances with New.
type Dispatcher[T any] struct {
	registry *registry[T]
	logger   *zap.Logger

	mu   sync.Mutex
	last T

	// Stats
	dispatches  atomic.Uint64
	executed    atomic.Uint64
	failed      atomic.Uint64
	panicked    atomic.Uint64
	tasks       atomic.Uint64
	totalTimeNs atomic.Int64
}

// New creates a dispatcher with the given options.
func New[T any](opts ...Option[T]) *Dispatcher[T] {
	cfg := defaultConfig[T]()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Dispatcher[T]{
		registry: newRegistry[T](),
		logger:   cfg.logger,
		last:     cfg.initial,
	}
}

// On registers a handle. Registering an already-registered handle is a no-op
// that keeps its original position. Returns the dispatcher for chaining.
func (d *Dispatcher[T]) On(h *Handle[T]) *Dispatcher[T] {
	if h == nil || h.handler == nil {
		return d
	}
	d.registry.add(h)
	return d
}

// OnFunc wraps fn in a fresh handle, registers it, and returns the handle so
// the caller can Off it later.
func (d *Dispatcher[T]) OnFunc(fn HandlerFunc[T]) *Handle[T] {
	h := NewHandleFunc[T](fn)
	d.On(h)
	return h
}

// Once registers a generated wrapper around h that removes itself from the
// registry after its first invocation. The wrapper occupies its own registry
// slot, distinct from any direct registration of h. Returns the dispatcher
// for chaining.
//
// The wrapper deregisters itself when h's synchronous body returns, whether
// it succeeded, returned an error, or panicked. Work h hands off to other
// goroutines does not delay the removal.
func (d *Dispatcher[T]) Once(h *Handle[T]) *Dispatcher[T] {
	d.once(h)
	return d
}

// OnceFunc wraps fn in a fresh handle and registers it for a single
// invocation. It returns the self-removing wrapper handle, which can be
// passed to Off to cancel the registration before it fires.
func (d *Dispatcher[T]) OnceFunc(fn HandlerFunc[T]) *Handle[T] {
	return d.once(NewHandleFunc[T](fn))
}

func (d *Dispatcher[T]) once(h *Handle[T]) *Handle[T] {
	if h == nil || h.handler == nil {
		return nil
	}

	var wrapper *Handle[T]
	wrapper = NewHandleFunc[T](func(ctx context.Context, ev Event[T]) error {
		defer d.registry.remove(wrapper)
		return h.handler.Handle(ctx, ev)
	})

	d.registry.add(wrapper)
	return wrapper
}

// Off removes a handle. Removing an absent handle is a no-op. Returns the
// dispatcher for chaining. A removal during a dispatch only affects handles
// the iteration has not yet reached; it never aborts an in-flight invocation.
func (d *Dispatcher[T]) Off(h *Handle[T]) *Dispatcher[T] {
	if h != nil {
		d.registry.remove(h)
	}
	return d
}

// Clear removes all handles. Returns the dispatcher for chaining.
func (d *Dispatcher[T]) Clear() *Dispatcher[T] {
	d.registry.clear()
	return d
}

// Dispatch updates the dispatcher's last value and notifies the registered
// handles in registration order.
//
// The previous value is captured and replaced before any handler runs, so
// every handler of this dispatch observes the same Last regardless of
// failures or reentrant dispatches. Each handler's synchronous body runs
// inline; after it returns the engine checks the propagation flag and stops
// scheduling further handles if it was set. Handler failures are logged and
// never propagate to the caller.
func (d *Dispatcher[T]) Dispatch(ctx context.Context, data T) {
	d.mu.Lock()
	prev := d.last
	d.last = data
	d.mu.Unlock()

	d.dispatches.Add(1)

	var stopped atomic.Bool
	ev := Event[T]{Data: data, Last: prev, stop: &stopped}

	d.registry.beginIter()
	defer d.registry.endIter()

	for i := 0; ; i++ {
		h, ok := d.registry.slot(i)
		if !ok {
			break
		}
		if h == nil {
			// Removed before being reached.
			continue
		}

		d.afterInvoke(h, execute(ctx, h.handler, ev))

		if stopped.Load() {
			break
		}
	}
}

// Go runs fn on its own goroutine with the same isolation as a handler
// invocation: a returned error or recovered panic is routed to the
// diagnostic sink and never reaches the spawner. Handlers use it to continue
// work past their synchronous body without blocking the dispatch.
func (d *Dispatcher[T]) Go(ctx context.Context, fn func(context.Context) error) {
	if fn == nil {
		return
	}
	d.tasks.Add(1)

	go func() {
		res := run(func() error {
			return fn(ctx)
		})
		d.report("task", res)
	}()
}

// Next returns a future that settles with the event of the next dispatch.
//
// The listener backing the future is a plain registration that is never
// removed automatically: dispatches after the future has settled still reach
// it (each a harmless no-op), and it occupies a registry slot for the
// dispatcher's lifetime. Callers bridging many dispatches should prefer On
// over repeated Next calls.
func (d *Dispatcher[T]) Next() *Future[T] {
	f := newFuture[T]()
	d.OnFunc(func(_ context.Context, ev Event[T]) error {
		f.settle(ev)
		return nil
	})
	return f
}

// Last returns the most recently dispatched value, or the configured initial
// value if nothing has been dispatched yet.
func (d *Dispatcher[T]) Last() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Handles returns the registered handles in registration order. The slice is
// a snapshot for introspection; mutating it does not affect the dispatcher.
func (d *Dispatcher[T]) Handles() []*Handle[T] {
	return d.registry.handles()
}

// Len returns the number of registered handles.
func (d *Dispatcher[T]) Len() int {
	return d.registry.size()
}

// afterInvoke feeds one handler invocation outcome into the stats and the
// diagnostic sink.
func (d *Dispatcher[T]) afterInvoke(h *Handle[T], res Result) {
	d.executed.Add(1)
	d.totalTimeNs.Add(res.Duration.Nanoseconds())
	d.report(h.ID(), res)
}

// report logs a failed invocation. Successful results are ignored.
func (d *Dispatcher[T]) report(id string, res Result) {
	switch {
	case res.Panicked:
		d.panicked.Add(1)
		perr := &PanicError{Value: res.PanicValue, Stack: string(res.PanicStack)}
		d.logger.Error("handler panic",
			zap.String("handle", id),
			zap.Error(perr),
			zap.String("stack", perr.Stack),
		)
	case res.Error != nil:
		d.failed.Add(1)
		d.logger.Error("handler error",
			zap.String("handle", id),
			zap.Error(res.Error),
		)
	}
}

// Stats contains dispatcher statistics.
type Stats struct {
	// Dispatches is the total number of Dispatch calls.
	Dispatches uint64

	// HandlersExecuted is the total number of handler invocations.
	HandlersExecuted uint64

	// HandlerErrors counts invocations and Go tasks that returned errors.
	HandlerErrors uint64

	// HandlerPanics counts invocations and Go tasks that panicked.
	HandlerPanics uint64

	// Tasks is the number of goroutines started via Go.
	Tasks uint64

	// TotalHandlerTime is the cumulative time spent in handler bodies.
	TotalHandlerTime time.Duration

	// AvgHandlerTime is the average handler body execution time.
	AvgHandlerTime time.Duration
}

// Stats returns current dispatcher statistics.
// Values may be slightly inconsistent if read while dispatches are running.
func (d *Dispatcher[T]) Stats() Stats {
	executed := d.executed.Load()
	totalNs := d.totalTimeNs.Load()

	var avgNs int64
	if executed > 0 {
		avgNs = totalNs / int64(executed)
	}

	return Stats{
		Dispatches:       d.dispatches.Load(),
		HandlersExecuted: executed,
		HandlerErrors:    d.failed.Load(),
		HandlerPanics:    d.panicked.Load(),
		Tasks:            d.tasks.Load(),
		TotalHandlerTime: time.Duration(totalNs),
		AvgHandlerTime:   time.Duration(avgNs),
	}
}
