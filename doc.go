// Package dispatch provides a minimal in-process event dispatcher.
//
// A Dispatcher is a single event channel: callers register handles against it,
// and Dispatch notifies every registered handle with the new value and the
// previously dispatched value. There is no topic routing, no queueing, and no
// cross-process delivery - one dispatcher, one channel.
//
// # Model
//
// Three pieces cooperate:
//
//   - Handle: an identity-comparable registration unit wrapping a handler.
//     Registering the same handle twice is a no-op; Off removes by identity.
//   - Registry: an ordered, duplicate-free set of handles. Dispatch iterates
//     the live registry, not a snapshot, so handles added or removed by a
//     running handler are honored mid-dispatch.
//   - Event: the per-dispatch view {Data, Last} plus a StopPropagation
//     capability shared by all handlers of that one dispatch.
//
// # Delivery
//
// Dispatch invokes each handler's synchronous body inline, in registration
// order, and checks the stop flag after each call returns. A handler that
// calls StopPropagation before returning therefore prevents every later
// handle from running in that dispatch. Work a handler starts on another
// goroutine (see [Dispatcher.Go]) is never joined by the engine; a
// StopPropagation issued from such a continuation races the iteration and
// usually loses. That race is intentional: propagation stops are only
// honored from handlers that act before yielding control.
//
// # Error isolation
//
// Each invocation is isolated. A returned error or a recovered panic is
// routed to the diagnostic sink (a zap logger, silent by default) together
// with the handle ID and, for panics, the stack trace. Failures never reach
// Dispatch's caller and never prevent sibling handlers from running.
//
// # Basic usage
//
//	d := dispatch.New(dispatch.WithInitial(0))
//
//	d.OnFunc(func(ctx context.Context, ev dispatch.Event[int]) error {
//	    fmt.Printf("changed %d -> %d\n", ev.Last, ev.Data)
//	    return nil
//	})
//
//	d.Dispatch(context.Background(), 42)
//
// One-shot registration and future bridging:
//
//	d.OnceFunc(handler)          // removed after its first run
//	f := d.Next()                // settles with the next dispatch's event
//	ev, err := f.Wait(ctx)
//
// # Thread safety
//
// All methods are safe for concurrent use. Within one dispatch, handlers are
// scheduled strictly in registration order; completion order of their spawned
// continuations is unconstrained.
package dispatch
