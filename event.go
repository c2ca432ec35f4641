package dispatch

import "sync/atomic"

// Event is the view passed by value to every handler of one dispatch.
// Data and Last are fixed when the dispatch starts; all handlers of the same
// dispatch observe identical values even if a handler fails or dispatches
// again.
type Event[T any] struct {
	// Data is the value passed to Dispatch.
	Data T

	// Last is the dispatcher's previous value, captured once before any
	// handler runs. Before the first dispatch this is the configured
	// initial value.
	Last T

	// stop is the dispatch-local propagation flag, shared by every copy
	// of this event handed out during one dispatch.
	stop *atomic.Bool
}

// StopPropagation prevents handles not yet reached in this dispatch from
// being scheduled. It only has effect while the dispatch's iteration is
// running: calling it from a goroutine after the handler's synchronous body
// returned races the iteration, and calling it after the dispatch completed
// does nothing.
func (e Event[T]) StopPropagation() {
	if e.stop != nil {
		e.stop.Store(true)
	}
}
