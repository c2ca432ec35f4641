package dispatch

import (
	"context"

	"github.com/google/uuid"
)

// Handler processes a dispatched event.
// A non-nil error return is treated as a callback failure and routed to the
// dispatcher's diagnostic sink; it is never surfaced to Dispatch's caller.
type Handler[T any] interface {
	Handle(ctx context.Context, ev Event[T]) error
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc[T any] func(ctx context.Context, ev Event[T]) error

// Handle implements the Handler interface.
func (f HandlerFunc[T]) Handle(ctx context.Context, ev Event[T]) error {
	return f(ctx, ev)
}

// Handle is the unit of registration. Registry membership is keyed on the
// *Handle pointer, so the same handle registered twice occupies one slot and
// two handles wrapping the same function occupy two.
type Handle[T any] struct {
	id      string
	handler Handler[T]
}

// NewHandle wraps a handler in a fresh, identity-comparable handle.
func NewHandle[T any](h Handler[T]) *Handle[T] {
	return &Handle[T]{
		id:      uuid.NewString(),
		handler: h,
	}
}

// NewHandleFunc wraps a function in a fresh handle.
func NewHandleFunc[T any](fn HandlerFunc[T]) *Handle[T] {
	return NewHandle[T](fn)
}

// ID returns the handle's unique identifier, used in diagnostic output.
func (h *Handle[T]) ID() string {
	return h.id
}
