package dispatch

import "fmt"

// PanicError wraps a value recovered from a panicking handler together with
// the goroutine stack captured at the point of the panic. It appears only in
// diagnostic output; panics never propagate out of a dispatch.
type PanicError struct {
	// Value is the original value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic: %v", e.Value)
}
