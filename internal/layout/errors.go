package layout

import (
	"errors"
	"fmt"
)

// Configuration warnings. The engine logs these and carries on; they are never
// returned to callers.
var (
	ErrAlreadyInitialized = errors.New("layout was initialized already")
	ErrNilStrategy        = errors.New("strategy is nil")
	ErrInvalidListener    = errors.New("listener is nil or not comparable")
)

// InvocationError records a strategy or listener that failed during a cycle.
type InvocationError struct {
	// Kind is "strategy" or "listener".
	Kind string
	// Target is the failing function's name.
	Target string
	// Slot is set for strategies.
	Slot string
	// Panicked is true when the failure was a recovered panic.
	Panicked bool
	// Stack holds the goroutine stack for panics.
	Stack []byte
	Err   error
}

func (e *InvocationError) Error() string {
	if e.Slot != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Kind, e.Target, e.Slot, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Target, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
