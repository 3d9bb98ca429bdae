// Package pubsub fans engine and log events out to observers that live outside
// the dispatch loop, such as the terminal host's status bar.
//
// Publishing never blocks. Each event carries a per-broker sequence number, so a
// subscriber that fell behind can tell how many events it missed.
package pubsub

import (
	"context"
	"time"
)

// EventType names what happened.
type EventType string

const (
	// LogEntryEvent carries one formatted log entry.
	LogEntryEvent EventType = "log.entry"

	// LayoutChangedEvent is published after a dispatch cycle that changed the layout box.
	LayoutChangedEvent EventType = "layout.changed"

	// ResizeSuppressedEvent is published when a resolution change was filtered out.
	ResizeSuppressedEvent EventType = "resize.suppressed"

	// InvocationFailedEvent is published when a strategy or listener failed.
	InvocationFailedEvent EventType = "invocation.failed"

	// ConfigWarningEvent is published for ignored configuration input.
	ConfigWarningEvent EventType = "config.warning"
)

// Event is a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Seq       uint64
	Timestamp time.Time
}

// Missed returns how many events were published between prev and e.
// It is zero when e directly follows prev.
func (e Event[T]) Missed(prev Event[T]) uint64 {
	if e.Seq <= prev.Seq {
		return 0
	}
	return e.Seq - prev.Seq - 1
}

// Subscriber hands out event channels. An empty type list subscribes to everything.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context, types ...EventType) <-chan Event[T]
}

// Publisher publishes events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
