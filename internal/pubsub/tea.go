package pubsub

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// TeaListener feeds a subscription into a Bubble Tea update loop, one event per
// command. Re-issue Next after handling each event to keep receiving.
type TeaListener[T any] struct {
	ctx  context.Context
	ch   <-chan Event[T]
	last Event[T]
}

// NewTeaListener subscribes to src for the given event types.
func NewTeaListener[T any](ctx context.Context, src Subscriber[T], types ...EventType) *TeaListener[T] {
	return &TeaListener[T]{ctx: ctx, ch: src.Subscribe(ctx, types...)}
}

// Next returns a command that waits for the next event. The command yields nil
// once ctx is done or the subscription is closed, which ends the chain.
func (l *TeaListener[T]) Next() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-l.ctx.Done():
			return nil
		case ev, ok := <-l.ch:
			if !ok {
				return nil
			}
			return ev
		}
	}
}

// Seen records ev as handled and returns how many events were missed since the
// previously seen one.
func (l *TeaListener[T]) Seen(ev Event[T]) uint64 {
	missed := uint64(0)
	if l.last.Seq != 0 {
		missed = ev.Missed(l.last)
	}
	l.last = ev
	return missed
}
