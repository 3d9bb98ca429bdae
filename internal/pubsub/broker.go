package pubsub

import (
	"context"
	"slices"
	"sync"
	"time"
)

// DefaultBufferSize is the per-subscriber channel capacity.
const DefaultBufferSize = 64

// Option configures a Broker.
type Option func(*brokerOptions)

type brokerOptions struct {
	buffer int
	now    func() time.Time
}

// WithBuffer sets the per-subscriber channel capacity. Values below one are ignored.
func WithBuffer(n int) Option {
	return func(o *brokerOptions) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// WithClock sets the source of event timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *brokerOptions) {
		if now != nil {
			o.now = now
		}
	}
}

type subscription[T any] struct {
	ch      chan Event[T]
	types   []EventType
	dropped uint64
}

func (s *subscription[T]) wants(t EventType) bool {
	return len(s.types) == 0 || slices.Contains(s.types, t)
}

// Broker delivers events to its subscribers in publish order. A subscriber
// whose buffer is full misses the event; the publisher never waits. The layout
// engine publishes from its dispatch path, so a slow observer cannot stall a
// cycle.
type Broker[T any] struct {
	mu     sync.Mutex
	opts   brokerOptions
	subs   []*subscription[T]
	seq    uint64
	closed bool
}

// NewBroker creates a broker.
func NewBroker[T any](opts ...Option) *Broker[T] {
	o := brokerOptions{buffer: DefaultBufferSize, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Broker[T]{opts: o}
}

// Subscribe returns a channel receiving the events of the given types, or every
// event when no type is named. The channel closes when ctx is done or the
// broker is closed.
func (b *Broker[T]) Subscribe(ctx context.Context, types ...EventType) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Event[T])
		close(ch)
		return ch
	}

	sub := &subscription[T]{
		ch:    make(chan Event[T], b.opts.buffer),
		types: slices.Clone(types),
	}
	b.subs = append(b.subs, sub)
	context.AfterFunc(ctx, func() { b.unsubscribe(sub) })
	return sub.ch
}

func (b *Broker[T]) unsubscribe(sub *subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.Index(b.subs, sub)
	if i < 0 {
		return
	}
	b.subs = slices.Delete(b.subs, i, i+1)
	close(sub.ch)
}

// Publish stamps and delivers an event. It is a no-op after Close.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.seq++
	ev := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Seq:       b.seq,
		Timestamp: b.opts.now(),
	}
	for _, sub := range b.subs {
		if !sub.wants(eventType) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			sub.dropped++
		}
	}
}

// Close closes every subscriber channel. Later subscriptions get a closed channel.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		close(sub.ch)
	}
	b.subs = nil
}

// SubscriberCount returns the number of live subscriptions.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Published returns the sequence number of the last published event.
func (b *Broker[T]) Published() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

// Dropped returns how many deliveries live subscribers have missed.
func (b *Broker[T]) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	var n uint64
	for _, sub := range b.subs {
		n += sub.dropped
	}
	return n
}
