package layout

import (
	"context"
	"fmt"
	"reflect"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/relayout/internal/log"
	"github.com/zjrosen/relayout/internal/pubsub"
	"github.com/zjrosen/relayout/internal/tracing"
)

// Listener is notified after a dispatch cycle changed the layout box.
// Listeners are identified by value, so use pointer implementations (or
// ListenerFunc, which returns one) and keep the reference for removal.
type Listener interface {
	LayoutChanged(Change) error
}

type funcListener struct {
	fn func(Change) error
}

func (f *funcListener) LayoutChanged(c Change) error {
	return f.fn(c)
}

// ListenerFunc wraps fn in a new Listener. Every call returns a distinct
// reference.
func ListenerFunc(fn func(Change) error) Listener {
	return &funcListener{fn: fn}
}

// callable reports whether l can be invoked. A ListenerFunc around a nil
// function is kept registered but skipped at notification time.
func callable(l Listener) bool {
	if f, ok := l.(*funcListener); ok {
		return f != nil && f.fn != nil
	}
	return l != nil
}

func listenerName(l Listener) string {
	if f, ok := l.(*funcListener); ok && f != nil {
		return funcName(f.fn)
	}
	return fmt.Sprintf("%T", l)
}

func identifiable(l Listener) bool {
	if l == nil {
		return false
	}
	t := reflect.TypeOf(l)
	if !t.Comparable() {
		return false
	}
	v := reflect.ValueOf(l)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.Interface:
		return !v.IsNil()
	}
	return true
}

// AddLayoutChangeListener appends l unless it is already registered.
func (e *Engine) AddLayoutChangeListener(l Listener) *Engine {
	if !identifiable(l) {
		e.configWarning(ErrInvalidListener, "type", fmt.Sprintf("%T", l))
		return e
	}
	if slices.Contains(e.listeners, l) {
		log.Debug(log.CatLayout, "listener already registered", "listener", listenerName(l))
		return e
	}
	e.listeners = append(e.listeners, l)
	return e
}

// RemoveLayoutChangeListener removes l. Removing an unknown listener is a no-op.
func (e *Engine) RemoveLayoutChangeListener(l Listener) *Engine {
	if !identifiable(l) {
		return e
	}
	if i := slices.Index(e.listeners, l); i >= 0 {
		e.listeners = slices.Delete(e.listeners, i, i+1)
	}
	return e
}

// Listeners returns a copy of the registered listeners in insertion order.
func (e *Engine) Listeners() []Listener {
	return slices.Clone(e.listeners)
}

func (e *Engine) registered(l Listener) bool {
	return slices.Contains(e.listeners, l)
}

// notify delivers change to the current listeners. Deferred delivery snapshots
// membership now and, on its turn, skips anyone removed in the meantime.
// notify delivers change to a snapshot of the listeners. Synchronous delivery
// runs inside the dispatch span; deferred delivery starts a new trace linked
// to it.
func (e *Engine) notify(ctx context.Context, cycleID string, change Change, mode Delivery) {
	members := slices.Clone(e.listeners)
	if mode == Synchronous {
		e.deliver(ctx, cycleID, change, members, mode)
		return
	}
	link := trace.LinkFromContext(ctx)
	e.scheduler.Post(func() {
		e.deliver(context.Background(), cycleID, change, members, mode, trace.WithLinks(link))
	})
}

func (e *Engine) deliver(parent context.Context, cycleID string, change Change, members []Listener, mode Delivery, opts ...trace.SpanStartOption) {
	ctx, span := e.tracer.Start(parent, tracing.SpanNotify, opts...)
	defer span.End()

	delivered, failures := 0, 0
	for _, l := range members {
		if mode == Deferred && !e.registered(l) {
			continue
		}
		if !callable(l) {
			continue
		}
		delivered++
		if err := e.callListener(ctx, cycleID, l, change); err != nil {
			failures++
		}
	}

	span.SetAttributes(
		attribute.String(tracing.AttrCycleID, cycleID),
		attribute.String(tracing.AttrDelivery, mode.String()),
		attribute.Int(tracing.AttrListeners, delivered),
		attribute.Int(tracing.AttrFailures, failures),
	)
	if failures > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d of %d listeners failed", failures, delivered))
	}
	log.Debug(log.CatLayout, "layout changed",
		"cycle", cycleID,
		"layout", Size{change.LayoutWidth, change.LayoutHeight},
		"browser", Size{change.BrowserWidth, change.BrowserHeight},
		"listeners", delivered)
	e.publish(pubsub.LayoutChangedEvent, Event{CycleID: cycleID, Change: change})
}

func (e *Engine) configWarning(err error, fields ...any) {
	log.Warn(log.CatLayout, err.Error(), fields...)
	e.publish(pubsub.ConfigWarningEvent, Event{Err: err})
}
