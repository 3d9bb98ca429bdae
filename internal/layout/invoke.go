package layout

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/relayout/internal/host"
	"github.com/zjrosen/relayout/internal/log"
	"github.com/zjrosen/relayout/internal/pubsub"
	"github.com/zjrosen/relayout/internal/tracing"
)

// callStrategy runs fn against the container and converts errors and panics
// into a logged *InvocationError.
func (e *Engine) callStrategy(ctx context.Context, cycleID string, slot Slot, fn Strategy, container host.Element, width, height float64) (err *InvocationError) {
	defer func() {
		if r := recover(); r != nil {
			err = &InvocationError{
				Kind:     "strategy",
				Target:   funcName(fn),
				Slot:     slot.String(),
				Panicked: true,
				Stack:    debug.Stack(),
				Err:      fmt.Errorf("panic: %v", r),
			}
		}
		if err != nil {
			e.reportFailure(ctx, cycleID, tracing.EventStrategyFailed, err)
		}
	}()

	if callErr := fn(container, width, height); callErr != nil {
		err = &InvocationError{
			Kind:   "strategy",
			Target: funcName(fn),
			Slot:   slot.String(),
			Err:    callErr,
		}
	}
	return err
}

// callListener delivers one change to one listener.
func (e *Engine) callListener(ctx context.Context, cycleID string, l Listener, change Change) (err *InvocationError) {
	defer func() {
		if r := recover(); r != nil {
			err = &InvocationError{
				Kind:     "listener",
				Target:   listenerName(l),
				Panicked: true,
				Stack:    debug.Stack(),
				Err:      fmt.Errorf("panic: %v", r),
			}
		}
		if err != nil {
			e.reportFailure(ctx, cycleID, tracing.EventListenerFailed, err)
		}
	}()

	if callErr := l.LayoutChanged(change); callErr != nil {
		err = &InvocationError{
			Kind:   "listener",
			Target: listenerName(l),
			Err:    callErr,
		}
	}
	return err
}

func (e *Engine) reportFailure(ctx context.Context, cycleID, event string, err *InvocationError) {
	fields := []any{"cycle", cycleID, "kind", err.Kind, "target", err.Target}
	if err.Slot != "" {
		fields = append(fields, "slot", err.Slot)
	}
	if err.Panicked {
		fields = append(fields, "stack", string(err.Stack))
	}
	log.ErrorErr(log.CatLayout, "error while executing function", err.Err, fields...)

	trace.SpanFromContext(ctx).AddEvent(event, trace.WithAttributes(
		attribute.String("target", err.Target),
		attribute.String("error", err.Err.Error()),
	))
	e.publish(pubsub.InvocationFailedEvent, Event{CycleID: cycleID, Err: err})
}
