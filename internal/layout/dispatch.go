package layout

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zjrosen/relayout/internal/device"
	"github.com/zjrosen/relayout/internal/log"
	"github.com/zjrosen/relayout/internal/tracing"
)

// Cycle describes one DoLayout call.
type Cycle struct {
	ID                 string
	Device             device.Class
	BrowserOrientation Orientation
	// Slot is the slot whose strategy ran.
	Slot Slot
	// Fallback is true when a PC in landscape used the blueprint fallback.
	Fallback bool
	// Space is the width and height handed to the strategy.
	Space   Size
	Browser Size
	Before  Size
	After   Size
	Changed bool
	Err     *InvocationError
}

// DoLayout runs one dispatch cycle: measure, pick and run the strategy,
// re-measure and notify listeners if the layout box moved. The zero Delivery
// (Deferred) posts the notification to the scheduler.
func (e *Engine) DoLayout(mode Delivery) *Engine {
	cycle := Cycle{ID: uuid.NewString()}

	ctx, span := e.tracer.Start(context.Background(), tracing.SpanDispatch)
	defer span.End()

	cycle.Before = e.layoutSize()
	cycle.Device = e.device.Classify().Class()
	cycle.Browser = e.browserSize()
	cycle.BrowserOrientation = OrientationOf(cycle.Browser)

	e.dispatch(ctx, &cycle)

	cycle.After = e.layoutSize()
	cycle.Changed = Changed(cycle.Before, cycle.After)
	e.last = cycle

	if cycle.Err != nil {
		span.SetStatus(codes.Error, cycle.Err.Error())
	}
	span.SetAttributes(
		attribute.String(tracing.AttrCycleID, cycle.ID),
		attribute.String(tracing.AttrDevice, cycle.Device.String()),
		attribute.String(tracing.AttrBrowserOrientation, cycle.BrowserOrientation.String()),
		attribute.String(tracing.AttrSlot, cycle.Slot.String()),
		attribute.Bool(tracing.AttrFallback, cycle.Fallback),
		attribute.Bool(tracing.AttrChanged, cycle.Changed),
		attribute.Float64(tracing.AttrBrowserWidth, cycle.Browser.Width),
		attribute.Float64(tracing.AttrBrowserHeight, cycle.Browser.Height),
		attribute.Float64(tracing.AttrLayoutWidth, cycle.After.Width),
		attribute.Float64(tracing.AttrLayoutHeight, cycle.After.Height),
		attribute.String(tracing.AttrDelivery, mode.String()),
	)
	log.Debug(log.CatLayout, "dispatch",
		"cycle", cycle.ID,
		"device", cycle.Device,
		"orientation", cycle.BrowserOrientation,
		"slot", cycle.Slot,
		"fallback", cycle.Fallback,
		"space", cycle.Space,
		"before", cycle.Before,
		"after", cycle.After)

	if !cycle.Changed {
		return e
	}

	e.notify(ctx, cycle.ID, Change{
		LayoutWidth:   cycle.After.Width,
		LayoutHeight:  cycle.After.Height,
		BrowserWidth:  cycle.Browser.Width,
		BrowserHeight: cycle.Browser.Height,
	}, mode)
	return e
}

// dispatch selects the slot for the cycle's device and browser orientation and
// runs its strategy against the container.
func (e *Engine) dispatch(ctx context.Context, c *Cycle) {
	slot := Slot{Device: c.Device, Orientation: c.BrowserOrientation}
	space := c.Browser

	if slot == PCLandscape && !e.HasCustomPCLandscape() {
		// Lay a phone-shaped blueprint out inside the wide screen.
		slot = MobilePortrait
		space = Size{Width: c.Browser.Height * e.expectedRatio, Height: c.Browser.Height}
		c.Fallback = true
	}

	c.Slot = slot
	c.Space = space

	fn, ok := e.lookup(slot)
	if !ok {
		log.Warn(log.CatLayout, "no strategy for slot", "cycle", c.ID, "slot", slot)
		return
	}
	c.Err = e.callStrategy(ctx, c.ID, slot, fn, e.container(), space.Width, space.Height)
}
