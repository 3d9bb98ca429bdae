package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"pgregory.net/rapid"

	"github.com/zjrosen/relayout/internal/device"
	"github.com/zjrosen/relayout/internal/host"
	"github.com/zjrosen/relayout/internal/host/memhost"
	"github.com/zjrosen/relayout/internal/pubsub"
	"github.com/zjrosen/relayout/internal/taskqueue"
	"github.com/zjrosen/relayout/internal/tracing"
)

// sizer records the space it was handed and applies a fixed delta.
type sizer struct {
	calls  int
	w, h   float64
	dw, dh float64
}

func (s *sizer) strategy(c host.Element, w, h float64) error {
	s.calls++
	s.w, s.h = w, h
	c.SetSize(w+s.dw, h+s.dh)
	return nil
}

func TestDoLayout_SelectsSlotByDeviceAndOrientation(t *testing.T) {
	tests := []struct {
		name  string
		class device.Class
		w, h  float64
		want  Slot
	}{
		{"mobile portrait", device.Mobile, 400, 800, MobilePortrait},
		{"mobile landscape", device.Mobile, 800, 400, MobileLandscape},
		{"tablet portrait", device.Tablet, 768, 1024, TabletPortrait},
		{"tablet landscape", device.Tablet, 1024, 768, TabletLandscape},
		{"pc portrait", device.PC, 800, 1200, PCPortrait},
		{"square is portrait", device.Tablet, 900, 900, TabletPortrait},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, memhost.New(tt.w, tt.h), tt.class)
			s := &sizer{}
			e.Init(WithAutoRelayout(false), WithStrategy(tt.want, s.strategy))

			e.DoLayout(Synchronous)

			require.Equal(t, 1, s.calls)
			require.Equal(t, tt.w, s.w)
			require.Equal(t, tt.h, s.h)
			require.Equal(t, tt.want, e.LastCycle().Slot)
			require.False(t, e.LastCycle().Fallback)
		})
	}
}

func TestDoLayout_PCLandscapeFallsBackToBlueprint(t *testing.T) {
	page := memhost.New(1000, 800)
	e, _ := newTestEngine(t, page, device.PC)
	e.SetExpectedWidthHeightRatio(0.5).Init(WithAutoRelayout(false))
	rec := &recorder{}
	e.AddLayoutChangeListener(rec)

	e.DoLayout(Synchronous)

	body := page.Container()
	require.Equal(t, 400.0, body.Width)
	require.Equal(t, 800.0, body.Height)

	cycle := e.LastCycle()
	require.True(t, cycle.Fallback)
	require.Equal(t, MobilePortrait, cycle.Slot)
	require.Equal(t, Size{400, 800}, cycle.Space)
	require.Equal(t, []Change{{LayoutWidth: 400, LayoutHeight: 800, BrowserWidth: 1000, BrowserHeight: 800}}, rec.got)
}

func TestDoLayout_FallbackRunsConfiguredMobilePortrait(t *testing.T) {
	e, _ := newTestEngine(t, memhost.New(1200, 600), device.PC)
	s := &sizer{}
	e.Init(WithAutoRelayout(false), WithStrategy(MobilePortrait, s.strategy))

	e.DoLayout(Synchronous)

	require.Equal(t, 1, s.calls)
	require.InDelta(t, 600*DefaultExpectedRatio, s.w, 1e-9)
	require.Equal(t, 600.0, s.h)
}

func TestDoLayout_CustomPCLandscapeGetsFullViewport(t *testing.T) {
	e, _ := newTestEngine(t, memhost.New(1000, 800), device.PC)
	s := &sizer{}
	e.Init(WithAutoRelayout(false), WithStrategy(PCLandscape, s.strategy))
	require.True(t, e.HasCustomPCLandscape())

	e.DoLayout(Synchronous)

	require.Equal(t, 1, s.calls)
	require.Equal(t, 1000.0, s.w)
	require.Equal(t, 800.0, s.h)
	require.False(t, e.LastCycle().Fallback)
	require.Equal(t, PCLandscape, e.LastCycle().Slot)
}

func TestDoLayout_ChangeThreshold(t *testing.T) {
	tests := []struct {
		name   string
		dw, dh float64
		want   bool
	}{
		{"unchanged", 0, 0, false},
		{"sub-threshold width", 0.05, 0, false},
		{"sub-threshold both", 0.09, -0.09, false},
		{"threshold width", 0.1, 0, true},
		{"threshold height", 0, -0.1, true},
		{"large", 25, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, memhost.New(400, 800), device.Mobile)
			s := &sizer{dw: tt.dw, dh: tt.dh}
			e.Init(WithAutoRelayout(false), WithStrategy(MobilePortrait, s.strategy))
			rec := &recorder{}
			e.AddLayoutChangeListener(rec)

			e.DoLayout(Synchronous)

			require.Equal(t, tt.want, e.LastCycle().Changed)
			if tt.want {
				require.Len(t, rec.got, 1)
			} else {
				require.Empty(t, rec.got)
			}
		})
	}
}

func TestDoLayout_DeferredWaitsForNextTurn(t *testing.T) {
	page := memhost.New(400, 800)
	page.MarkContainer(memhost.NewElement("app", 100, 100))
	e, q := newTestEngine(t, page, device.Mobile)
	e.Init(WithAutoRelayout(false))
	rec := &recorder{}
	e.AddLayoutChangeListener(rec)

	e.DoLayout(Deferred)
	require.Empty(t, rec.got, "nothing delivered before the turn")
	require.Equal(t, 1, q.Len())

	q.Drain()
	require.Len(t, rec.got, 1)
	require.Equal(t, 400.0, rec.got[0].LayoutWidth)
}

func TestDoLayout_StrategyFailureIsContained(t *testing.T) {
	tests := []struct {
		name     string
		fn       Strategy
		panicked bool
	}{
		{"error", func(host.Element, float64, float64) error { return errors.New("boom") }, false},
		{"panic", func(host.Element, float64, float64) error { panic("boom") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestEngine(t, memhost.New(400, 800), device.Mobile)
			events := subscribe(t, e)
			e.Init(WithAutoRelayout(false), WithStrategy(MobilePortrait, tt.fn))

			require.NotPanics(t, func() { e.DoLayout(Synchronous) })

			cycle := e.LastCycle()
			require.NotNil(t, cycle.Err)
			require.Equal(t, "strategy", cycle.Err.Kind)
			require.Equal(t, "mobile/portrait", cycle.Err.Slot)
			require.Equal(t, tt.panicked, cycle.Err.Panicked)
			require.Equal(t, tt.panicked, len(cycle.Err.Stack) > 0)
			require.Contains(t, cycle.Err.Error(), "boom")

			ev := expectEvent(t, events, pubsub.InvocationFailedEvent)
			require.Equal(t, cycle.ID, ev.CycleID)
		})
	}
}

func TestDoLayout_CycleIDsAreUnique(t *testing.T) {
	e, _ := newTestEngine(t, memhost.New(400, 800), device.Mobile)
	e.Init(WithAutoRelayout(false))

	e.DoLayout(Synchronous)
	first := e.LastCycle().ID
	e.DoLayout(Synchronous)

	require.NotEmpty(t, first)
	require.NotEqual(t, first, e.LastCycle().ID)
}

func TestDoLayout_RecordsSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	page := memhost.New(1000, 800)
	e, err := New(Config{
		Page:      page,
		Scheduler: taskqueue.New(),
		Device:    device.Static(device.PC),
		Tracer:    tp.Tracer("test"),
	})
	require.NoError(t, err)
	defer e.Close()
	e.Init(WithAutoRelayout(false))
	e.AddLayoutChangeListener(&recorder{})

	e.DoLayout(Synchronous)

	var dispatch, notify sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		switch s.Name() {
		case tracing.SpanDispatch:
			dispatch = s
		case tracing.SpanNotify:
			notify = s
		}
	}
	require.NotNil(t, dispatch)
	require.NotNil(t, notify)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range dispatch.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	require.Equal(t, e.LastCycle().ID, attrs[tracing.AttrCycleID].AsString())
	require.Equal(t, "pc", attrs[tracing.AttrDevice].AsString())
	require.Equal(t, "landscape", attrs[tracing.AttrBrowserOrientation].AsString())
	require.Equal(t, "mobile/portrait", attrs[tracing.AttrSlot].AsString())
	require.True(t, attrs[tracing.AttrFallback].AsBool())
	require.True(t, attrs[tracing.AttrChanged].AsBool())
	require.Equal(t, "synchronous", attrs[tracing.AttrDelivery].AsString())
}

func TestDoLayout_NotifySpanLinkage(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	page := memhost.New(400, 800)
	page.MarkContainer(memhost.NewElement("app", 100, 100))
	q := taskqueue.New()
	e, err := New(Config{Page: page, Scheduler: q, Device: device.Static(device.Mobile), Tracer: tp.Tracer("test")})
	require.NoError(t, err)
	defer e.Close()
	e.Init(WithAutoRelayout(false))
	e.AddLayoutChangeListener(ListenerFunc(func(Change) error { return errors.New("nope") }))

	e.DoLayout(Synchronous)
	page.Container().SetSize(100, 100)
	e.DoLayout(Deferred)
	q.Drain()

	var dispatches, notifies []sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		switch s.Name() {
		case tracing.SpanDispatch:
			dispatches = append(dispatches, s)
		case tracing.SpanNotify:
			notifies = append(notifies, s)
		}
	}
	require.Len(t, dispatches, 2)
	require.Len(t, notifies, 2)

	sync, deferred := notifies[0], notifies[1]
	require.Equal(t, dispatches[0].SpanContext().SpanID(), sync.Parent().SpanID())
	require.Equal(t, codes.Error, sync.Status().Code)

	require.False(t, deferred.Parent().IsValid(), "deferred delivery starts a new trace")
	require.Len(t, deferred.Links(), 1)
	require.Equal(t, dispatches[1].SpanContext().SpanID(), deferred.Links()[0].SpanContext.SpanID())
}

func TestChanged_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := rapid.Float64Range(0, 5000).Draw(rt, "w")
		h := rapid.Float64Range(0, 5000).Draw(rt, "h")
		dw := rapid.Float64Range(-50, 50).Draw(rt, "dw")
		dh := rapid.Float64Range(-50, 50).Draw(rt, "dh")

		pre := Size{w, h}
		post := Size{w + dw, h + dh}

		if Changed(pre, pre) {
			rt.Fatalf("identical sizes reported as changed")
		}
		if Changed(pre, post) != Changed(post, pre) {
			rt.Fatalf("Changed is not symmetric for %v %v", pre, post)
		}
		if (dw >= 0.11 || dw <= -0.11) && !Changed(pre, post) {
			rt.Fatalf("width delta %g not detected", dw)
		}
		if dw > -0.09 && dw < 0.09 && dh > -0.09 && dh < 0.09 && Changed(pre, post) {
			rt.Fatalf("sub-threshold deltas %g,%g reported", dw, dh)
		}
	})
}

func TestDoLayout_FallbackWidthProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		h := rapid.Float64Range(100, 3000).Draw(rt, "height")
		w := h + rapid.Float64Range(1, 3000).Draw(rt, "extraWidth")
		ratio := rapid.Float64Range(0.2, 1.5).Draw(rt, "ratio")

		page := memhost.New(w, h)
		q := taskqueue.New()
		e, err := New(Config{Page: page, Scheduler: q, Device: device.Static(device.PC)})
		if err != nil {
			rt.Fatalf("new: %v", err)
		}
		defer e.Close()
		e.SetExpectedWidthHeightRatio(ratio).Init(WithAutoRelayout(false))
		e.DoLayout(Synchronous)

		body := page.Container()
		if body.Width != h*ratio || body.Height != h {
			rt.Fatalf("container %gx%g, want %gx%g", body.Width, body.Height, h*ratio, h)
		}
		if !e.LastCycle().Fallback {
			rt.Fatalf("fallback not recorded")
		}
	})
}
