package layout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/relayout/internal/device"
	"github.com/zjrosen/relayout/internal/host/memhost"
	"github.com/zjrosen/relayout/internal/pubsub"
	"github.com/zjrosen/relayout/internal/taskqueue"
)

// newTestEngine builds an engine over page for a fixed device class.
func newTestEngine(t *testing.T, page *memhost.Page, class device.Class) (*Engine, *taskqueue.Queue) {
	t.Helper()
	q := taskqueue.New()
	e, err := New(Config{Page: page, Scheduler: q, Device: device.Static(class)})
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, q
}

// recorder is a pointer Listener that remembers every change it saw.
type recorder struct {
	got []Change
}

func (r *recorder) LayoutChanged(c Change) error {
	r.got = append(r.got, c)
	return nil
}

// expectEvent waits for the next event of type want on ch.
func expectEvent(t *testing.T, ch <-chan pubsub.Event[Event], want pubsub.EventType) Event {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case ev, ok := <-ch:
			require.True(t, ok, "event channel closed")
			if ev.Type == want {
				return ev.Payload
			}
		case <-deadline:
			t.Fatalf("no %s event", want)
			return Event{}
		}
	}
}

func subscribe(t *testing.T, e *Engine) <-chan pubsub.Event[Event] {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return e.Events().Subscribe(ctx)
}

func TestNew_RequiresPageAndScheduler(t *testing.T) {
	_, err := New(Config{Scheduler: taskqueue.New()})
	require.Error(t, err)

	_, err = New(Config{Page: memhost.New(100, 100)})
	require.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	e, err := New(Config{Page: memhost.New(100, 100), Scheduler: taskqueue.New()})
	require.NoError(t, err)
	defer e.Close()

	require.False(t, e.Initialized())
	require.True(t, e.AutoRelayout())
	require.InDelta(t, 320.0/568.0, e.ExpectedWidthHeightRatio(), 1e-12)
	require.False(t, e.HasCustomPCLandscape())
	require.Empty(t, e.Listeners())
	require.Equal(t, device.PC, e.device.Classify().Class())
}

func TestSetExpectedWidthHeightRatio_Chains(t *testing.T) {
	e, _ := newTestEngine(t, memhost.New(100, 100), device.PC)
	require.Same(t, e, e.SetExpectedWidthHeightRatio(0.5))
	require.Equal(t, 0.5, e.ExpectedWidthHeightRatio())
}

func TestOrientationOf(t *testing.T) {
	require.Equal(t, Portrait, OrientationOf(Size{100, 200}))
	require.Equal(t, Portrait, OrientationOf(Size{300, 300}), "square is portrait")
	require.Equal(t, Landscape, OrientationOf(Size{301, 300}))
}

func TestDelivery_ZeroValueIsDeferred(t *testing.T) {
	var d Delivery
	require.Equal(t, Deferred, d)
	require.Equal(t, "deferred", d.String())
	require.Equal(t, "synchronous", Synchronous.String())
}

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot("tablet/landscape")
	require.NoError(t, err)
	require.Equal(t, TabletLandscape, s)
	require.Equal(t, "tablet/landscape", s.String())

	for _, slot := range Slots {
		got, err := ParseSlot(slot.String())
		require.NoError(t, err)
		require.Equal(t, slot, got)
	}

	_, err = ParseSlot("tablet")
	require.Error(t, err)
	_, err = ParseSlot("tablet/sideways")
	require.Error(t, err)
	_, err = ParseSlot("fridge/portrait")
	require.Error(t, err)
}

func TestInvocationError(t *testing.T) {
	cause := context.Canceled
	err := &InvocationError{Kind: "strategy", Target: "pkg.fn", Slot: "pc/portrait", Err: cause}
	require.Equal(t, "strategy pkg.fn (pc/portrait): context canceled", err.Error())
	require.ErrorIs(t, err, cause)

	lerr := &InvocationError{Kind: "listener", Target: "*layout.recorder", Err: cause}
	require.Equal(t, "listener *layout.recorder: context canceled", lerr.Error())
}

func TestStrategyByName(t *testing.T) {
	require.Equal(t, []string{"fill", "square"}, StrategyNames())

	fn, err := StrategyByName(" Square ")
	require.NoError(t, err)
	el := memhost.NewElement("app", 0, 0)
	require.NoError(t, fn(el, 300, 500))
	require.Equal(t, 300.0, el.Width)
	require.Equal(t, 300.0, el.Height)

	_, err = StrategyByName("stretch")
	require.ErrorContains(t, err, "fill, square")
}
