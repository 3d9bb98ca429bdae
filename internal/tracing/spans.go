package tracing

// Span names.
const (
	SpanDispatch = "layout.dispatch"
	SpanNotify   = "layout.notify"
)

// Span attribute keys.
const (
	AttrCycleID            = "layout.cycle_id"
	AttrDevice             = "layout.device"
	AttrBrowserOrientation = "layout.browser_orientation"
	AttrSlot               = "layout.slot"
	AttrFallback           = "layout.fallback"
	AttrChanged            = "layout.changed"
	AttrBrowserWidth       = "layout.browser_width"
	AttrBrowserHeight      = "layout.browser_height"
	AttrLayoutWidth        = "layout.width"
	AttrLayoutHeight       = "layout.height"
	AttrDelivery           = "layout.delivery"
	AttrListeners          = "layout.listeners"
	AttrFailures           = "layout.failures"
)

// Span event names.
const (
	EventStrategyFailed = "strategy.failed"
	EventListenerFailed = "listener.failed"
)
