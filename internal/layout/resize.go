package layout

import (
	"github.com/zjrosen/relayout/internal/log"
	"github.com/zjrosen/relayout/internal/pubsub"
	"github.com/zjrosen/relayout/internal/resolution"
)

// ShouldRelayout reports whether a resolution change warrants a dispatch.
//
// A shrinking height is a virtual keyboard opening; relaying out for it makes
// bottom-anchored elements jump. A growing height while the layout already
// fills the viewport is the keyboard closing again. Both are ignored.
func (e *Engine) ShouldRelayout(aspects resolution.Aspects) bool {
	if aspects.Has(resolution.HeightShrank) {
		return false
	}
	if aspects.Has(resolution.HeightGrew) && e.LayoutHeight() >= e.BrowserHeight() {
		return false
	}
	return true
}

// handleResolutionChange is subscribed to the resolution notifier by Init.
func (e *Engine) handleResolutionChange(aspects resolution.Aspects) {
	if !e.ShouldRelayout(aspects) {
		log.Debug(log.CatResize, "resize suppressed", "aspects", aspects)
		e.publish(pubsub.ResizeSuppressedEvent, Event{Aspects: aspects})
		return
	}
	e.DoLayout(Synchronous)
}
