package layout

import "github.com/zjrosen/relayout/internal/host"

func (e *Engine) container() host.Element {
	return host.LocateContainer(e.page)
}

// layoutSize is the container's client size net of computed padding.
func (e *Engine) layoutSize() Size {
	c := e.container()
	style := e.page.ComputedStyle(c)
	return Size{
		Width:  c.ClientWidth() - style.HorizontalPadding(),
		Height: c.ClientHeight() - style.VerticalPadding(),
	}
}

// browserSize is the window inner size, falling back to the root element's
// client size on each axis the window reports as zero.
func (e *Engine) browserSize() Size {
	w := e.page.InnerWidth()
	if w == 0 {
		w = e.page.Root().ClientWidth()
	}
	h := e.page.InnerHeight()
	if h == 0 {
		h = e.page.Root().ClientHeight()
	}
	return Size{Width: w, Height: h}
}

// LayoutWidth returns the container content width.
func (e *Engine) LayoutWidth() float64 { return e.layoutSize().Width }

// LayoutHeight returns the container content height.
func (e *Engine) LayoutHeight() float64 { return e.layoutSize().Height }

// BrowserWidth returns the viewport width.
func (e *Engine) BrowserWidth() float64 { return e.browserSize().Width }

// BrowserHeight returns the viewport height.
func (e *Engine) BrowserHeight() float64 { return e.browserSize().Height }

// IsLayoutPortrait reports whether the container is at most as wide as it is tall.
func (e *Engine) IsLayoutPortrait() bool { return OrientationOf(e.layoutSize()) == Portrait }

// IsLayoutLandscape is the negation of IsLayoutPortrait.
func (e *Engine) IsLayoutLandscape() bool { return !e.IsLayoutPortrait() }

// IsBrowserPortrait reports whether the viewport is at most as wide as it is tall.
func (e *Engine) IsBrowserPortrait() bool { return OrientationOf(e.browserSize()) == Portrait }

// IsBrowserLandscape is the negation of IsBrowserPortrait.
func (e *Engine) IsBrowserLandscape() bool { return !e.IsBrowserPortrait() }

// LayoutWidthHeightRatio returns the viewport width/height ratio. It reads the
// browser dimensions, exactly like BrowserWidthHeightRatio.
func (e *Engine) LayoutWidthHeightRatio() float64 {
	return e.BrowserWidthHeightRatio()
}

// BrowserWidthHeightRatio returns the viewport width/height ratio.
func (e *Engine) BrowserWidthHeightRatio() float64 {
	s := e.browserSize()
	return s.Width / s.Height
}
