// Package host describes the page the layout engine runs against.
//
// A host exposes a window with an inner (viewport) size, a document with a root
// element, an optional body, and optionally one element carrying the layout
// container marker. Elements report their client size and accept a pixel size.
// Computed styles are resolved through a StyleAccessor so hosts can model padding
// the way a rendering engine reports it: as strings such as "12px".
package host

import (
	"math"
	"strconv"
	"strings"
)

// ContainerMarker is the attribute that designates the layout surface.
const ContainerMarker = "data-view-container"

// Element is a node whose box the engine can read and size.
type Element interface {
	// ClientWidth is the content width plus horizontal padding.
	ClientWidth() float64
	// ClientHeight is the content height plus vertical padding.
	ClientHeight() float64
	// SetSize sets the element's pixel width and height styles.
	SetSize(width, height float64)
}

// Style holds the computed padding of an element as reported by the host.
type Style struct {
	PaddingTop    string
	PaddingRight  string
	PaddingBottom string
	PaddingLeft   string
}

// StyleAccessor resolves an element's effective style.
type StyleAccessor interface {
	ComputedStyle(el Element) Style
}

// Window is the browser viewport.
type Window interface {
	InnerWidth() float64
	InnerHeight() float64
}

// Document gives access to the elements the container lookup considers.
type Document interface {
	// MarkedContainer returns the first element carrying ContainerMarker.
	MarkedContainer() (Element, bool)
	// Body returns the document body, or nil when there is none.
	Body() Element
	// Root returns the document root element. Never nil.
	Root() Element
}

// Page bundles the collaborators a layout engine reads from.
type Page interface {
	Window
	Document
	StyleAccessor
}

// LocateContainer returns the marked container, else the body, else the root.
func LocateContainer(doc Document) Element {
	if el, ok := doc.MarkedContainer(); ok && el != nil {
		return el
	}
	if body := doc.Body(); body != nil {
		return body
	}
	return doc.Root()
}

// ParsePixels converts a computed length such as "12px" into a number.
// The first "px" is removed before parsing; blank input is 0 and anything that
// still fails to parse is treated as 0.
func ParsePixels(v string) float64 {
	s := strings.TrimSpace(strings.Replace(v, "px", "", 1))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	return f
}

// HorizontalPadding returns left+right padding in pixels.
func (s Style) HorizontalPadding() float64 {
	return ParsePixels(s.PaddingLeft) + ParsePixels(s.PaddingRight)
}

// VerticalPadding returns top+bottom padding in pixels.
func (s Style) VerticalPadding() float64 {
	return ParsePixels(s.PaddingTop) + ParsePixels(s.PaddingBottom)
}
