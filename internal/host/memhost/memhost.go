// Package memhost is an in-memory host.Page.
//
// Elements model a content-box: SetSize stores the content size and the client
// size reported back is content plus padding. The simulate command and the engine
// tests drive it directly.
package memhost

import (
	"fmt"

	"github.com/zjrosen/relayout/internal/host"
)

// Element is an in-memory element.
type Element struct {
	Name   string
	Width  float64
	Height float64
	Style  host.Style
	Sets   int // number of SetSize calls
}

// NewElement creates an element with the given content size.
func NewElement(name string, width, height float64) *Element {
	return &Element{Name: name, Width: width, Height: height}
}

// WithPadding sets the computed padding strings (top, right, bottom, left).
func (e *Element) WithPadding(top, right, bottom, left string) *Element {
	e.Style = host.Style{PaddingTop: top, PaddingRight: right, PaddingBottom: bottom, PaddingLeft: left}
	return e
}

// ClientWidth implements host.Element.
func (e *Element) ClientWidth() float64 {
	return e.Width + e.Style.HorizontalPadding()
}

// ClientHeight implements host.Element.
func (e *Element) ClientHeight() float64 {
	return e.Height + e.Style.VerticalPadding()
}

// SetSize implements host.Element.
func (e *Element) SetSize(width, height float64) {
	e.Width = width
	e.Height = height
	e.Sets++
}

func (e *Element) String() string {
	return fmt.Sprintf("%s(%gx%g)", e.Name, e.Width, e.Height)
}

// Page is an in-memory document plus window.
type Page struct {
	innerW    float64
	innerH    float64
	root      *Element
	body      *Element
	container *Element
}

// New creates a page whose window and root element measure width x height.
// The page has a body of the same size and no marked container.
func New(width, height float64) *Page {
	return &Page{
		innerW: width,
		innerH: height,
		root:   NewElement("html", width, height),
		body:   NewElement("body", width, height),
	}
}

// Resize changes the window inner size and the root client size.
func (p *Page) Resize(width, height float64) {
	p.innerW = width
	p.innerH = height
	p.root.Width = width
	p.root.Height = height
}

// SetInnerSize changes only the window inner size. A zero value makes the
// measurer fall back to the root element.
func (p *Page) SetInnerSize(width, height float64) {
	p.innerW = width
	p.innerH = height
}

// MarkContainer designates el as the layout container.
func (p *Page) MarkContainer(el *Element) *Page {
	p.container = el
	return p
}

// RemoveBody drops the body so the root becomes the fallback container.
func (p *Page) RemoveBody() *Page {
	p.body = nil
	return p
}

// Container returns the element the locator would pick.
func (p *Page) Container() *Element {
	if p.container != nil {
		return p.container
	}
	if p.body != nil {
		return p.body
	}
	return p.root
}

// RootElement returns the root element.
func (p *Page) RootElement() *Element { return p.root }

// InnerWidth implements host.Window.
func (p *Page) InnerWidth() float64 { return p.innerW }

// InnerHeight implements host.Window.
func (p *Page) InnerHeight() float64 { return p.innerH }

// MarkedContainer implements host.Document.
func (p *Page) MarkedContainer() (host.Element, bool) {
	if p.container == nil {
		return nil, false
	}
	return p.container, true
}

// Body implements host.Document.
func (p *Page) Body() host.Element {
	if p.body == nil {
		return nil
	}
	return p.body
}

// Root implements host.Document.
func (p *Page) Root() host.Element { return p.root }

// ComputedStyle implements host.StyleAccessor.
func (p *Page) ComputedStyle(el host.Element) host.Style {
	if e, ok := el.(*Element); ok {
		return e.Style
	}
	return host.Style{}
}

var _ host.Page = (*Page)(nil)
