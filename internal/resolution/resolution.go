// Package resolution turns successive viewport sizes into change aspects.
//
// A Tracker remembers the last viewport size it saw. Each Update compares the
// new size against it and, when something moved, hands the listeners the set of
// aspects that changed: "width+", "width-", "height+", "height-".
package resolution

import (
	"slices"
	"strings"

	"github.com/zjrosen/relayout/internal/log"
)

// Aspect names one direction of change on one axis.
type Aspect string

const (
	WidthGrew    Aspect = "width+"
	WidthShrank  Aspect = "width-"
	HeightGrew   Aspect = "height+"
	HeightShrank Aspect = "height-"
)

// Aspects is the set of aspects raised by one change, in width-then-height order.
type Aspects []Aspect

// Has reports whether a is in the set.
func (as Aspects) Has(a Aspect) bool {
	return slices.Contains(as, a)
}

func (as Aspects) String() string {
	parts := make([]string, len(as))
	for i, a := range as {
		parts[i] = string(a)
	}
	return strings.Join(parts, ",")
}

// Listener receives the aspects of a resolution change.
type Listener func(Aspects)

// Notifier is the subscription surface the layout engine consumes.
type Notifier interface {
	AddChangeListener(fn Listener)
}

// Tracker is a Notifier fed with viewport sizes by its host.
// It is not safe for concurrent use; hosts call it from their event loop.
type Tracker struct {
	width, height float64
	seen          bool
	listeners     []Listener
}

// NewTracker creates a tracker primed with the current viewport size, so the
// first Update only reports real changes.
func NewTracker(width, height float64) *Tracker {
	return &Tracker{width: width, height: height, seen: true}
}

// AddChangeListener implements Notifier. Nil listeners are ignored.
func (t *Tracker) AddChangeListener(fn Listener) {
	if fn == nil {
		log.Warn(log.CatResize, "ignoring nil resolution listener")
		return
	}
	t.listeners = append(t.listeners, fn)
}

// Update records a new viewport size and notifies listeners when it differs from
// the previous one. It returns the aspects that were raised.
func (t *Tracker) Update(width, height float64) Aspects {
	if !t.seen {
		t.width, t.height, t.seen = width, height, true
		return nil
	}

	aspects := Diff(t.width, t.height, width, height)
	t.width, t.height = width, height
	if len(aspects) == 0 {
		return nil
	}

	log.Debug(log.CatResize, "resolution changed", "aspects", aspects, "width", width, "height", height)
	for _, fn := range t.listeners {
		fn(aspects)
	}
	return aspects
}

// Size returns the last recorded viewport size.
func (t *Tracker) Size() (width, height float64) {
	return t.width, t.height
}

// Diff returns the aspects separating two sizes.
func Diff(oldW, oldH, newW, newH float64) Aspects {
	var as Aspects
	switch {
	case newW > oldW:
		as = append(as, WidthGrew)
	case newW < oldW:
		as = append(as, WidthShrank)
	}
	switch {
	case newH > oldH:
		as = append(as, HeightGrew)
	case newH < oldH:
		as = append(as, HeightShrank)
	}
	return as
}
