// Package layout is the responsive layout dispatch engine.
//
// An Engine measures the page, classifies the device, picks the sizing strategy
// for the (device class, browser orientation) pair, runs it against the layout
// container and tells listeners when the container's content box actually moved.
//
// All engine state (strategy table, listeners, flags, expected aspect ratio)
// lives on the Engine value. The engine is driven from a single goroutine, the
// host's event loop, and takes no locks. Deferred listener delivery goes
// through a Scheduler owned by that loop.
package layout

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/relayout/internal/device"
	"github.com/zjrosen/relayout/internal/host"
	"github.com/zjrosen/relayout/internal/pubsub"
	"github.com/zjrosen/relayout/internal/resolution"
)

// DefaultExpectedRatio is the blueprint width/height ratio (an iPhone 5 screen).
const DefaultExpectedRatio = 320.0 / 568.0

// Size is a width and height in layout units.
type Size struct {
	Width  float64
	Height float64
}

func (s Size) String() string {
	return fmt.Sprintf("%gx%g", s.Width, s.Height)
}

// Orientation is portrait or landscape. Ties resolve to portrait.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// OrientationOf returns Portrait when width <= height.
func OrientationOf(s Size) Orientation {
	if s.Width <= s.Height {
		return Portrait
	}
	return Landscape
}

// Delivery selects how change listeners are notified.
type Delivery int

const (
	// Deferred posts the notification to the Scheduler so it runs on a later
	// turn of the event loop. It is the zero value.
	Deferred Delivery = iota
	// Synchronous notifies listeners before DoLayout returns.
	Synchronous
)

func (d Delivery) String() string {
	if d == Synchronous {
		return "synchronous"
	}
	return "deferred"
}

// Scheduler runs tasks on a later turn of the host's event loop.
type Scheduler interface {
	Post(task func())
}

// Change is the payload delivered to layout change listeners.
type Change struct {
	LayoutWidth   float64
	LayoutHeight  float64
	BrowserWidth  float64
	BrowserHeight float64
}

// Event is published on the engine's broker for observers outside the loop.
type Event struct {
	CycleID string
	Change  Change
	Aspects resolution.Aspects
	Err     error
}

// Config holds an engine's collaborators.
type Config struct {
	// Page is the document, window and style accessor. Required.
	Page host.Page
	// Scheduler receives deferred notifications. Required.
	Scheduler Scheduler
	// Device classifies the host on every dispatch. Defaults to PC.
	Device device.Classifier
	// Resolution is subscribed to by Init when auto relayout is on.
	Resolution resolution.Notifier
	// Tracer wraps dispatch cycles in spans. Defaults to a no-op tracer.
	Tracer trace.Tracer
}

// Engine is the layout dispatcher and everything it owns.
type Engine struct {
	page       host.Page
	scheduler  Scheduler
	device     device.Classifier
	resolution resolution.Notifier
	tracer     trace.Tracer
	events     *pubsub.Broker[Event]

	strategies    map[Slot]Strategy
	listeners     []Listener
	expectedRatio float64
	initialized   bool
	autoRelayout  bool

	last Cycle
}

// New creates an engine with default strategies and no listeners.
func New(cfg Config) (*Engine, error) {
	if cfg.Page == nil {
		return nil, errors.New("layout: page is required")
	}
	if cfg.Scheduler == nil {
		return nil, errors.New("layout: scheduler is required")
	}
	if cfg.Device == nil {
		cfg.Device = device.Static(device.PC)
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("layout")
	}

	return &Engine{
		page:          cfg.Page,
		scheduler:     cfg.Scheduler,
		device:        cfg.Device,
		resolution:    cfg.Resolution,
		tracer:        cfg.Tracer,
		events:        pubsub.NewBroker[Event](),
		strategies:    defaultStrategies(),
		expectedRatio: DefaultExpectedRatio,
		autoRelayout:  true,
	}, nil
}

// Events returns the broker engine events are published on.
func (e *Engine) Events() *pubsub.Broker[Event] {
	return e.events
}

// Close shuts down the event broker.
func (e *Engine) Close() {
	e.events.Close()
}

// ExpectedWidthHeightRatio returns the blueprint aspect ratio.
func (e *Engine) ExpectedWidthHeightRatio() float64 {
	return e.expectedRatio
}

// SetExpectedWidthHeightRatio sets the blueprint aspect ratio used when a PC in
// landscape has no custom strategy.
func (e *Engine) SetExpectedWidthHeightRatio(ratio float64) *Engine {
	e.expectedRatio = ratio
	return e
}

// Initialized reports whether Init has run.
func (e *Engine) Initialized() bool {
	return e.initialized
}

// AutoRelayout reports whether resolution changes trigger a dispatch.
func (e *Engine) AutoRelayout() bool {
	return e.autoRelayout
}

// LastCycle returns what the most recent DoLayout did.
func (e *Engine) LastCycle() Cycle {
	return e.last
}

func (e *Engine) publish(t pubsub.EventType, ev Event) {
	e.events.Publish(t, ev)
}
