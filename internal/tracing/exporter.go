package tracing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// CycleRecord is one exported span, one JSON object per line. Layout
// attributes are lifted into top-level fields so a trace file reads as a log
// of dispatch cycles:
//
//	jq 'select(.fallback) | .layout' traces.jsonl
type CycleRecord struct {
	Span       string  `json:"span"`
	TraceID    string  `json:"trace_id"`
	SpanID     string  `json:"span_id"`
	ParentID   string  `json:"parent_id,omitempty"`
	Start      string  `json:"start"`
	DurationMs float64 `json:"duration_ms"`
	Failed     bool    `json:"failed,omitempty"`
	Error      string  `json:"error,omitempty"`

	CycleID   string  `json:"cycle_id,omitempty"`
	Device    string  `json:"device,omitempty"`
	Slot      string  `json:"slot,omitempty"`
	Fallback  bool    `json:"fallback,omitempty"`
	Changed   bool    `json:"changed,omitempty"`
	Delivery  string  `json:"delivery,omitempty"`
	Browser   *Extent `json:"browser,omitempty"`
	Layout    *Extent `json:"layout,omitempty"`
	Listeners int64   `json:"listeners,omitempty"`
	Failures  int64   `json:"failures,omitempty"`

	Attributes map[string]any `json:"attributes,omitempty"`
	Events     []EventRecord  `json:"events,omitempty"`
}

// Extent is a width and height pair.
type Extent struct {
	Width  float64 `json:"w"`
	Height float64 `json:"h"`
}

// EventRecord is a span event, such as a failed strategy.
type EventRecord struct {
	Name       string         `json:"name"`
	At         string         `json:"at"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// CycleExporter writes CycleRecords to w.
type CycleExporter struct {
	mu sync.Mutex
	w  io.Writer
	c  io.Closer
}

// NewCycleExporter writes records to w. Shutdown closes w if it is an io.Closer.
func NewCycleExporter(w io.Writer) *CycleExporter {
	e := &CycleExporter{w: w}
	if c, ok := w.(io.Closer); ok {
		e.c = c
	}
	return e
}

// OpenCycleFile appends records to the file at path, creating parent
// directories as needed.
func OpenCycleFile(path string) (*CycleExporter, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) // #nosec G304 -- path is cleaned above
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return NewCycleExporter(f), nil
}

// ExportSpans implements sdktrace.SpanExporter.
func (e *CycleExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.w == nil {
		return nil
	}
	enc := json.NewEncoder(e.w)
	for _, s := range spans {
		if err := enc.Encode(record(s)); err != nil {
			return fmt.Errorf("encode span %s: %w", s.Name(), err)
		}
	}
	return nil
}

// Shutdown implements sdktrace.SpanExporter. Later exports are dropped.
func (e *CycleExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c := e.c
	e.w, e.c = nil, nil
	if c != nil {
		return c.Close()
	}
	return nil
}

func record(s sdktrace.ReadOnlySpan) CycleRecord {
	r := CycleRecord{
		Span:       s.Name(),
		TraceID:    s.SpanContext().TraceID().String(),
		SpanID:     s.SpanContext().SpanID().String(),
		Start:      s.StartTime().Format(time.RFC3339Nano),
		DurationMs: float64(s.EndTime().Sub(s.StartTime()).Microseconds()) / 1000,
	}
	if s.Parent().IsValid() {
		r.ParentID = s.Parent().SpanID().String()
	}
	if st := s.Status(); st.Code == codes.Error {
		r.Failed, r.Error = true, st.Description
	}

	var browser, layout Extent
	for _, kv := range s.Attributes() {
		switch string(kv.Key) {
		case AttrCycleID:
			r.CycleID = kv.Value.AsString()
		case AttrDevice:
			r.Device = kv.Value.AsString()
		case AttrSlot:
			r.Slot = kv.Value.AsString()
		case AttrFallback:
			r.Fallback = kv.Value.AsBool()
		case AttrChanged:
			r.Changed = kv.Value.AsBool()
		case AttrDelivery:
			r.Delivery = kv.Value.AsString()
		case AttrListeners:
			r.Listeners = kv.Value.AsInt64()
		case AttrFailures:
			r.Failures = kv.Value.AsInt64()
		case AttrBrowserWidth:
			browser.Width, r.Browser = kv.Value.AsFloat64(), &browser
		case AttrBrowserHeight:
			browser.Height, r.Browser = kv.Value.AsFloat64(), &browser
		case AttrLayoutWidth:
			layout.Width, r.Layout = kv.Value.AsFloat64(), &layout
		case AttrLayoutHeight:
			layout.Height, r.Layout = kv.Value.AsFloat64(), &layout
		default:
			if r.Attributes == nil {
				r.Attributes = map[string]any{}
			}
			r.Attributes[strings.TrimPrefix(string(kv.Key), "layout.")] = kv.Value.AsInterface()
		}
	}

	for _, ev := range s.Events() {
		r.Events = append(r.Events, EventRecord{
			Name:       ev.Name,
			At:         ev.Time.Format(time.RFC3339Nano),
			Attributes: attrMap(ev.Attributes),
		})
	}
	return r
}

func attrMap(kvs []attribute.KeyValue) map[string]any {
	if len(kvs) == 0 {
		return nil
	}
	m := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}
