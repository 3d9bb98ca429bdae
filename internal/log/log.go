// Package log is the process-wide category logger.
//
// Logging stays off until one of the Init functions runs (the CLI does so for
// --debug or RELAYOUT_DEBUG), so the engine logs freely from hot paths such as
// every dispatch cycle. Besides the writer, each entry is published to
// subscribers; the terminal host shows the latest warning in its status line.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/relayout/internal/pubsub"
)

// Level is an entry's severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a Level. Unknown values fall back to debug.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelDebug
	}
}

// Category groups related entries.
type Category string

const (
	CatLayout  Category = "layout"  // dispatch cycles, strategies, listeners
	CatResize  Category = "resize"  // resolution changes and keyboard filtering
	CatDevice  Category = "device"  // user agent classification
	CatConfig  Category = "config"  // loading and saving
	CatWatcher Category = "watcher" // config file events
	CatUI      Category = "ui"      // terminal host
	CatTrace   Category = "trace"   // tracing provider lifecycle
	CatCache   Category = "cache"
)

// Field is one key=value pair of an entry.
type Field struct {
	Key   string
	Value any
}

// Entry is a single log record.
type Entry struct {
	Time     time.Time
	Level    Level
	Category Category
	Message  string
	Fields   []Field
}

// String formats e as one line without the trailing newline:
//
//	2026-03-01T10:45:00 [WARN] [layout] message key=value key2=value2
func (e Entry) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", e.Time.Format("2006-01-02T15:04:05"), e.Level, e.Category, e.Message)
	for _, f := range e.Fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

// Field returns the value of the first field named key.
func (e Entry) Field(key string) (any, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

const missingValue = "<missing>"

func pairs(kv []any) []Field {
	if len(kv) == 0 {
		return nil
	}
	fields := make([]Field, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		f := Field{Key: fmt.Sprint(kv[i]), Value: missingValue}
		if i+1 < len(kv) {
			f.Value = kv[i+1]
		}
		fields = append(fields, f)
	}
	return fields
}

type logger struct {
	mu       sync.Mutex
	out      io.Writer
	closer   io.Closer
	enabled  bool
	minLevel Level
	broker   *pubsub.Broker[Entry]
	now      func() time.Time
}

func newLogger(out io.Writer, closer io.Closer) *logger {
	return &logger{
		out:      out,
		closer:   closer,
		enabled:  true,
		minLevel: LevelDebug,
		broker:   pubsub.NewBroker[Entry](),
		now:      time.Now,
	}
}

var (
	mu      sync.RWMutex
	current *logger
)

func install(l *logger) func() {
	mu.Lock()
	prev := current
	current = l
	mu.Unlock()
	if prev != nil {
		prev.broker.Close()
	}
	return func() {
		mu.Lock()
		if current == l {
			current = nil
		}
		mu.Unlock()
		l.broker.Close()
		if l.closer != nil {
			_ = l.closer.Close()
		}
	}
}

func active() *logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Init appends entries to the file at path. The returned function closes it.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: debug log path comes from the user
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return install(newLogger(f, f)), nil
}

// InitWithTeaLog logs through tea.LogToFile. The terminal host uses it because
// stdout belongs to the renderer.
func InitWithTeaLog(path, prefix string) (func(), error) {
	f, err := tea.LogToFile(path, prefix)
	if err != nil {
		return nil, err
	}
	return install(newLogger(f, f)), nil
}

// InitWriter routes entries to w. Tests use it to capture output.
func InitWriter(w io.Writer) {
	install(newLogger(w, nil))
}

// Reset turns logging off.
func Reset() {
	mu.Lock()
	prev := current
	current = nil
	mu.Unlock()
	if prev != nil {
		prev.broker.Close()
	}
}

// SetEnabled toggles logging without dropping the configured writer.
func SetEnabled(enabled bool) {
	if l := active(); l != nil {
		l.mu.Lock()
		l.enabled = enabled
		l.mu.Unlock()
	}
}

// SetMinLevel drops entries below level.
func SetMinLevel(level Level) {
	if l := active(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level. Fields are alternating keys and values.
func Debug(cat Category, msg string, kv ...any) { write(LevelDebug, cat, msg, kv) }

// Info logs at info level.
func Info(cat Category, msg string, kv ...any) { write(LevelInfo, cat, msg, kv) }

// Warn logs at warning level.
func Warn(cat Category, msg string, kv ...any) { write(LevelWarn, cat, msg, kv) }

// Error logs at error level.
func Error(cat Category, msg string, kv ...any) { write(LevelError, cat, msg, kv) }

// ErrorErr logs err under the "error" key at error level.
func ErrorErr(cat Category, msg string, err error, kv ...any) {
	val := "<nil>"
	if err != nil {
		val = err.Error()
	}
	write(LevelError, cat, msg, append(kv, "error", val))
}

func write(level Level, cat Category, msg string, kv []any) {
	l := active()
	if l == nil {
		return
	}

	l.mu.Lock()
	if !l.enabled || level < l.minLevel {
		l.mu.Unlock()
		return
	}
	e := Entry{Time: l.now(), Level: level, Category: cat, Message: msg, Fields: pairs(kv)}
	if l.out != nil {
		_, _ = io.WriteString(l.out, e.String()+"\n")
	}
	l.mu.Unlock()

	l.broker.Publish(pubsub.LogEntryEvent, e)
}

// LogEvent is a published log entry.
type LogEvent = pubsub.Event[Entry]

// Listener feeds log entries into a Bubble Tea program.
type Listener = pubsub.TeaListener[Entry]

// NewListener subscribes to the entries the current logger writes.
// It returns nil while logging is off.
func NewListener(ctx context.Context) *Listener {
	l := active()
	if l == nil {
		return nil
	}
	return pubsub.NewTeaListener[Entry](ctx, l.broker, pubsub.LogEntryEvent)
}
