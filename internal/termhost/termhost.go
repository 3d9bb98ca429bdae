// Package termhost runs the layout engine against a terminal.
//
// The terminal window is the browser viewport (minus one status row) and a
// shaded box is the layout container. The page itself is a memhost.Page; this
// package feeds it window sizes from bubbletea, runs deferred work on a later
// turn of the tea event loop, and renders the container with lipgloss.
package termhost

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/relayout/internal/config"
	"github.com/zjrosen/relayout/internal/host/memhost"
	"github.com/zjrosen/relayout/internal/layout"
	"github.com/zjrosen/relayout/internal/log"
	"github.com/zjrosen/relayout/internal/pubsub"
	"github.com/zjrosen/relayout/internal/resolution"
	"github.com/zjrosen/relayout/internal/taskqueue"
)

const (
	statusHeight = 1
	ratioStep    = 0.05
	minRatio     = 0.05
)

// drainMsg runs the deferred tasks queued before it was sent.
type drainMsg struct{}

// configChangedMsg is sent when the config watcher fires.
type configChangedMsg struct{}

// Options configures a Model.
type Options struct {
	Layout config.LayoutConfig

	// ConfigPath receives ratio edits made with +/-. Empty disables saving.
	ConfigPath string

	// ConfigChanges signals config file edits; Reload reads the new layout section.
	ConfigChanges <-chan struct{}
	Reload        func() (config.LayoutConfig, error)

	Tracer trace.Tracer
	Keys   *KeyMap
}

// Model is the bubbletea model hosting the engine.
type Model struct {
	engine  *layout.Engine
	page    *memhost.Page
	box     *memhost.Element
	tracker *resolution.Tracker
	queue   *taskqueue.Queue
	keys    KeyMap

	ctx    context.Context
	cancel context.CancelFunc
	events *pubsub.TeaListener[layout.Event]
	logs   *log.Listener

	configPath    string
	configChanges <-chan struct{}
	reload        func() (config.LayoutConfig, error)

	color    string
	width    int
	height   int
	sized    bool
	drainDue bool
	showHelp bool
	help     string

	changes    int
	failures   int
	lastChange layout.Change
	notice     string
	lastLog    string
}

// New builds the engine, the page and the model around them.
func New(opts Options) (*Model, error) {
	if err := config.ValidateLayout(opts.Layout); err != nil {
		return nil, err
	}

	box := memhost.NewElement("container", 0, 0).WithPadding(opts.Layout.Container.PaddingSides())
	page := memhost.New(0, 0).MarkContainer(box)
	queue := taskqueue.New()
	tracker := resolution.NewTracker(0, 0)

	engine, err := layout.New(layout.Config{
		Page:       page,
		Scheduler:  queue,
		Device:     opts.Layout.Classifier(),
		Resolution: tracker,
		Tracer:     opts.Tracer,
	})
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		engine:        engine,
		page:          page,
		box:           box,
		tracker:       tracker,
		queue:         queue,
		keys:          keys,
		ctx:           ctx,
		cancel:        cancel,
		configPath:    opts.ConfigPath,
		configChanges: opts.ConfigChanges,
		reload:        opts.Reload,
		color:         opts.Layout.Container.Color,
	}
	m.events = pubsub.NewTeaListener[layout.Event](ctx, engine.Events())
	m.logs = log.NewListener(ctx)
	queue.OnPost(func() { m.drainDue = true })

	engine.SetExpectedWidthHeightRatio(opts.Layout.ExpectedRatio).
		Init(opts.Layout.InitOptions()...).
		AddLayoutChangeListener(layout.ListenerFunc(m.layoutChanged))
	return m, nil
}

// Engine returns the hosted engine.
func (m *Model) Engine() *layout.Engine {
	return m.engine
}

// Close releases the engine and the event subscriptions.
func (m *Model) Close() {
	m.cancel()
	m.engine.Close()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.events.Next()}
	if m.logs != nil {
		cmds = append(cmds, m.logs.Next())
	}
	if m.configChanges != nil {
		cmds = append(cmds, m.waitForConfig())
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.cancel()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Relayout):
			m.engine.DoLayout(layout.Synchronous)
		case key.Matches(msg, m.keys.Grow):
			m.adjustRatio(ratioStep)
		case key.Matches(msg, m.keys.Shrink):
			m.adjustRatio(-ratioStep)
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		}

	case drainMsg:
		n := m.queue.RunPending()
		log.Debug(log.CatUI, "drained deferred tasks", "count", n)

	case pubsub.Event[layout.Event]:
		if n := m.events.Seen(msg); n > 0 {
			log.Warn(log.CatUI, "missed engine events", "count", n)
		}
		m.engineEvent(msg)
		cmds = append(cmds, m.events.Next())

	case log.LogEvent:
		if msg.Payload.Level >= log.LevelWarn {
			m.lastLog = msg.Payload.Message
		}
		if m.logs != nil {
			cmds = append(cmds, m.logs.Next())
		}

	case configChangedMsg:
		m.reloadConfig()
		cmds = append(cmds, m.waitForConfig())
	}

	// Anything posted while handling this message runs on a later turn.
	if m.drainDue {
		m.drainDue = false
		cmds = append(cmds, func() tea.Msg { return drainMsg{} })
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	vw, vh := float64(width), float64(max(height-statusHeight, 0))
	m.page.Resize(vw, vh)
	m.help = ""

	first := !m.sized
	m.sized = true
	m.tracker.Update(vw, vh)
	if first && !m.engine.AutoRelayout() {
		m.engine.DoLayout(layout.Deferred)
	}
}

func (m *Model) adjustRatio(delta float64) {
	ratio := max(m.engine.ExpectedWidthHeightRatio()+delta, minRatio)
	m.engine.SetExpectedWidthHeightRatio(ratio).DoLayout(layout.Synchronous)
	m.notice = fmt.Sprintf("ratio %.3f", ratio)

	if m.configPath == "" {
		return
	}
	if err := config.SaveExpectedRatio(m.configPath, ratio); err != nil {
		log.ErrorErr(log.CatConfig, "saving expected ratio", err, "path", m.configPath)
		m.notice = "saving ratio failed: " + err.Error()
	}
}

func (m *Model) reloadConfig() {
	if m.reload == nil {
		return
	}
	lc, err := m.reload()
	if err == nil {
		err = config.ValidateLayout(lc)
	}
	if err != nil {
		log.ErrorErr(log.CatConfig, "reloading config", err)
		m.notice = "config reload failed: " + err.Error()
		return
	}
	if lc.ExpectedRatio == m.engine.ExpectedWidthHeightRatio() {
		return
	}
	log.Info(log.CatConfig, "applying expected ratio", "ratio", lc.ExpectedRatio)
	m.engine.SetExpectedWidthHeightRatio(lc.ExpectedRatio).DoLayout(layout.Deferred)
	m.notice = fmt.Sprintf("config: ratio %.3f", lc.ExpectedRatio)
}

func (m *Model) waitForConfig() tea.Cmd {
	ch, ctx := m.configChanges, m.ctx
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			return configChangedMsg{}
		}
	}
}

// layoutChanged is the model's own layout change listener.
func (m *Model) layoutChanged(c layout.Change) error {
	m.changes++
	m.lastChange = c
	return nil
}

func (m *Model) engineEvent(ev pubsub.Event[layout.Event]) {
	switch ev.Type {
	case pubsub.ResizeSuppressedEvent:
		m.notice = "resize ignored (" + ev.Payload.Aspects.String() + ")"
	case pubsub.InvocationFailedEvent:
		m.failures++
		m.notice = ev.Payload.Err.Error()
	case pubsub.ConfigWarningEvent:
		m.notice = "warning: " + ev.Payload.Err.Error()
	case pubsub.LayoutChangedEvent:
		m.notice = ""
	}
}
