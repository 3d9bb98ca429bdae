package layout

import (
	"github.com/zjrosen/relayout/internal/log"
)

type initConfig struct {
	autoRelayout bool
	overrides    []override
}

type override struct {
	slot Slot
	fn   Strategy
}

// InitOption configures Init.
type InitOption func(*initConfig)

// WithAutoRelayout controls whether resolution changes trigger a dispatch.
// It defaults to true.
func WithAutoRelayout(enabled bool) InitOption {
	return func(c *initConfig) {
		c.autoRelayout = enabled
	}
}

// WithStrategy installs fn for slot. A nil fn keeps the default.
func WithStrategy(slot Slot, fn Strategy) InitOption {
	return func(c *initConfig) {
		c.overrides = append(c.overrides, override{slot: slot, fn: fn})
	}
}

// Init configures the engine once. Later calls log a warning and change
// nothing. Strategies installed here stay for the engine's lifetime.
func (e *Engine) Init(opts ...InitOption) *Engine {
	if e.initialized {
		e.configWarning(ErrAlreadyInitialized)
		return e
	}
	e.initialized = true

	cfg := initConfig{autoRelayout: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	e.autoRelayout = cfg.autoRelayout
	if e.autoRelayout {
		if e.resolution == nil {
			log.Warn(log.CatLayout, "auto relayout requested without a resolution notifier")
		} else {
			e.resolution.AddChangeListener(e.handleResolutionChange)
		}
	}

	for _, o := range cfg.overrides {
		if o.fn == nil {
			e.configWarning(ErrNilStrategy, "slot", o.slot)
			continue
		}
		e.strategies[o.slot] = o.fn
	}

	log.Info(log.CatLayout, "layout initialized",
		"auto_relayout", e.autoRelayout,
		"overrides", len(cfg.overrides),
		"custom_pc_landscape", e.HasCustomPCLandscape())
	return e
}
