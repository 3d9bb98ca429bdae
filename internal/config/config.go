// Package config provides configuration types and defaults for relayout.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjrosen/relayout/internal/device"
	"github.com/zjrosen/relayout/internal/layout"
	"github.com/zjrosen/relayout/internal/log"
	"github.com/zjrosen/relayout/internal/tracing"
)

// DefaultPath is where the CLI writes a config file when none is found.
const DefaultPath = ".relayout/config.yaml"

// Config holds all configuration options for relayout.
type Config struct {
	Layout   LayoutConfig   `mapstructure:"layout"`
	Debug    bool           `mapstructure:"debug"`
	LogPath  string         `mapstructure:"log_path"`
	LogLevel string         `mapstructure:"log_level"`
	Tracing  tracing.Config `mapstructure:"tracing"`
}

// LayoutConfig configures the engine and the demo host.
type LayoutConfig struct {
	// AutoRelayout subscribes the engine to terminal resizes.
	AutoRelayout bool `mapstructure:"auto_relayout"`

	// ExpectedRatio is the blueprint width/height ratio used for PCs in landscape.
	// The config watcher applies edits to it while the demo runs.
	ExpectedRatio float64 `mapstructure:"expected_ratio"`

	// Device is "auto" (classify UserAgent), "pc", "tablet" or "mobile".
	Device string `mapstructure:"device"`

	// UserAgent is classified when Device is "auto".
	UserAgent string `mapstructure:"user_agent"`

	// Strategies maps slots ("pc/landscape") to built-in strategy names ("fill").
	Strategies map[string]string `mapstructure:"strategies"`

	Container ContainerConfig `mapstructure:"container"`
}

// ContainerConfig styles the demo's container box.
type ContainerConfig struct {
	// Padding is given in CSS order: top, right, bottom, left ("1px 2px 1px 2px").
	Padding string `mapstructure:"padding"`
	Color   string `mapstructure:"color"` // hex border color e.g. "#54A0FF"
}

// PaddingSides splits Padding into its four sides. One value applies to all
// sides and two values are vertical then horizontal, as in CSS.
func (c ContainerConfig) PaddingSides() (top, right, bottom, left string) {
	parts := strings.Fields(c.Padding)
	switch len(parts) {
	case 0:
		return "0px", "0px", "0px", "0px"
	case 1:
		return parts[0], parts[0], parts[0], parts[0]
	case 2:
		return parts[0], parts[1], parts[0], parts[1]
	case 3:
		return parts[0], parts[1], parts[2], parts[1]
	default:
		return parts[0], parts[1], parts[2], parts[3]
	}
}

// DefaultTracesFilePath returns ~/.config/relayout/traces/traces.jsonl or an
// empty string if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "relayout", "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()
	return Config{
		Layout: LayoutConfig{
			AutoRelayout:  true,
			ExpectedRatio: layout.DefaultExpectedRatio,
			Device:        "auto",
			Container: ContainerConfig{
				Padding: "0px 1px",
				Color:   "#54A0FF",
			},
		},
		LogLevel: "debug",
		Tracing:  tc,
	}
}

// ValidateLayout checks the layout section.
func ValidateLayout(lc LayoutConfig) error {
	if lc.ExpectedRatio <= 0 {
		return fmt.Errorf("layout.expected_ratio must be positive, got %v", lc.ExpectedRatio)
	}
	if lc.Device != "" && lc.Device != "auto" {
		if _, err := device.ParseClass(lc.Device); err != nil {
			return fmt.Errorf("layout.device: %w", err)
		}
	}
	for slot, name := range lc.Strategies {
		if _, err := layout.ParseSlot(slot); err != nil {
			return fmt.Errorf("layout.strategies: %w", err)
		}
		if _, err := layout.StrategyByName(name); err != nil {
			return fmt.Errorf("layout.strategies[%s]: %w", slot, err)
		}
	}
	return nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := ValidateLayout(c.Layout); err != nil {
		return err
	}
	if err := c.Tracing.Validate(); err != nil {
		return err
	}
	return nil
}

// InitOptions turns the layout section into engine Init options.
// Callers validate first; invalid entries are skipped here.
func (lc LayoutConfig) InitOptions() []layout.InitOption {
	opts := []layout.InitOption{layout.WithAutoRelayout(lc.AutoRelayout)}
	for slotName, name := range lc.Strategies {
		slot, err := layout.ParseSlot(slotName)
		if err != nil {
			continue
		}
		fn, err := layout.StrategyByName(name)
		if err != nil {
			continue
		}
		opts = append(opts, layout.WithStrategy(slot, fn))
	}
	return opts
}

// Classifier returns the device classifier the layout section asks for.
func (lc LayoutConfig) Classifier() device.Classifier {
	if lc.Device == "" || lc.Device == "auto" {
		ua := lc.UserAgent
		return device.NewUAClassifier(func() string { return ua })
	}
	class, err := device.ParseClass(lc.Device)
	if err != nil {
		log.Warn(log.CatConfig, "unknown device class, using pc", "device", lc.Device)
	}
	return device.Static(class)
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# relayout configuration

layout:
  # Resize the container whenever the terminal is resized.
  auto_relayout: true

  # Blueprint width/height ratio. A PC in landscape without a pc/landscape
  # strategy lays the blueprint out at (height * expected_ratio) x height.
  # Edits are picked up while the demo is running.
  expected_ratio: 0.5633802816901409   # 320/568

  # Device class: auto (classify user_agent), pc, tablet or mobile.
  device: auto
  # user_agent: "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) ..."

  # Per-slot strategy overrides. Slots are <device>/<orientation>.
  # Built-in strategies: fill, square.
  # strategies:
  #   pc/landscape: fill
  #   tablet/portrait: square

  container:
    padding: 0px 1px   # CSS order: top right bottom left
    color: "#54A0FF"

# Debug logging (also: --debug or RELAYOUT_DEBUG=1)
debug: false
# log_path: debug.log
# log_level: debug    # debug, info, warn, error

# Distributed tracing of dispatch cycles
# tracing:
#   enabled: false                # Enable/disable tracing (default: false)
#   exporter: file                # none, file, stdout, otlp (default: file)
#   file_path: ~/.config/relayout/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0              # 0.0-1.0
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
