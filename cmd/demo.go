package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/relayout/internal/config"
	"github.com/zjrosen/relayout/internal/log"
	"github.com/zjrosen/relayout/internal/termhost"
	"github.com/zjrosen/relayout/internal/tracing"
	"github.com/zjrosen/relayout/internal/watcher"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the layout engine in the terminal",
	Long: `Run the layout engine with the terminal as the viewport.

Resize the terminal to trigger dispatch cycles. Edits to layout.expected_ratio
in the config file are applied while the demo runs.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	configPath := viper.ConfigFileUsed()
	opts := termhost.Options{
		Layout:     cfg.Layout,
		ConfigPath: configPath,
		Tracer:     provider.Tracer(),
	}

	if configPath != "" {
		ctx, stop := context.WithCancel(context.Background())
		defer stop()
		changes, err := watcher.Watch(ctx, watcher.DefaultConfig(configPath))
		if err != nil {
			// Demo still works without live reload.
			log.ErrorErr(log.CatWatcher, "config watcher unavailable", err, "path", configPath)
		} else {
			opts.ConfigChanges = changes
			opts.Reload = layoutLoader(configPath)
		}
	}

	model, err := termhost.New(opts)
	if err != nil {
		return err
	}
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running demo: %w", err)
	}
	return nil
}

// layoutLoader re-reads the layout section of the config file at path.
func layoutLoader(path string) func() (config.LayoutConfig, error) {
	return func() (config.LayoutConfig, error) {
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return config.LayoutConfig{}, fmt.Errorf("reading config: %w", err)
		}
		lc := config.Defaults().Layout
		if err := v.UnmarshalKey("layout", &lc); err != nil {
			return config.LayoutConfig{}, fmt.Errorf("decoding layout: %w", err)
		}
		return lc, nil
	}
}
