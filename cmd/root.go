package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/relayout/internal/config"
	"github.com/zjrosen/relayout/internal/log"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts, so the OSC 11 reply cannot race the
	// program's input loop.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version    = "dev"
	cfgFile    string
	debug      bool
	cfg        config.Config
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "relayout",
	Short: "Responsive layout dispatch engine",
	Long: `relayout classifies the device, measures the viewport, runs the sizing
strategy for the device class and orientation against a layout container and
notifies listeners when the container actually changed.

Run without a subcommand to start the terminal demo.`,
	Version:      version,
	RunE:         runDemo,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentPreRunE = setupLogging
	rootCmd.PersistentPostRunE = teardownLogging

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .relayout/config.yaml, then ~/.config/relayout/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false,
		"enable debug logging")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	viper.SetEnvPrefix("RELAYOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	defaults := config.Defaults()
	viper.SetDefault("layout.auto_relayout", defaults.Layout.AutoRelayout)
	viper.SetDefault("layout.expected_ratio", defaults.Layout.ExpectedRatio)
	viper.SetDefault("layout.device", defaults.Layout.Device)
	viper.SetDefault("layout.user_agent", defaults.Layout.UserAgent)
	viper.SetDefault("layout.container.padding", defaults.Layout.Container.Padding)
	viper.SetDefault("layout.container.color", defaults.Layout.Container.Color)
	viper.SetDefault("log_path", "debug.log")
	viper.SetDefault("log_level", defaults.LogLevel)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .relayout/config.yaml (current directory)
		// 2. ~/.config/relayout/config.yaml (user config)
		if _, err := os.Stat(config.DefaultPath); err == nil {
			viper.SetConfigFile(config.DefaultPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "relayout"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// A missing config file is fine; `relayout config init` writes one.
	_ = viper.ReadInConfig()

	cfg = defaults
	_ = viper.Unmarshal(&cfg)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	if !cfg.Debug {
		return nil
	}

	var (
		cleanup func()
		err     error
	)
	if cmd == rootCmd || cmd == demoCmd {
		// stdout belongs to the renderer
		cleanup, err = log.InitWithTeaLog(cfg.LogPath, "relayout")
	} else {
		cleanup, err = log.Init(cfg.LogPath)
	}
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	log.SetMinLevel(log.ParseLevel(cfg.LogLevel))
	logCleanup = cleanup
	log.Debug(log.CatConfig, "config loaded", "file", viper.ConfigFileUsed(), "command", cmd.Name())
	return nil
}

func teardownLogging(cmd *cobra.Command, args []string) error {
	if logCleanup != nil {
		logCleanup()
		logCleanup = nil
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
