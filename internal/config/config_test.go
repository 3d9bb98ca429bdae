package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/relayout/internal/device"
	"github.com/zjrosen/relayout/internal/host/memhost"
	"github.com/zjrosen/relayout/internal/layout"
	"github.com/zjrosen/relayout/internal/taskqueue"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.True(t, cfg.Layout.AutoRelayout)
	require.Equal(t, layout.DefaultExpectedRatio, cfg.Layout.ExpectedRatio)
	require.Equal(t, "auto", cfg.Layout.Device)
	require.False(t, cfg.Tracing.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestValidateLayout(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LayoutConfig)
		wantErr string
	}{
		{"defaults", func(*LayoutConfig) {}, ""},
		{"zero ratio", func(l *LayoutConfig) { l.ExpectedRatio = 0 }, "expected_ratio must be positive"},
		{"negative ratio", func(l *LayoutConfig) { l.ExpectedRatio = -1 }, "expected_ratio must be positive"},
		{"device tablet", func(l *LayoutConfig) { l.Device = "tablet" }, ""},
		{"device unknown", func(l *LayoutConfig) { l.Device = "fridge" }, "layout.device"},
		{"strategy ok", func(l *LayoutConfig) { l.Strategies = map[string]string{"pc/landscape": "fill"} }, ""},
		{"strategy bad slot", func(l *LayoutConfig) { l.Strategies = map[string]string{"pc": "fill"} }, "layout.strategies"},
		{"strategy bad name", func(l *LayoutConfig) { l.Strategies = map[string]string{"pc/landscape": "stretch"} }, "unknown strategy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := Defaults().Layout
			tt.mutate(&lc)
			err := ValidateLayout(lc)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidate_Tracing(t *testing.T) {
	cfg := Defaults()
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "carrier-pigeon"
	require.ErrorContains(t, cfg.Validate(), "tracing.exporter")
}

func TestPaddingSides(t *testing.T) {
	tests := []struct {
		padding                  string
		top, right, bottom, left string
	}{
		{"", "0px", "0px", "0px", "0px"},
		{"2px", "2px", "2px", "2px", "2px"},
		{"1px 2px", "1px", "2px", "1px", "2px"},
		{"1px 2px 3px", "1px", "2px", "3px", "2px"},
		{"1px 2px 3px 4px", "1px", "2px", "3px", "4px"},
	}
	for _, tt := range tests {
		t.Run(tt.padding, func(t *testing.T) {
			top, right, bottom, left := ContainerConfig{Padding: tt.padding}.PaddingSides()
			require.Equal(t, []string{tt.top, tt.right, tt.bottom, tt.left}, []string{top, right, bottom, left})
		})
	}
}

func TestInitOptions_InstallsStrategies(t *testing.T) {
	lc := Defaults().Layout
	lc.AutoRelayout = false
	lc.Strategies = map[string]string{"pc/landscape": "square", "bogus": "fill"}

	page := memhost.New(1000, 800)
	e, err := layout.New(layout.Config{Page: page, Scheduler: taskqueue.New()})
	require.NoError(t, err)
	defer e.Close()

	e.Init(lc.InitOptions()...)
	require.False(t, e.AutoRelayout())
	require.True(t, e.HasCustomPCLandscape())

	e.DoLayout(layout.Synchronous)
	require.Equal(t, 800.0, page.Container().Width)
	require.Equal(t, 800.0, page.Container().Height)
}

func TestClassifier(t *testing.T) {
	lc := LayoutConfig{Device: "tablet"}
	require.Equal(t, device.Tablet, lc.Classifier().Classify().Class())

	lc = LayoutConfig{Device: "auto", UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) Mobile/15E148"}
	require.Equal(t, device.Mobile, lc.Classifier().Classify().Class())

	lc = LayoutConfig{}
	require.Equal(t, device.PC, lc.Classifier().Classify().Class(), "empty user agent is a pc")
}

func TestDefaultConfigTemplate_LoadsAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg := Defaults()
	require.NoError(t, v.Unmarshal(&cfg))
	require.NoError(t, cfg.Validate())
	require.InDelta(t, layout.DefaultExpectedRatio, cfg.Layout.ExpectedRatio, 1e-12)
	require.Equal(t, "0px 1px", cfg.Layout.Container.Padding)
	require.False(t, cfg.Debug)
}

func TestWriteDefaultConfig_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
