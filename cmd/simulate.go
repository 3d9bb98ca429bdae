package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/relayout/internal/config"
	"github.com/zjrosen/relayout/internal/device"
	"github.com/zjrosen/relayout/internal/host/memhost"
	"github.com/zjrosen/relayout/internal/layout"
	"github.com/zjrosen/relayout/internal/resolution"
	"github.com/zjrosen/relayout/internal/taskqueue"
	"github.com/zjrosen/relayout/internal/tracing"
)

var (
	simDevice    string
	simRatio     float64
	simContainer string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate WxH [WxH...]",
	Short: "Drive the engine through a sequence of viewport sizes",
	Long: `Drive the layout engine over an in-memory page through a sequence of
viewport sizes and print what each step did.

The first size is the initial page and gets a deferred layout pass, like a page
load. Every later size is a resize and goes through the keyboard filter.

Examples:
  # A phone rotating, then opening its keyboard
  relayout simulate --device mobile 390x844 844x390 390x844 390x500

  # A desktop browser falling back to the blueprint ratio
  relayout simulate --device pc --ratio 0.5 1000x800 1200x800`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&simDevice, "device", "", "device class: pc, tablet or mobile (default: from config)")
	simulateCmd.Flags().Float64Var(&simRatio, "ratio", 0, "expected width/height ratio (default: from config)")
	simulateCmd.Flags().StringVar(&simContainer, "container", "", "initial container size WxH (default: the body)")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	sizes := make([]layout.Size, 0, len(args))
	for _, a := range args {
		s, err := parseSize(a)
		if err != nil {
			return err
		}
		sizes = append(sizes, s)
	}

	lc := cfg.Layout
	if simDevice != "" {
		lc.Device = simDevice
	}
	if simRatio != 0 {
		lc.ExpectedRatio = simRatio
	}
	if err := config.ValidateLayout(lc); err != nil {
		return err
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	var container *memhost.Element
	if simContainer != "" {
		s, err := parseSize(simContainer)
		if err != nil {
			return fmt.Errorf("--container: %w", err)
		}
		container = memhost.NewElement("container", s.Width, s.Height).WithPadding(lc.Container.PaddingSides())
	}

	return simulate(cmd.OutOrStdout(), simulation{
		layout:    lc,
		device:    lc.Classifier(),
		sizes:     sizes,
		container: container,
		tracer:    provider,
	})
}

type simulation struct {
	layout    config.LayoutConfig
	device    device.Classifier
	sizes     []layout.Size
	container *memhost.Element
	tracer    *tracing.Provider
}

func simulate(out io.Writer, sim simulation) error {
	first := sim.sizes[0]
	page := memhost.New(first.Width, first.Height)
	if sim.container != nil {
		page.MarkContainer(sim.container)
	}
	queue := taskqueue.New()
	tracker := resolution.NewTracker(first.Width, first.Height)

	engine, err := layout.New(layout.Config{
		Page:       page,
		Scheduler:  queue,
		Device:     sim.device,
		Resolution: tracker,
		Tracer:     sim.tracer.Tracer(),
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	engine.AddLayoutChangeListener(layout.ListenerFunc(func(c layout.Change) error {
		_, err := fmt.Fprintf(out, "    -> layout changed: layout %gx%g browser %gx%g\n",
			c.LayoutWidth, c.LayoutHeight, c.BrowserWidth, c.BrowserHeight)
		return err
	}))
	engine.SetExpectedWidthHeightRatio(sim.layout.ExpectedRatio).
		Init(sim.layout.InitOptions()...)

	fmt.Fprintf(out, "%-10s initial\n", sizeString(first))
	engine.DoLayout(layout.Deferred)
	describe(out, engine.LastCycle())
	queue.Drain()

	for _, s := range sim.sizes[1:] {
		before := engine.LastCycle().ID
		page.Resize(s.Width, s.Height)
		aspects := tracker.Update(s.Width, s.Height)

		switch {
		case len(aspects) == 0:
			fmt.Fprintf(out, "%-10s unchanged\n", sizeString(s))
		case engine.LastCycle().ID == before:
			fmt.Fprintf(out, "%-10s %-16s ignored\n", sizeString(s), aspects)
		default:
			fmt.Fprintf(out, "%-10s %s\n", sizeString(s), aspects)
			describe(out, engine.LastCycle())
		}
		queue.Drain()
	}
	return nil
}

func describe(out io.Writer, c layout.Cycle) {
	via := ""
	if c.Fallback {
		via = " (blueprint)"
	}
	fmt.Fprintf(out, "    %s %s -> %s%s space %s layout %s\n",
		c.Device, c.BrowserOrientation, c.Slot, via, sizeString(c.Space), sizeString(c.After))
	if c.Err != nil {
		fmt.Fprintf(out, "    !! %v\n", c.Err)
	}
}

func sizeString(s layout.Size) string {
	return strconv.FormatFloat(s.Width, 'f', -1, 64) + "x" + strconv.FormatFloat(s.Height, 'f', -1, 64)
}

// parseSize parses "WxH", e.g. "390x844".
func parseSize(s string) (layout.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return layout.Size{}, fmt.Errorf("size %q: want WxH", s)
	}
	width, err := strconv.ParseFloat(w, 64)
	if err != nil || width < 0 {
		return layout.Size{}, fmt.Errorf("size %q: bad width", s)
	}
	height, err := strconv.ParseFloat(h, 64)
	if err != nil || height < 0 {
		return layout.Size{}, fmt.Errorf("size %q: bad height", s)
	}
	return layout.Size{Width: width, Height: height}, nil
}
