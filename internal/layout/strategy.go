package layout

import (
	"fmt"
	"reflect"
	"runtime"
	"slices"
	"strings"

	"github.com/zjrosen/relayout/internal/device"
	"github.com/zjrosen/relayout/internal/host"
)

// Strategy sizes the container for the given space. The container is the
// element the strategy acts on; width and height are in layout units.
// A returned error (or a panic) is logged and does not stop the dispatch.
type Strategy func(container host.Element, width, height float64) error

// FillStrategy sets the container's pixel size to exactly width x height.
func FillStrategy(container host.Element, width, height float64) error {
	container.SetSize(width, height)
	return nil
}

// SquareStrategy sets the container to the largest square that fits.
func SquareStrategy(container host.Element, width, height float64) error {
	side := min(width, height)
	container.SetSize(side, side)
	return nil
}

var named = map[string]Strategy{
	"fill":   FillStrategy,
	"square": SquareStrategy,
}

// StrategyByName returns a built-in strategy by its configuration name.
func StrategyByName(name string) (Strategy, error) {
	fn, ok := named[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (want one of %s)", name, strings.Join(StrategyNames(), ", "))
	}
	return fn, nil
}

// StrategyNames lists the built-in strategy names in sorted order.
func StrategyNames() []string {
	names := make([]string, 0, len(named))
	for n := range named {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Slot is a (device class, orientation) pair.
type Slot struct {
	Device      device.Class
	Orientation Orientation
}

func (s Slot) String() string {
	return s.Device.String() + "/" + s.Orientation.String()
}

var (
	MobilePortrait  = Slot{device.Mobile, Portrait}
	MobileLandscape = Slot{device.Mobile, Landscape}
	TabletPortrait  = Slot{device.Tablet, Portrait}
	TabletLandscape = Slot{device.Tablet, Landscape}
	PCPortrait      = Slot{device.PC, Portrait}
	PCLandscape     = Slot{device.PC, Landscape}
)

// Slots lists the six slots in a stable order.
var Slots = []Slot{
	MobilePortrait, MobileLandscape,
	TabletPortrait, TabletLandscape,
	PCPortrait, PCLandscape,
}

// ParseSlot parses "device/orientation", e.g. "tablet/landscape".
func ParseSlot(s string) (Slot, error) {
	dev, orient, ok := strings.Cut(s, "/")
	if !ok {
		return Slot{}, fmt.Errorf("slot %q: want device/orientation", s)
	}
	class, err := device.ParseClass(dev)
	if err != nil {
		return Slot{}, fmt.Errorf("slot %q: %w", s, err)
	}
	switch strings.ToLower(strings.TrimSpace(orient)) {
	case "portrait":
		return Slot{class, Portrait}, nil
	case "landscape":
		return Slot{class, Landscape}, nil
	default:
		return Slot{}, fmt.Errorf("slot %q: unknown orientation %q", s, orient)
	}
}

// defaultStrategies fills every slot except PC/landscape. A missing
// PC/landscape entry means no custom strategy was configured, which the
// dispatcher answers with the blueprint fallback.
func defaultStrategies() map[Slot]Strategy {
	table := make(map[Slot]Strategy, len(Slots))
	for _, s := range Slots {
		if s == PCLandscape {
			continue
		}
		table[s] = FillStrategy
	}
	return table
}

func (e *Engine) lookup(s Slot) (Strategy, bool) {
	fn, ok := e.strategies[s]
	return fn, ok && fn != nil
}

// HasCustomPCLandscape reports whether Init installed a PC/landscape strategy.
func (e *Engine) HasCustomPCLandscape() bool {
	_, ok := e.lookup(PCLandscape)
	return ok
}

// funcName is the identity used when logging a failing strategy or listener.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return fmt.Sprintf("%T", fn)
	}
	if f := runtime.FuncForPC(v.Pointer()); f != nil {
		return f.Name()
	}
	return "unknown"
}
