package termhost

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the demo's keybindings.
type KeyMap struct {
	Relayout key.Binding
	Grow     key.Binding
	Shrink   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Relayout: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "force a layout pass"),
		),
		Grow: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "widen the blueprint ratio"),
		),
		Shrink: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "narrow the blueprint ratio"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Bindings returns the bindings in help order.
func (k KeyMap) Bindings() []key.Binding {
	return []key.Binding{k.Relayout, k.Grow, k.Shrink, k.Help, k.Quit}
}
