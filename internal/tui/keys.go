package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up            key.Binding
	Down          key.Binding
	Copy          key.Binding
	Quit          key.Binding
	ToggleNotices key.Binding
	HalfUp        key.Binding
	HalfDown      key.Binding
	PageUp        key.Binding
	PageDown      key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+k"),
		key.WithHelp("↑", "prev message"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+j"),
		key.WithHelp("↓", "next message"),
	),
	Copy: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "copy message"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
	ToggleNotices: key.NewBinding(
		key.WithKeys("ctrl+n"),
		key.WithHelp("C-n", "notices"),
	),
	HalfUp: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("C-u", "scroll chat"),
	),
	HalfDown: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("C-d", "scroll chat"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown"),
	),
}

// hints is the key legend shown in the status bar.
func (k keyMap) hints() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.HalfDown, k.ToggleNotices, k.Copy, k.Quit}
}
