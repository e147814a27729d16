package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the rates page key bindings with built-in help text.
// The amount input always has focus, so actions use keys that never
// produce printable characters.
type KeyMap struct {
	Quit     key.Binding
	Help     key.Binding
	PickSell key.Binding
	PickBuy  key.Binding
	Swap     key.Binding
	Refresh  key.Binding
	ClearIn  key.Binding
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Close    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		PickSell: key.NewBinding(
			key.WithKeys("ctrl+f", "f2"),
			key.WithHelp("ctrl+f", "from"),
		),
		PickBuy: key.NewBinding(
			key.WithKeys("ctrl+t", "f3"),
			key.WithHelp("ctrl+t", "to"),
		),
		Swap: key.NewBinding(
			key.WithKeys("ctrl+x", "f4"),
			key.WithHelp("ctrl+x", "swap"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r", "f5"),
			key.WithHelp("ctrl+r", "refresh"),
		),
		ClearIn: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear amount"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
	}
}

// ShortHelp returns the bindings shown in the status line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PickSell, k.PickBuy, k.Swap, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns the bindings listed in the help modal.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PickSell, k.PickBuy, k.Swap, k.Refresh},
		{k.ClearIn, k.Help, k.Quit},
		{k.Up, k.Down, k.Select, k.Close},
	}
}
