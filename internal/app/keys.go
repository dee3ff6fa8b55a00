package app

import (
	"github.com/TahaNaqv/counter-tui/internal/counter"
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	Initialize key.Binding
	Increment  key.Binding
	Decrement  key.Binding
	Reset      key.Binding
	Close      key.Binding
	Refresh    key.Binding
	Wallet     key.Binding
	Connect    key.Binding
	Disconnect key.Binding
	Debug      key.Binding
	Help       key.Binding
	Up         key.Binding
	Down       key.Binding
	Escape     key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Initialize: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "initialize"),
		),
		Increment: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "+1"),
		),
		Decrement: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "-1"),
		),
		Reset: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "reset"),
		),
		Close: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "close"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Wallet: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "next wallet"),
		),
		Connect: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "connect"),
		),
		Disconnect: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "disconnect"),
		),
		Debug: key.NewBinding(
			key.WithKeys("`"),
			key.WithHelp("`", "activity log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close overlay"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Operation returns the binding that triggers op.
func (k KeyMap) Operation(op counter.Operation) key.Binding {
	switch op {
	case counter.OpInitialize:
		return k.Initialize
	case counter.OpIncrement:
		return k.Increment
	case counter.OpDecrement:
		return k.Decrement
	case counter.OpReset:
		return k.Reset
	default:
		return k.Close
	}
}
