package status

import (
	"strings"

	"github.com/TahaNaqv/counter-tui/internal/theme"
	"github.com/charmbracelet/lipgloss"
)

// WatchState is the account watcher's connection status.
type WatchState int

const (
	WatchOff WatchState = iota
	WatchConnecting
	WatchLive
)

// Model holds the status bar state.
type Model struct {
	Endpoint string
	Identity string // empty when no wallet is connected
	Address  string
	Label    string // wallet label, e.g. keypair file name
	ReadOnly bool
	Watch    WatchState
	Width    int
}

// New creates a status bar for endpoint.
func New(endpoint string) Model {
	return Model{Endpoint: endpoint}
}

// View renders the status bar.
func (m Model) View() string {
	width := max(m.Width, 40)
	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")

	parts := []string{theme.StyleDimmed.Render(m.Endpoint)}

	if m.Identity == "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ No wallet"))
	} else {
		wallet := "● " + theme.ShortKey(m.Identity)
		if m.Label != "" {
			wallet += " (" + m.Label + ")"
		}
		color := theme.ColorHealthy
		if m.ReadOnly {
			color = theme.ColorReadOnly
		}
		parts = append(parts,
			lipgloss.NewStyle().Foreground(color).Render(wallet),
			"PDA "+theme.ShortKey(m.Address),
		)
	}

	switch m.Watch {
	case WatchLive:
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("live"))
	case WatchConnecting:
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("watch connecting..."))
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(strings.Join(parts, sep))
}
