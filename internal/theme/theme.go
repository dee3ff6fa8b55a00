// Package theme provides the Lip Gloss color palette and reusable styles
// for the counter TUI. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import "github.com/charmbracelet/lipgloss"

// Counter state colors.
var (
	ColorValue          = lipgloss.Color("#22c55e")
	ColorPulse          = lipgloss.Color("#67e8f9")
	ColorNotInitialized = lipgloss.Color("#d97706")
	ColorPending        = lipgloss.Color("#2563eb")
	ColorReadOnly       = lipgloss.Color("#7c3aed")
)

// Debug log kind colors.
var (
	ColorKindTx    = lipgloss.Color("#a855f7")
	ColorKindRead  = lipgloss.Color("#06b6d4")
	ColorKindWatch = lipgloss.Color("#3b82f6")
	ColorKindErr   = lipgloss.Color("#dc2626")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)

	StyleKeyEnabled = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleKeyDisabled = lipgloss.NewStyle().
				Foreground(ColorBorder).
				Strikethrough(true)
)

// KindColor returns the color for a debug log kind.
func KindColor(kind string) lipgloss.Color {
	switch kind {
	case "tx":
		return ColorKindTx
	case "read":
		return ColorKindRead
	case "ws":
		return ColorKindWatch
	case "err":
		return ColorKindErr
	default:
		return ColorDimmed
	}
}

// ShortKey abbreviates a base58 key to its first and last four characters.
func ShortKey(s string) string {
	if len(s) <= 11 {
		return s
	}
	return s[:4] + "…" + s[len(s)-4:]
}
