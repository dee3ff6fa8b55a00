// Package help renders the key reference overlay from Markdown.
package help

import (
	"fmt"
	"strings"

	"github.com/TahaNaqv/counter-tui/internal/theme"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const intro = `# Counter

Each wallet owns one counter account, stored at an address derived from the
wallet key and the program ID. Every change is a transaction; the panel shows
the value read back once the transaction is **confirmed**.
`

// Section is a titled group of key bindings.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Model renders and caches the help overlay.
type Model struct {
	style    string
	sections []Section

	width    int
	rendered string
}

// New creates a help overlay rendered with the named glamour style
// ("dark", "light", "notty", ...).
func New(style string, sections ...Section) Model {
	if style == "" {
		style = "dark"
	}
	return Model{style: style, sections: sections}
}

// Markdown returns the overlay source.
func (m Model) Markdown() string {
	var b strings.Builder
	b.WriteString(intro)
	for _, s := range m.sections {
		fmt.Fprintf(&b, "\n## %s\n\n| Key | Action |\n|---|---|\n", s.Title)
		for _, k := range s.Bindings {
			h := k.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
	}
	return b.String()
}

// View renders the overlay for the given terminal width.
func (m *Model) View(width int) string {
	innerW := max(width-8, 30)
	if m.rendered == "" || m.width != innerW {
		m.width = innerW
		m.rendered = m.render(innerW)
	}
	footer := theme.StyleDimmed.Render("esc:close")
	return lipgloss.NewStyle().
		Width(innerW+4).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(lipgloss.JoinVertical(lipgloss.Left, m.rendered, footer))
}

func (m Model) render(width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return m.Markdown()
	}
	out, err := r.Render(m.Markdown())
	if err != nil {
		return m.Markdown()
	}
	return strings.TrimRight(out, "\n")
}
