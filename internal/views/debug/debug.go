// Package debug provides a scrollable overlay of recent transactions, reads
// and watcher events.
package debug

import (
	"fmt"
	"strings"
	"time"

	"github.com/TahaNaqv/counter-tui/internal/theme"
	"github.com/charmbracelet/lipgloss"
)

const maxEntries = 200

// Entry is a single event log line.
type Entry struct {
	Time    time.Time
	Kind    string // "tx", "read", "ws", "err"
	Message string
}

// Model holds debug log state.
type Model struct {
	Entries []Entry
	Offset  int // scroll offset from the newest entry
	now     func() time.Time
}

// New creates an empty debug model.
func New() Model {
	return Model{now: time.Now}
}

// Add appends an entry, drops the oldest past the cap and scrolls back to
// the newest.
func (m *Model) Add(kind, format string, args ...interface{}) {
	now := time.Now
	if m.now != nil {
		now = m.now
	}
	m.Entries = append(m.Entries, Entry{
		Time:    now(),
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	})
	if len(m.Entries) > maxEntries {
		m.Entries = m.Entries[len(m.Entries)-maxEntries:]
	}
	m.Offset = 0
}

// ScrollUp moves the viewport towards older entries.
func (m *Model) ScrollUp(n int) {
	m.Offset = min(m.Offset+n, max(len(m.Entries)-1, 0))
}

// ScrollDown moves the viewport towards newer entries.
func (m *Model) ScrollDown(n int) {
	m.Offset = max(m.Offset-n, 0)
}

// View renders the log as an overlay panel.
func (m Model) View(width, height int) string {
	innerW := max(width-4, 20)
	visible := max(height-6, 3)

	title := theme.StyleHeader.Render(" ACTIVITY ")
	help := theme.StyleDimmed.Render(fmt.Sprintf("j/k:scroll  esc:close  %d entries", len(m.Entries)))
	panel := lipgloss.NewStyle().
		Width(innerW).
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder)

	if len(m.Entries) == 0 {
		body := theme.StyleDimmed.Render("  Nothing yet.")
		return panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", help))
	}

	end := max(len(m.Entries)-m.Offset, 0)
	start := max(end-visible, 0)

	lines := make([]string, 0, end-start)
	for _, e := range m.Entries[start:end] {
		ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05.000"))
		kind := lipgloss.NewStyle().Foreground(theme.KindColor(e.Kind)).Width(5).Render(e.Kind)
		msg := e.Message
		if limit := innerW - 24; limit > 3 && len(msg) > limit {
			msg = msg[:limit-3] + "..."
		}
		lines = append(lines, ts+" "+kind+" "+msg)
	}

	more := ""
	if m.Offset > 0 {
		more = theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d newer", m.Offset))
	}
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n"), more, help))
}
