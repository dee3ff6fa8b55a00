// Package panel renders the main counter panel: the current value, or what
// the user has to do before there is one, and the operation controls.
package panel

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/TahaNaqv/counter-tui/internal/theme"
	"github.com/TahaNaqv/counter-tui/internal/viewstate"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
)

const (
	fps         = 60
	restEpsilon = 0.01
)

// Control is one operation key shown under the value.
type Control struct {
	Key     string
	Label   string
	Enabled bool
}

// FrameMsg advances the value pulse animation.
type FrameMsg struct{ id int }

// Model holds the panel state.
type Model struct {
	View     viewstate.View
	Controls []Control
	Width    int

	spinner spinner.Model

	// Spring-driven highlight after the value changes; 1 right after the
	// change, settling to 0.
	spring   harmonica.Spring
	pulse    float64
	velocity float64
	animID   int
	animate  bool
}

// New creates a panel.
func New() Model {
	return Model{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.ColorPending))),
		spring:  harmonica.NewSpring(harmonica.FPS(fps), 6.0, 0.5),
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// SetView replaces the projected view. When a displayed value changes the
// panel starts a pulse and returns the command driving it.
func (m *Model) SetView(v viewstate.View) tea.Cmd {
	prev := m.View
	m.View = v
	if v.Kind != viewstate.KindValue {
		return nil
	}
	changed := prev.Kind == viewstate.KindValue && prev.Count != v.Count
	created := prev.Kind == viewstate.KindNotInitialized || (prev.Kind == viewstate.KindLoading && prev.Pending)
	if !changed && !created {
		return nil
	}
	m.pulse, m.velocity = 1, 0
	m.animID++
	m.animate = true
	return m.frame()
}

// Pulse returns the current highlight strength in [0, 1].
func (m Model) Pulse() float64 {
	return math.Max(0, math.Min(1, m.pulse))
}

func (m Model) frame() tea.Cmd {
	id := m.animID
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg { return FrameMsg{id: id} })
}

// Update advances the spinner and the pulse.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FrameMsg:
		if !m.animate || msg.id != m.animID {
			return m, nil
		}
		m.pulse, m.velocity = m.spring.Update(m.pulse, m.velocity, 0)
		if math.Abs(m.pulse) < restEpsilon && math.Abs(m.velocity) < restEpsilon {
			m.pulse, m.velocity = 0, 0
			m.animate = false
			return m, nil
		}
		return m, m.frame()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Render draws the panel.
func (m Model) Render() string {
	width := max(m.Width-2, 30)

	body := lipgloss.NewStyle().
		Width(width - 4).
		Align(lipgloss.Center).
		Padding(1, 0).
		Render(m.body())

	lines := []string{body}
	if m.View.Error != "" {
		lines = append(lines, lipgloss.PlaceHorizontal(width-4, lipgloss.Center, theme.StyleError.Render(m.View.Error)))
	}
	if len(m.Controls) > 0 {
		lines = append(lines, "", lipgloss.PlaceHorizontal(width-4, lipgloss.Center, m.controls()))
	}

	return theme.StyleBorder.
		Width(width).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m Model) body() string {
	switch m.View.Kind {
	case viewstate.KindPrompt:
		return theme.StyleHeader.Render("No wallet connected") + "\n" +
			theme.StyleDimmed.Render("press c to connect")
	case viewstate.KindAdapterNotReady:
		return lipgloss.NewStyle().Foreground(theme.ColorReadOnly).Render("Wallet cannot sign") + "\n" +
			theme.StyleDimmed.Render("configure a keypair to read and change the counter")
	case viewstate.KindLoading:
		label := "Loading counter"
		if m.View.Pending {
			label = "Waiting for confirmation"
		}
		return m.spinner.View() + " " + label
	case viewstate.KindValue:
		return m.value()
	case viewstate.KindNotInitialized:
		return lipgloss.NewStyle().Foreground(theme.ColorNotInitialized).Bold(true).Render("Not initialized") + "\n" +
			theme.StyleDimmed.Render("press i to create your counter")
	case viewstate.KindUnavailable:
		return theme.StyleError.Render("Counter unavailable") + "\n" +
			theme.StyleDimmed.Render("press r to retry")
	}
	return ""
}

func (m Model) value() string {
	style := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorValue)
	text := fmt.Sprintf("%d", m.View.Count)
	if p := m.Pulse(); p > 0.15 {
		style = style.Foreground(theme.ColorPulse)
		pad := int(math.Round(p * 2))
		text = strings.Repeat(" ", pad) + text + strings.Repeat(" ", pad)
		style = style.Background(theme.ColorBg)
	}
	return theme.StyleDimmed.Render("count") + "\n" + style.Render(text)
}

func (m Model) controls() string {
	parts := make([]string, 0, len(m.Controls))
	for _, c := range m.Controls {
		label := c.Key + " " + c.Label
		if c.Enabled {
			parts = append(parts, theme.StyleKeyEnabled.Render(label))
		} else {
			parts = append(parts, theme.StyleKeyDisabled.Render(label))
		}
	}
	return strings.Join(parts, "   ")
}
