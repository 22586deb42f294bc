package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/coasensus/coasensus/internal/dashboard"
)

const (
	defaultWidth = 80
	metricWidth  = 14
)

// terminalSink renders a cycle as lipgloss-styled text
type terminalSink struct {
	b     strings.Builder
	width int

	title   string
	caption string
}

func newTerminalSink(width int) *terminalSink {
	if width <= 0 {
		width = defaultWidth
	}
	return &terminalSink{width: width}
}

func (s *terminalSink) Header(page dashboard.Page) {
	s.b.WriteString(headerStyle.Render(page.Icon + " " + page.Title))
	s.b.WriteString("\n")
	s.b.WriteString(taglineStyle.Render(page.Tagline))
	s.b.WriteString("\n")
	s.b.WriteString(mutedStyle.Render(page.Description))
	s.b.WriteString("\n")
	s.Divider()
}

func (s *terminalSink) Title(text, url string) {
	s.title = text
	s.caption = ""
}

func (s *terminalSink) Caption(text string) {
	s.caption = text
}

// Metric completes a card: title and caption on the left, metric on the right.
func (s *terminalSink) Metric(label, value string) {
	leftWidth := s.width - metricWidth - 2
	if leftWidth < 20 {
		leftWidth = 20
	}

	left := lipgloss.JoinVertical(lipgloss.Left,
		cardTitleStyle.Width(leftWidth).Render(s.title),
		mutedStyle.Width(leftWidth).Render(s.caption),
	)
	right := lipgloss.JoinVertical(lipgloss.Right,
		metricLabelStyle.Width(metricWidth).Render(label),
		metricValueStyle.Width(metricWidth).Render(value),
	)

	s.b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))
	s.b.WriteString("\n")
	s.title, s.caption = "", ""
}

func (s *terminalSink) Divider() {
	s.b.WriteString(dividerStyle.Render(strings.Repeat("─", s.width)))
	s.b.WriteString("\n")
}

func (s *terminalSink) Placeholder(text string) {
	s.b.WriteString(mutedStyle.Render(text))
	s.b.WriteString("\n")
}

func (s *terminalSink) Error(text string) {
	s.b.WriteString(errorStyle.Render(text))
	s.b.WriteString("\n")
}

func (s *terminalSink) Footer(text string) {
	s.Divider()
	s.b.WriteString(mutedStyle.Render(text))
	s.b.WriteString("\n")
}

func (s *terminalSink) String() string {
	return s.b.String()
}
