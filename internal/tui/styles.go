package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7C3AED") // Purple
	SecondaryColor = lipgloss.Color("#10B981") // Green
	ErrorColor     = lipgloss.Color("#EF4444") // Red
	BorderColor    = lipgloss.Color("#374151")
	TextColor      = lipgloss.Color("#F9FAFB")
	MutedColor     = lipgloss.Color("#9CA3AF")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	taglineStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(TextColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextColor)

	metricLabelStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				Align(lipgloss.Right)

	metricValueStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(SecondaryColor).
				Align(lipgloss.Right)

	errorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ErrorColor).
			Padding(0, 1)

	dividerStyle = lipgloss.NewStyle().
			Foreground(BorderColor)
)
