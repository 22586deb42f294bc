// Package tui renders the dashboard in a terminal.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/coasensus/coasensus/internal/dashboard"
)

// ViewBuilder runs render cycles
type ViewBuilder interface {
	BuildView(ctx context.Context) *dashboard.View
}

type viewMsg struct {
	view *dashboard.View
}

// tickMsg asks for a refresh; gen drops ticks superseded by a manual refresh
type tickMsg struct {
	gen int
}

// Model is the terminal dashboard
type Model struct {
	ctx     context.Context
	views   ViewBuilder
	refresh time.Duration
	page    dashboard.Page

	spinner spinner.Model
	view    *dashboard.View
	loading bool
	gen     int
	width   int
}

// NewModel creates the model; page is shown while the first cycle loads
func NewModel(ctx context.Context, views ViewBuilder, page dashboard.Page, refresh time.Duration) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = mutedStyle

	return &Model{
		ctx:     ctx,
		views:   views,
		refresh: refresh,
		page:    page,
		spinner: s,
		loading: true,
	}
}

// Init starts the first render cycle
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.load()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case viewMsg:
		m.view = msg.view
		m.loading = false
		m.gen++
		return m, m.scheduleTick(m.gen)

	case tickMsg:
		if msg.gen != m.gen || m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.load()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the screen
func (m *Model) View() string {
	sink := newTerminalSink(m.width)

	if m.view == nil {
		sink.Header(m.page)
		sink.Placeholder(m.spinner.View() + " Loading...")
		return sink.String()
	}

	dashboard.Render(m.view, sink)
	return sink.String() + m.statusLine()
}

func (m *Model) statusLine() string {
	status := "updated " + m.view.FetchedAt.Local().Format("15:04:05")
	if m.view.FetchedAt.IsZero() {
		status = "not updated"
	}
	if m.view.Cached {
		status += " (cached)"
	}
	if m.loading {
		status = m.spinner.View() + " refreshing · " + status
	}
	return mutedStyle.Render(fmt.Sprintf("%s · r refresh · q quit", status)) + "\n"
}

func (m *Model) load() tea.Cmd {
	return func() tea.Msg {
		return viewMsg{view: m.views.BuildView(m.ctx)}
	}
}

func (m *Model) scheduleTick(gen int) tea.Cmd {
	return tea.Tick(m.refresh, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}
