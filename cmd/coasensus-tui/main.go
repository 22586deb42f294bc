package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coasensus/coasensus/internal/app"
	"github.com/coasensus/coasensus/internal/config"
	"github.com/coasensus/coasensus/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "coasensus-tui: %v\n", err)
		os.Exit(1)
	}
}

// run owns every resource so deferred closes happen before main exits
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	// The screen belongs to the UI, so logs go to a file
	logFile, err := os.OpenFile(cfg.TUILogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	log := app.NewLogger(cfg, logFile)
	log.Info("Starting coasensus terminal dashboard...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to initialize dashboard")
		return fmt.Errorf("initialize dashboard: %w", err)
	}
	defer a.Close()

	go a.RunHistoryPruner(ctx, cfg.HistoryRetention(), log)

	model := tui.NewModel(ctx, a.Presenter, a.Presenter.Page(), cfg.RefreshInterval())
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		log.WithError(err).Error("Terminal UI failed")
		return fmt.Errorf("terminal UI: %w", err)
	}

	log.Info("Terminal dashboard closed")
	return nil
}
