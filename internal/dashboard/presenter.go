// Package dashboard turns fetched events into the ranked card view and drives
// display sinks with it.
package dashboard

import (
	"context"
	"time"

	"github.com/coasensus/coasensus/internal/config"
	"github.com/coasensus/coasensus/internal/fetcher"
	"github.com/coasensus/coasensus/internal/metrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	// PlaceholderText is shown when there are no events to display
	PlaceholderText = "Waiting for signal..."

	errorPrefix = "Error connecting to the Lighthouse: "
)

// Page holds the static page chrome
type Page struct {
	Title       string `json:"title"`
	Icon        string `json:"icon"`
	Tagline     string `json:"tagline"`
	Description string `json:"description"`
	SourceLabel string `json:"source_label"`
	Footer      string `json:"footer"`
}

// PageFromConfig reads the page chrome from cfg
func PageFromConfig(cfg *config.Config) Page {
	return Page{
		Title:       cfg.PageTitle,
		Icon:        cfg.PageIcon,
		Tagline:     cfg.PageTagline,
		Description: cfg.PageDescription,
		SourceLabel: cfg.SourceLabel,
		Footer:      cfg.FooterText,
	}
}

// View is the output of one render cycle
type View struct {
	CycleID     string    `json:"cycle_id"`
	Page        Page      `json:"page"`
	Cards       []Card    `json:"cards"`
	Placeholder string    `json:"placeholder,omitempty"`
	Error       string    `json:"error,omitempty"`
	Skipped     int       `json:"skipped"`
	FetchedAt   time.Time `json:"fetched_at"`
	RenderedAt  time.Time `json:"rendered_at"`
	Cached      bool      `json:"cached"`
}

// Source supplies events for a cycle
type Source interface {
	FetchMarkets(ctx context.Context) fetcher.Result
}

// SnapshotRecorder persists views built from fresh fetches
type SnapshotRecorder interface {
	RecordSnapshot(ctx context.Context, view *View) error
}

// Presenter runs render cycles
type Presenter struct {
	source   Source
	page     Page
	extract  ExtractOptions
	recorder SnapshotRecorder
	log      *logrus.Logger
	now      func() time.Time
}

// Option configures a Presenter
type Option func(*Presenter)

// WithRecorder enables snapshot history
func WithRecorder(r SnapshotRecorder) Option {
	return func(p *Presenter) { p.recorder = r }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(p *Presenter) { p.now = now }
}

// New creates a presenter reading from source
func New(source Source, cfg *config.Config, log *logrus.Logger, opts ...Option) *Presenter {
	p := &Presenter{
		source:  source,
		page:    PageFromConfig(cfg),
		extract: ExtractOptions{MarketPriceFallback: cfg.MarketPriceFallback},
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Page returns the page chrome
func (p *Presenter) Page() Page {
	return p.page
}

// BuildView fetches (or reuses) events and derives this cycle's view. It never
// fails: fetch errors become the view's error notice.
func (p *Presenter) BuildView(ctx context.Context) *View {
	start := time.Now()
	res := p.source.FetchMarkets(ctx)

	view := &View{
		CycleID:    uuid.NewString(),
		Page:       p.page,
		Cards:      []Card{},
		FetchedAt:  res.FetchedAt,
		RenderedAt: p.now(),
		Cached:     res.Cached,
	}

	var outcome string
	switch {
	case res.Err != nil:
		view.Error = errorPrefix + res.Err.Error()
		outcome = "error"

	default:
		for _, event := range res.Events {
			card, reason, ok := ExtractCard(event, p.extract)
			if !ok {
				view.Skipped++
				metrics.RecordSkippedEvent(string(reason))
				p.log.WithFields(logrus.Fields{
					"event_id": event.ID,
					"reason":   reason,
				}).Debug("Skipping event")
				continue
			}
			view.Cards = append(view.Cards, card)
		}

		outcome = "cards"
		if len(view.Cards) == 0 {
			view.Placeholder = PlaceholderText
			outcome = "placeholder"
		}
	}

	metrics.RecordRenderCycle(outcome, len(view.Cards), time.Since(start))
	p.log.WithFields(logrus.Fields{
		"cycle_id": view.CycleID,
		"outcome":  outcome,
		"cards":    len(view.Cards),
		"skipped":  view.Skipped,
		"cached":   view.Cached,
	}).Debug("Render cycle complete")

	if p.recorder != nil && !res.Cached && res.Err == nil {
		if err := p.recorder.RecordSnapshot(ctx, view); err != nil {
			p.log.WithError(err).WithField("cycle_id", view.CycleID).Warn("Failed to record snapshot")
		}
	}

	return view
}

// RenderCycle builds a view and replays it onto sink
func (p *Presenter) RenderCycle(ctx context.Context, sink Sink) *View {
	view := p.BuildView(ctx)
	Render(view, sink)
	return view
}
