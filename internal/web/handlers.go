package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/coasensus/coasensus/internal/dashboard"
	"github.com/coasensus/coasensus/internal/metrics"
	"github.com/coasensus/coasensus/internal/storage"
	"github.com/sirupsen/logrus"
)

// ViewBuilder runs render cycles
type ViewBuilder interface {
	BuildView(ctx context.Context) *dashboard.View
}

// HistoryReader lists recorded snapshots
type HistoryReader interface {
	RecentSnapshots(ctx context.Context, limit int) ([]storage.Snapshot, error)
}

// Pinger is a dependency checked by /ready
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger
type PingFunc func(ctx context.Context) error

// Ping implements Pinger
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Handler serves the dashboard endpoints
type Handler struct {
	views   ViewBuilder
	history HistoryReader
	deps    map[string]Pinger
	refresh time.Duration
	origins []string
	log     *logrus.Logger

	// shutdown ends live feeds
	shutdown context.Context
}

// NewHandler creates a handler. history may be nil when snapshot history is disabled.
func NewHandler(shutdown context.Context, views ViewBuilder, history HistoryReader, refresh time.Duration, origins []string, log *logrus.Logger) *Handler {
	return &Handler{
		views:    views,
		history:  history,
		deps:     make(map[string]Pinger),
		refresh:  refresh,
		origins:  origins,
		log:      log,
		shutdown: shutdown,
	}
}

// AddDependency registers a readiness check
func (h *Handler) AddDependency(name string, p Pinger) {
	h.deps[name] = p
}

// Dashboard renders the HTML page
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	view := h.views.BuildView(r.Context())

	sink := newHTMLSink(int(h.refresh.Seconds()))
	dashboard.Render(view, sink)
	if !view.FetchedAt.IsZero() {
		sink.page.UpdatedAt = view.FetchedAt.UTC().Format("15:04:05 MST")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := sink.Render(w); err != nil {
		h.log.WithError(err).Error("Failed to render dashboard page")
	}
}

// View returns the current view as JSON
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.views.BuildView(r.Context()))
}

// History returns recent snapshots
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "snapshot history is disabled"})
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	snapshots, err := h.history.RecentSnapshots(r.Context(), limit)
	if err != nil {
		h.log.WithError(err).Error("Failed to load snapshot history")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "history unavailable"})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	metrics.RecordHealthCheck(true)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready reports whether every registered dependency answers
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		metrics.RecordHealthCheck(false)
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"failed": failed,
		})
		return
	}

	metrics.RecordHealthCheck(true)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// writeJSON encodes v up front; an unencodable value becomes a 500
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		h.log.WithError(err).Error("Failed to encode JSON response")
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.log.WithError(err).Debug("Failed to write JSON response")
	}
}
