package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coasensus_api_requests_total",
			Help: "Total number of Gamma API requests",
		},
		[]string{"endpoint", "status"}, // /events, success/error
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coasensus_api_request_duration_seconds",
			Help:    "Duration of Gamma API requests",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	EventsDecodeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coasensus_events_decode_failures_total",
			Help: "Events dropped because their JSON could not be decoded",
		},
	)

	// Cache metrics
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coasensus_cache_lookups_total",
			Help: "Fetch cache lookups",
		},
		[]string{"result"}, // hit, miss, error
	)

	// Render metrics
	RenderCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coasensus_render_cycles_total",
			Help: "Total number of render cycles",
		},
		[]string{"outcome"}, // cards, placeholder, error
	)

	RenderCycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coasensus_render_cycle_duration_seconds",
			Help:    "Duration of a render cycle including the fetch",
			Buckets: prometheus.DefBuckets,
		},
	)

	CardsRendered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coasensus_cards_rendered_total",
			Help: "Total number of display cards produced",
		},
	)

	EventsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coasensus_events_skipped_total",
			Help: "Events that produced no card",
		},
		[]string{"reason"}, // no_markets, no_group, no_price, bad_price
	)

	// Snapshot history metrics
	SnapshotWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coasensus_snapshot_writes_total",
			Help: "Snapshot history writes",
		},
		[]string{"status"},
	)

	// Live feed
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coasensus_websocket_clients",
			Help: "Currently connected websocket clients",
		},
	)

	// System health
	HealthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coasensus_health_checks_total",
			Help: "Total number of health check requests",
		},
		[]string{"status"}, // healthy/unhealthy
	)
)

// RecordAPIRequest records API request metrics
func RecordAPIRequest(endpoint string, duration time.Duration, err error) {
	APIRequests.WithLabelValues(endpoint, statusLabel(err)).Inc()
	APIRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCacheLookup records a cache hit, miss or store error
func RecordCacheLookup(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}

// RecordRenderCycle records the outcome of one render cycle
func RecordRenderCycle(outcome string, cards int, duration time.Duration) {
	RenderCycles.WithLabelValues(outcome).Inc()
	CardsRendered.Add(float64(cards))
	RenderCycleDuration.Observe(duration.Seconds())
}

// RecordSkippedEvent records an event that produced no card
func RecordSkippedEvent(reason string) {
	EventsSkipped.WithLabelValues(reason).Inc()
}

// RecordSnapshotWrite records a history write
func RecordSnapshotWrite(err error) {
	SnapshotWrites.WithLabelValues(statusLabel(err)).Inc()
}

// RecordHealthCheck records health check status
func RecordHealthCheck(healthy bool) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	HealthChecks.WithLabelValues(status).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
