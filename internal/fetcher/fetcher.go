// Package fetcher memoizes the dashboard's single upstream query for a fixed TTL.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/coasensus/coasensus/internal/cache"
	"github.com/coasensus/coasensus/internal/metrics"
	"github.com/coasensus/coasensus/internal/polymarket/gammaapi"
	"github.com/sirupsen/logrus"
)

// EventLister is the upstream the fetcher reads from
type EventLister interface {
	ListEvents(ctx context.Context, q gammaapi.EventsQuery) ([]gammaapi.Event, error)
}

// Result is one FetchMarkets outcome. Err is set when the fetch failed; Events
// is then empty.
type Result struct {
	Events    []gammaapi.Event
	Err       error
	FetchedAt time.Time
	Cached    bool
}

// entry is the cached form of a Result
type entry struct {
	Events    []gammaapi.Event `json:"events"`
	Error     string           `json:"error,omitempty"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// Fetcher issues the events query at most once per TTL window
type Fetcher struct {
	lister EventLister
	store  cache.Store
	query  gammaapi.EventsQuery
	ttl    time.Duration
	log    *logrus.Logger
	now    func() time.Time

	// fill serializes cache population; capacity 1
	fill chan struct{}
}

// Option configures a Fetcher
type Option func(*Fetcher)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) { f.now = now }
}

// New creates a fetcher for query, memoized in store for ttl
func New(lister EventLister, store cache.Store, query gammaapi.EventsQuery, ttl time.Duration, log *logrus.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		lister: lister,
		store:  store,
		query:  query,
		ttl:    ttl,
		log:    log,
		now:    time.Now,
		fill:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchMarkets returns the events for the configured query. Within the TTL of
// the previous fetch the cached outcome, failures included, is returned without
// a network call.
func (f *Fetcher) FetchMarkets(ctx context.Context) Result {
	key := f.query.Key()

	if res, ok := f.lookup(ctx, key); ok {
		return res
	}

	select {
	case f.fill <- struct{}{}:
		defer func() { <-f.fill }()
	case <-ctx.Done():
		return Result{Events: []gammaapi.Event{}, Err: ctx.Err(), FetchedAt: f.now()}
	}

	// Another caller may have populated the entry while we waited.
	if res, ok := f.lookup(ctx, key); ok {
		return res
	}

	metrics.RecordCacheLookup("miss")
	fetchedAt := f.now()
	events, err := f.lister.ListEvents(ctx, f.query)

	e := entry{Events: events, FetchedAt: fetchedAt}
	if err != nil {
		f.log.WithError(err).WithField("query", key).Warn("Failed to fetch events")
		e.Events = []gammaapi.Event{}
		e.Error = err.Error()
	}
	if e.Events == nil {
		e.Events = []gammaapi.Event{}
	}

	// A cancelled caller says nothing about the upstream; don't pin it for a TTL.
	if err == nil || ctx.Err() == nil {
		f.persist(ctx, key, e)
	}

	return Result{Events: e.Events, Err: err, FetchedAt: fetchedAt}
}

func (f *Fetcher) lookup(ctx context.Context, key string) (Result, bool) {
	data, ok, err := f.store.Get(ctx, key)
	if err != nil {
		metrics.RecordCacheLookup("error")
		f.log.WithError(err).WithField("key", key).Warn("Cache lookup failed, fetching live")
		return Result{}, false
	}
	if !ok {
		return Result{}, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		f.log.WithError(err).WithField("key", key).Warn("Discarding undecodable cache entry")
		return Result{}, false
	}
	if f.now().Sub(e.FetchedAt) > f.ttl {
		return Result{}, false
	}

	metrics.RecordCacheLookup("hit")
	res := Result{Events: e.Events, FetchedAt: e.FetchedAt, Cached: true}
	if res.Events == nil {
		res.Events = []gammaapi.Event{}
	}
	if e.Error != "" {
		res.Err = errors.New(e.Error)
	}
	return res, true
}

func (f *Fetcher) persist(ctx context.Context, key string, e entry) {
	data, err := json.Marshal(e)
	if err != nil {
		f.log.WithError(err).Error("Failed to encode cache entry")
		return
	}
	if err := f.store.Set(ctx, key, data, f.ttl); err != nil {
		f.log.WithError(err).WithField("key", key).Warn("Failed to store cache entry")
	}
}
