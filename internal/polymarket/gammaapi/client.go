package gammaapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/coasensus/coasensus/internal/config"
	"github.com/coasensus/coasensus/internal/metrics"
	"github.com/coasensus/coasensus/internal/ratelimit"
	"github.com/sirupsen/logrus"
)

const eventsEndpoint = "/events"

// maxBodyBytes caps how much of a response is read
const maxBodyBytes = 8 << 20

// EventsQuery holds the /events query parameters
type EventsQuery struct {
	Closed bool
	Limit  int
	Order  string
}

// QueryFromConfig builds the dashboard's fixed events query
func QueryFromConfig(cfg *config.Config) EventsQuery {
	return EventsQuery{
		Closed: cfg.EventsClosed,
		Limit:  cfg.EventsLimit,
		Order:  cfg.EventsOrder,
	}
}

// Values encodes the query parameters
func (q EventsQuery) Values() url.Values {
	v := url.Values{}
	v.Set("closed", strconv.FormatBool(q.Closed))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	return v
}

// Key identifies the query for caching
func (q EventsQuery) Key() string {
	return "events?" + q.Values().Encode()
}

// Client handles communication with the Polymarket Gamma API
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	log        *logrus.Logger
}

// NewClient creates a new Gamma API client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		baseURL:    cfg.GammaAPIBaseURL,
		httpClient: &http.Client{Timeout: cfg.GammaAPITimeout()},
		limiter:    ratelimit.New(cfg.GammaAPIRPS),
		log:        log,
	}
}

// ListEvents fetches events matching q, in server order.
// The body must be a JSON array; elements that do not decode as an Event are dropped.
func (c *Client) ListEvents(ctx context.Context, q EventsQuery) (events []Event, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordAPIRequest(eventsEndpoint, time.Since(start), err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u, err := url.Parse(c.baseURL + eventsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("parse URL: %w", err)
	}
	u.RawQuery = q.Values().Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	// Gamma API is public - no auth headers
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	events = make([]Event, 0, len(raw))
	for i, item := range raw {
		var event Event
		if err := json.Unmarshal(item, &event); err != nil {
			metrics.EventsDecodeFailures.Inc()
			c.log.WithError(err).WithField("index", i).Debug("Dropping undecodable event")
			continue
		}
		events = append(events, event)
	}

	return events, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
