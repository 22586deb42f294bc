package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coasensus/coasensus/internal/config"
	"github.com/coasensus/coasensus/internal/dashboard"
	"github.com/coasensus/coasensus/internal/fetcher"
	"github.com/coasensus/coasensus/internal/polymarket/gammaapi"
	"github.com/coasensus/coasensus/internal/storage"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type staticSource struct {
	result fetcher.Result
}

func (s staticSource) FetchMarkets(ctx context.Context) fetcher.Result {
	return s.result
}

type fakeHistory struct {
	snapshots []storage.Snapshot
	err       error
	gotLimit  int
}

func (f *fakeHistory) RecentSnapshots(ctx context.Context, limit int) ([]storage.Snapshot, error) {
	f.gotLimit = limit
	return f.snapshots, f.err
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(ctx context.Context) error { return p.err }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sampleResult() fetcher.Result {
	return fetcher.Result{
		FetchedAt: time.Unix(1_700_000_000, 0),
		Events: []gammaapi.Event{
			{
				Title:  "Will X happen?",
				Slug:   "will-x-happen",
				Volume: gammaapi.NewNumber("2500000"),
				Markets: []gammaapi.Market{{
					Group: []gammaapi.OutcomeGroup{{OutcomePrices: gammaapi.StringList{"0.73", "0.27"}}},
				}},
			},
			{Title: "Y", Volume: gammaapi.NewNumber("100")},
		},
	}
}

func newTestServer(t *testing.T, res fetcher.Result, history HistoryReader) (*httptest.Server, *Handler) {
	t.Helper()
	log := quietLogger()
	presenter := dashboard.New(staticSource{result: res}, config.Defaults(), log)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := NewHandler(ctx, presenter, history, time.Minute, []string{"*"}, log)
	server := httptest.NewServer(NewRouter(h, log))
	t.Cleanup(server.Close)
	return server, h
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestDashboardPage(t *testing.T) {
	server, _ := newTestServer(t, sampleResult(), nil)

	resp, body := get(t, server.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	for _, want := range []string{
		"Coasensus",
		"The Signal in the Noise.",
		"Will X happen?",
		"https://polymarket.com/event/will-x-happen",
		"Source: Polymarket | Volume: $2.5M",
		"73.0%",
		`http-equiv="refresh" content="60"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, ">Y<") {
		t.Error("event without markets should not be rendered")
	}
	if strings.Contains(body, dashboard.PlaceholderText) {
		t.Error("placeholder shown alongside cards")
	}
}

func TestDashboardPagePlaceholderAndError(t *testing.T) {
	t.Run("placeholder", func(t *testing.T) {
		server, _ := newTestServer(t, fetcher.Result{Events: []gammaapi.Event{}}, nil)
		_, body := get(t, server.URL+"/")
		if !strings.Contains(body, dashboard.PlaceholderText) {
			t.Error("placeholder missing")
		}
	})

	t.Run("error", func(t *testing.T) {
		server, _ := newTestServer(t, fetcher.Result{Err: errors.New("no route to host")}, nil)
		resp, body := get(t, server.URL+"/")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, fetch errors should still render a page", resp.StatusCode)
		}
		if !strings.Contains(body, "Error connecting to the Lighthouse: no route to host") {
			t.Error("error notice missing")
		}
		if strings.Contains(body, dashboard.PlaceholderText) {
			t.Error("placeholder shown alongside error")
		}
	})
}

func TestViewEndpoint(t *testing.T) {
	server, _ := newTestServer(t, sampleResult(), nil)

	resp, body := get(t, server.URL+"/api/view")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var view dashboard.View
	if err := json.Unmarshal([]byte(body), &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if len(view.Cards) != 1 {
		t.Fatalf("cards = %d, want 1", len(view.Cards))
	}
	if view.Cards[0].ProbabilityPercent != 73 || view.Cards[0].VolumeMillions != 2.5 {
		t.Errorf("card = %+v", view.Cards[0])
	}
	if view.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", view.Skipped)
	}
}

func TestViewEndpointOutOfRangeVolume(t *testing.T) {
	res := sampleResult()
	res.Events = append(res.Events, gammaapi.Event{
		Title:  "Overflow",
		Volume: gammaapi.NewNumber("1e400"),
		Markets: []gammaapi.Market{{
			Group: []gammaapi.OutcomeGroup{{OutcomePrices: gammaapi.StringList{"0.4"}}},
		}},
	})
	server, _ := newTestServer(t, res, nil)

	resp, body := get(t, server.URL+"/api/view")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var view dashboard.View
	if err := json.Unmarshal([]byte(body), &view); err != nil {
		t.Fatalf("decode view: %v (body %q)", err, body)
	}
	if len(view.Cards) != 2 {
		t.Fatalf("cards = %d, want 2", len(view.Cards))
	}
	if view.Cards[1].Title != "Overflow" || view.Cards[1].VolumeMillions != 0 {
		t.Errorf("card = %+v, want the overflowing volume shown as 0", view.Cards[1])
	}
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	_, h := newTestServer(t, sampleResult(), nil)
	rec := httptest.NewRecorder()

	h.writeJSON(rec, http.StatusOK, map[string]float64{"volume": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !json.Valid(rec.Body.Bytes()) {
		t.Errorf("body = %q, want a JSON error", rec.Body.String())
	}
}

func TestHistoryEndpoint(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		server, _ := newTestServer(t, sampleResult(), nil)
		resp, _ := get(t, server.URL+"/api/history")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		server, _ := newTestServer(t, sampleResult(), &fakeHistory{})
		resp, _ := get(t, server.URL+"/api/history?limit=abc")
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("ok", func(t *testing.T) {
		history := &fakeHistory{snapshots: []storage.Snapshot{{CycleID: "c1", CardCount: 1}}}
		server, _ := newTestServer(t, sampleResult(), history)
		resp, body := get(t, server.URL+"/api/history?limit=5")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if history.gotLimit != 5 {
			t.Errorf("limit = %d, want 5", history.gotLimit)
		}
		if !strings.Contains(body, `"count":1`) {
			t.Errorf("body = %s", body)
		}
	})

	t.Run("store error", func(t *testing.T) {
		server, _ := newTestServer(t, sampleResult(), &fakeHistory{err: errors.New("db down")})
		resp, _ := get(t, server.URL+"/api/history")
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", resp.StatusCode)
		}
	})
}

func TestHealthAndReady(t *testing.T) {
	server, h := newTestServer(t, sampleResult(), nil)

	resp, _ := get(t, server.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/health status = %d", resp.StatusCode)
	}

	resp, _ = get(t, server.URL+"/ready")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("/ready status = %d without dependencies", resp.StatusCode)
	}

	h.AddDependency("redis", fakePinger{err: errors.New("connection refused")})
	resp, body := get(t, server.URL+"/ready")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("/ready status = %d, want 503", resp.StatusCode)
	}
	if !strings.Contains(body, "redis") {
		t.Errorf("body = %s, want the failed dependency named", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t, sampleResult(), nil)
	get(t, server.URL+"/api/view")

	resp, body := get(t, server.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "coasensus_render_cycles_total") {
		t.Error("render cycle metric missing")
	}
}

func TestLiveFeedPushesViewOnConnect(t *testing.T) {
	server, _ := newTestServer(t, sampleResult(), nil)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var view dashboard.View
	if err := conn.ReadJSON(&view); err != nil {
		t.Fatalf("read view: %v", err)
	}
	if len(view.Cards) != 1 || view.Cards[0].Title != "Will X happen?" {
		t.Errorf("view cards = %+v", view.Cards)
	}
}

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin header", []string{"https://a.example"}, "", true},
		{"wildcard", []string{"*"}, "https://evil.example", true},
		{"listed", []string{"https://a.example"}, "https://a.example", true},
		{"not listed", []string{"https://a.example"}, "https://b.example", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := originAllowed(tt.allowed, tt.origin); got != tt.want {
				t.Errorf("originAllowed() = %v, want %v", got, tt.want)
			}
		})
	}
}
