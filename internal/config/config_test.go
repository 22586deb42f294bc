package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.GammaAPIBaseURL != "https://gamma-api.polymarket.com" {
		t.Errorf("GammaAPIBaseURL = %q", cfg.GammaAPIBaseURL)
	}
	if cfg.EventsLimit != 10 {
		t.Errorf("EventsLimit = %d, want 10", cfg.EventsLimit)
	}
	if cfg.EventsOrder != "volume24hr" {
		t.Errorf("EventsOrder = %q, want volume24hr", cfg.EventsOrder)
	}
	if cfg.EventsClosed {
		t.Error("EventsClosed should default to false")
	}
	if cfg.CacheTTL() != 60*time.Second {
		t.Errorf("CacheTTL() = %v, want 60s", cfg.CacheTTL())
	}
	if cfg.CacheBackend != CacheBackendMemory {
		t.Errorf("CacheBackend = %q, want memory", cfg.CacheBackend)
	}
	if cfg.HistoryEnabled() {
		t.Error("history should be disabled without DATABASE_DSN")
	}
	if cfg.TUILogFile != "coasensus-tui.log" {
		t.Errorf("TUILogFile = %q, want coasensus-tui.log", cfg.TUILogFile)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EVENTS_LIMIT", "25")
	t.Setenv("CACHE_TTL_SEC", "30")
	t.Setenv("MARKET_PRICE_FALLBACK", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("EVENTS_CLOSED", "not-a-bool")
	t.Setenv("TUI_LOG_FILE", "/var/log/coasensus/tui.log")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.EventsLimit != 25 {
		t.Errorf("EventsLimit = %d, want 25", cfg.EventsLimit)
	}
	if cfg.CacheTTL() != 30*time.Second {
		t.Errorf("CacheTTL() = %v, want 30s", cfg.CacheTTL())
	}
	if cfg.TUILogFile != "/var/log/coasensus/tui.log" {
		t.Errorf("TUILogFile = %q", cfg.TUILogFile)
	}
	if !cfg.MarketPriceFallback {
		t.Error("MarketPriceFallback should be true")
	}
	if cfg.EventsClosed {
		t.Error("unparseable bool should keep the default")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.example" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coasensus.yaml")
	body := "page_title: Signals\nevents_limit: 5\nredis_addr: ${TEST_REDIS_HOST}:6380\ncache_backend: redis\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("TEST_REDIS_HOST", "cache.internal")
	t.Setenv("EVENTS_LIMIT", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.PageTitle != "Signals" {
		t.Errorf("PageTitle = %q, want Signals", cfg.PageTitle)
	}
	if cfg.RedisAddr != "cache.internal:6380" {
		t.Errorf("RedisAddr = %q, want cache.internal:6380", cfg.RedisAddr)
	}
	if cfg.CacheBackend != CacheBackendRedis {
		t.Errorf("CacheBackend = %q, want redis", cfg.CacheBackend)
	}
	if cfg.EventsLimit != 7 {
		t.Errorf("EventsLimit = %d, env should win over file", cfg.EventsLimit)
	}
	if cfg.SourceLabel != "Polymarket" {
		t.Errorf("SourceLabel = %q, defaults should survive the overlay", cfg.SourceLabel)
	}
}

func TestLoadSecretFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dsn")
	if err := os.WriteFile(path, []byte("user:pw@tcp(db:3306)/coasensus\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATABASE_DSN_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DatabaseDSN != "user:pw@tcp(db:3306)/coasensus" {
		t.Errorf("DatabaseDSN = %q", cfg.DatabaseDSN)
	}
	if !cfg.HistoryEnabled() {
		t.Error("history should be enabled with a DSN")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty base url", func(c *Config) { c.GammaAPIBaseURL = "" }, true},
		{"zero limit", func(c *Config) { c.EventsLimit = 0 }, true},
		{"zero ttl", func(c *Config) { c.CacheTTLSec = 0 }, true},
		{"zero refresh", func(c *Config) { c.RefreshIntervalSec = 0 }, true},
		{"unknown backend", func(c *Config) { c.CacheBackend = "memcached" }, true},
		{"redis without addr", func(c *Config) {
			c.CacheBackend = CacheBackendRedis
			c.RedisAddr = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
