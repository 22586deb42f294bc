package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/coasensus/coasensus/internal/secrets"
	"gopkg.in/yaml.v3"
)

// CacheBackend selects where fetched events are memoized
type CacheBackend string

const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendRedis  CacheBackend = "redis"
)

// Config holds all application configuration
type Config struct {
	// Environment
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`

	// Gamma API
	GammaAPIBaseURL    string  `yaml:"gamma_api_base_url"`
	GammaAPITimeoutSec int     `yaml:"gamma_api_timeout_sec"`
	GammaAPIRPS        float64 `yaml:"gamma_api_rps"`

	// Events query
	EventsLimit  int    `yaml:"events_limit"`
	EventsOrder  string `yaml:"events_order"`
	EventsClosed bool   `yaml:"events_closed"`

	// Cache
	CacheTTLSec    int          `yaml:"cache_ttl_sec"`
	CacheBackend   CacheBackend `yaml:"cache_backend"`
	RedisAddr      string       `yaml:"redis_addr"`
	RedisPassword  string       `yaml:"-"`
	RedisDB        int          `yaml:"redis_db"`
	RedisKeyPrefix string       `yaml:"redis_key_prefix"`

	// Snapshot history (disabled when DSN is empty)
	DatabaseDSN          string `yaml:"-"`
	DatabaseMaxConns     int    `yaml:"database_max_conns"`
	DatabaseMaxIdleMins  int    `yaml:"database_max_idle_time_mins"`
	HistoryRetentionDays int    `yaml:"history_retention_days"`

	// HTTP
	HTTPPort           int      `yaml:"http_port"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`

	// Presentation
	RefreshIntervalSec  int    `yaml:"refresh_interval_sec"`
	PageTitle           string `yaml:"page_title"`
	PageIcon            string `yaml:"page_icon"`
	PageTagline         string `yaml:"page_tagline"`
	PageDescription     string `yaml:"page_description"`
	SourceLabel         string `yaml:"source_label"`
	FooterText          string `yaml:"footer_text"`
	MarketPriceFallback bool   `yaml:"market_price_fallback"`

	// Terminal dashboard (stdout is the screen, so it logs to a file)
	TUILogFile string `yaml:"tui_log_file"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Environment:          "production",
		LogLevel:             "info",
		GammaAPIBaseURL:      "https://gamma-api.polymarket.com",
		GammaAPITimeoutSec:   10,
		GammaAPIRPS:          5.0,
		EventsLimit:          10,
		EventsOrder:          "volume24hr",
		EventsClosed:         false,
		CacheTTLSec:          60,
		CacheBackend:         CacheBackendMemory,
		RedisAddr:            "localhost:6379",
		RedisKeyPrefix:       "coasensus:",
		DatabaseMaxConns:     10,
		DatabaseMaxIdleMins:  5,
		HistoryRetentionDays: 7,
		HTTPPort:             8080,
		CORSAllowedOrigins:   []string{"*"},
		RefreshIntervalSec:   60,
		PageTitle:            "Coasensus",
		PageIcon:             "🌐",
		PageTagline:          "The Signal in the Noise.",
		PageDescription:      "Aggregated probabilities from the world's leading prediction markets.",
		SourceLabel:          "Polymarket",
		FooterText:           "© 2026 Coasensus. Built for the Public Good.",
		TUILogFile:           "coasensus-tui.log",
	}
}

// Load builds the configuration from defaults, the optional CONFIG_FILE and
// environment variables, in that order of precedence (env wins).
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.GammaAPIBaseURL = getEnv("GAMMA_API_BASE_URL", cfg.GammaAPIBaseURL)
	cfg.GammaAPITimeoutSec = getEnvInt("GAMMA_API_TIMEOUT_SEC", cfg.GammaAPITimeoutSec)
	cfg.GammaAPIRPS = getEnvFloat("GAMMA_API_RPS", cfg.GammaAPIRPS)
	cfg.EventsLimit = getEnvInt("EVENTS_LIMIT", cfg.EventsLimit)
	cfg.EventsOrder = getEnv("EVENTS_ORDER", cfg.EventsOrder)
	cfg.EventsClosed = getEnvBool("EVENTS_CLOSED", cfg.EventsClosed)
	cfg.CacheTTLSec = getEnvInt("CACHE_TTL_SEC", cfg.CacheTTLSec)
	cfg.CacheBackend = CacheBackend(getEnv("CACHE_BACKEND", string(cfg.CacheBackend)))
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = secrets.Optional("REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)
	cfg.RedisKeyPrefix = getEnv("REDIS_KEY_PREFIX", cfg.RedisKeyPrefix)
	cfg.DatabaseDSN = secrets.Optional("DATABASE_DSN", cfg.DatabaseDSN)
	cfg.DatabaseMaxConns = getEnvInt("DATABASE_MAX_CONNS", cfg.DatabaseMaxConns)
	cfg.DatabaseMaxIdleMins = getEnvInt("DATABASE_MAX_IDLE_TIME_MINS", cfg.DatabaseMaxIdleMins)
	cfg.HistoryRetentionDays = getEnvInt("HISTORY_RETENTION_DAYS", cfg.HistoryRetentionDays)
	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.RefreshIntervalSec = getEnvInt("REFRESH_INTERVAL_SEC", cfg.RefreshIntervalSec)
	cfg.PageTitle = getEnv("PAGE_TITLE", cfg.PageTitle)
	cfg.PageIcon = getEnv("PAGE_ICON", cfg.PageIcon)
	cfg.PageTagline = getEnv("PAGE_TAGLINE", cfg.PageTagline)
	cfg.PageDescription = getEnv("PAGE_DESCRIPTION", cfg.PageDescription)
	cfg.SourceLabel = getEnv("SOURCE_LABEL", cfg.SourceLabel)
	cfg.FooterText = getEnv("FOOTER_TEXT", cfg.FooterText)
	cfg.MarketPriceFallback = getEnvBool("MARKET_PRICE_FALLBACK", cfg.MarketPriceFallback)
	cfg.TUILogFile = getEnv("TUI_LOG_FILE", cfg.TUILogFile)

	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.CORSAllowedOrigins = parseCSV(origins)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile overlays a YAML file onto cfg. ${VAR} references are expanded.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

// Validate checks configuration for errors
func (c *Config) Validate() error {
	if c.GammaAPIBaseURL == "" {
		return fmt.Errorf("GAMMA_API_BASE_URL is required")
	}
	if c.EventsLimit <= 0 {
		return fmt.Errorf("EVENTS_LIMIT must be positive, got %d", c.EventsLimit)
	}
	if c.CacheTTLSec <= 0 {
		return fmt.Errorf("CACHE_TTL_SEC must be positive, got %d", c.CacheTTLSec)
	}
	if c.RefreshIntervalSec <= 0 {
		return fmt.Errorf("REFRESH_INTERVAL_SEC must be positive, got %d", c.RefreshIntervalSec)
	}
	if c.GammaAPITimeoutSec <= 0 {
		return fmt.Errorf("GAMMA_API_TIMEOUT_SEC must be positive, got %d", c.GammaAPITimeoutSec)
	}

	switch c.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND is redis")
		}
	default:
		return fmt.Errorf("invalid CACHE_BACKEND: %s (must be memory or redis)", c.CacheBackend)
	}

	return nil
}

// CacheTTL is how long a fetch result is reused
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// RefreshInterval is how often display clients re-render
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSec) * time.Second
}

// GammaAPITimeout bounds a single upstream request
func (c *Config) GammaAPITimeout() time.Duration {
	return time.Duration(c.GammaAPITimeoutSec) * time.Second
}

// DatabaseMaxIdleTime is the connection pool idle timeout
func (c *Config) DatabaseMaxIdleTime() time.Duration {
	return time.Duration(c.DatabaseMaxIdleMins) * time.Minute
}

// HistoryRetention is how long snapshots are kept; zero keeps them forever
func (c *Config) HistoryRetention() time.Duration {
	return time.Duration(c.HistoryRetentionDays) * 24 * time.Hour
}

// HistoryEnabled reports whether snapshot history is configured
func (c *Config) HistoryEnabled() bool {
	return c.DatabaseDSN != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCSV(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
