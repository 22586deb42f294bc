// Package app wires the dashboard components from configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/coasensus/coasensus/internal/cache"
	"github.com/coasensus/coasensus/internal/config"
	"github.com/coasensus/coasensus/internal/dashboard"
	"github.com/coasensus/coasensus/internal/fetcher"
	"github.com/coasensus/coasensus/internal/polymarket/gammaapi"
	"github.com/coasensus/coasensus/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// App holds the wired components
type App struct {
	Presenter *dashboard.Presenter
	Fetcher   *fetcher.Fetcher

	// Optional; nil when not configured
	DB    *storage.DB
	Redis *redis.Client
}

// NewLogger builds the JSON logrus logger used by every binary
func NewLogger(cfg *config.Config, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(out)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
		log.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
	}
	log.SetLevel(level)
	return log
}

// New connects the configured backends and builds the presenter
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	a := &App{}

	var store cache.Store
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		rdb, err := cache.ConnectRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.Redis = rdb
		store = cache.NewRedisStore(rdb, cfg.RedisKeyPrefix)
		log.WithField("addr", cfg.RedisAddr).Info("Redis cache connected")
	default:
		store = cache.NewMemoryStore(nil)
	}

	if cfg.HistoryEnabled() {
		db, err := storage.New(cfg, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := db.AutoMigrate(); err != nil {
			db.Close()
			a.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		a.DB = db
		log.Info("Snapshot history enabled")
	}

	client := gammaapi.NewClient(cfg, log)
	a.Fetcher = fetcher.New(client, store, gammaapi.QueryFromConfig(cfg), cfg.CacheTTL(), log)

	var opts []dashboard.Option
	if a.DB != nil {
		opts = append(opts, dashboard.WithRecorder(a.DB))
	}
	a.Presenter = dashboard.New(a.Fetcher, cfg, log, opts...)

	return a, nil
}

// RunHistoryPruner deletes snapshots older than retention once a day until ctx ends
func (a *App) RunHistoryPruner(ctx context.Context, retention time.Duration, log *logrus.Logger) {
	if a.DB == nil || retention <= 0 {
		return
	}

	prune := func() {
		deleted, err := a.DB.PruneBefore(ctx, time.Now().Add(-retention))
		if err != nil {
			log.WithError(err).Error("Failed to prune snapshot history")
			return
		}
		log.WithField("deleted", deleted).Info("Pruned snapshot history")
	}

	prune()
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}

// Close releases backend connections
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
}
