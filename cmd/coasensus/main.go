package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coasensus/coasensus/internal/app"
	"github.com/coasensus/coasensus/internal/config"
	"github.com/coasensus/coasensus/internal/web"
	"github.com/sirupsen/logrus"
)

func main() {
	// Bootstrap logger until the configured level is known
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	log = app.NewLogger(cfg, os.Stdout)
	log.Info("Starting coasensus dashboard...")

	log.WithFields(logrus.Fields{
		"environment":          cfg.Environment,
		"events_limit":         cfg.EventsLimit,
		"events_order":         cfg.EventsOrder,
		"cache_backend":        cfg.CacheBackend,
		"cache_ttl_sec":        cfg.CacheTTLSec,
		"refresh_interval_sec": cfg.RefreshIntervalSec,
		"history_enabled":      cfg.HistoryEnabled(),
	}).Info("Configuration loaded")

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize dashboard")
	}
	defer a.Close()

	// A nil *storage.DB must not leak into the interface
	var history web.HistoryReader
	if a.DB != nil {
		history = a.DB
	}

	handler := web.NewHandler(ctx, a.Presenter, history, cfg.RefreshInterval(), cfg.CORSAllowedOrigins, log)
	if a.Redis != nil {
		rdb := a.Redis
		handler.AddDependency("redis", web.PingFunc(func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}))
	}
	if a.DB != nil {
		handler.AddDependency("database", a.DB)
	}

	go a.RunHistoryPruner(ctx, cfg.HistoryRetention(), log)

	// WriteTimeout stays unset so live feeds are not cut off; the router
	// bounds ordinary requests itself.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           web.NewRouter(handler, log),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig).Info("Received shutdown signal")
	case err := <-errChan:
		log.WithError(err).Error("HTTP server failed")
	}

	// Ends live feeds and the pruner before the server drains
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	log.Info("Graceful shutdown complete")
}
