package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"sitewatch/internal/config"
	"sitewatch/internal/httpapi"
	"sitewatch/internal/logging"
	"sitewatch/internal/metrics"
	"sitewatch/internal/notify"
	"sitewatch/internal/probe"
	"sitewatch/internal/repo"
	"sitewatch/internal/repo/memory"
	"sitewatch/internal/repo/postgres"
	"sitewatch/internal/repo/sqlite"
	"sitewatch/internal/scheduler"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sites, checks, webhooks, closeStore, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("open_store", zap.String("driver", cfg.DatabaseDriver), zap.Error(err))
	}
	defer closeStore()

	metrics.Init()

	checker := probe.NewHTTPChecker(cfg.ProbeTimeout)
	checker.Policy = probe.AcceptRange(cfg.AcceptStatusLo, cfg.AcceptStatusHi)

	dispatcher := notify.NewDispatcher(
		logger,
		webhooks,
		notify.NewWebhook(cfg.NotifyTimeout),
		cfg.NotifyAttempts,
		cfg.NotifyBackoff,
	)
	detector := scheduler.NewDetector(logger, sites, checks)
	sched := scheduler.New(logger, sites, checker, detector, dispatcher, cfg.ProbeTimeout)

	if err := sched.Start(ctx); err != nil {
		logger.Fatal("scheduler_start", zap.Error(err))
	}

	api := &httpapi.Server{
		Logger:   logger,
		Sites:    sites,
		Checks:   checks,
		Webhooks: webhooks,
		Monitor:  sched,
	}
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.Router(cfg.AdminAPIKeys, cfg.RatePerMin, cfg.RateBurst),
	}

	go func() {
		logger.Info("api_listen",
			zap.String("addr", cfg.Addr),
			zap.String("driver", cfg.DatabaseDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_serve", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown", zap.Error(err))
	}
	sched.Stop(cfg.ShutdownGrace)
	logger.Info("bye")
}

func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.SiteStore, repo.CheckStore, repo.WebhookStore, func(), error) {
	switch cfg.DatabaseDriver {
	case "", "memory":
		s := memory.New()
		return s, s, s, func() {}, nil
	case "sqlite":
		path := cfg.DatabaseURL
		if path == "" {
			path = "sitewatch.db"
		}
		s, err := sqlite.New(ctx, path)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return s, s, s, func() { _ = s.Close() }, nil
	case "postgres":
		s, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return s, s, s, s.Close, nil
	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}
