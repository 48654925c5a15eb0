package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hamed0406/owleyes/internal/config"
	"github.com/hamed0406/owleyes/internal/logging"
	"github.com/hamed0406/owleyes/internal/probe"
	"github.com/hamed0406/owleyes/internal/repo/driver"
	"github.com/hamed0406/owleyes/internal/scheduler"
)

func main() {
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if !cfg.SharedStore() {
		logger.Fatal("scheduler_store_unsupported",
			zap.String("store", cfg.StoreDriver),
			zap.String("hint", "set STORE_DRIVER=sqlite or postgres so the api and scheduler share monitors"),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := driver.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store_open_error", zap.Error(err))
	}
	defer store.Close()

	prober := probe.New(probe.Options{
		Timeout:     cfg.CheckTimeout,
		InsecureTLS: cfg.WebsiteTLSInsecure,
	})
	s := scheduler.New(
		logger,
		store,
		store,
		prober,
		cfg.IdleInterval,
		cfg.CheckTimeout,
		cfg.MaxConcurrentChecks,
		cfg.CatalogPageSize,
	)

	logger.Info("scheduler_start",
		zap.String("store", cfg.StoreDriver),
		zap.Duration("idle", cfg.IdleInterval),
		zap.Duration("check_timeout", cfg.CheckTimeout),
		zap.Int("max_concurrent_checks", cfg.MaxConcurrentChecks),
	)
	if err := s.Run(ctx); err != nil {
		_ = store.Close()
		logger.Fatal("scheduler_fatal", zap.Error(err))
	}
}
