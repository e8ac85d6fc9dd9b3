package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CompetitorWatch/internal/app"
	"CompetitorWatch/internal/config"
	"CompetitorWatch/internal/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}

	logger.Info("competitor monitoring starting",
		"scrapeInterval", cfg.Scheduler.ScrapeInterval,
		"digestInterval", cfg.Scheduler.DigestInterval)

	if err := application.Run(ctx); err != nil {
		logger.Error("pipeline terminated", "error", err)
		os.Exit(1)
	}
}
