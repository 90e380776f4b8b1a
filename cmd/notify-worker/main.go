package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"bankx/internal/amqp"
	"bankx/internal/config"
	applog "bankx/internal/log"
	"bankx/internal/storage"
	"bankx/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent("notify-worker")
	applog.SetDefault(logger)

	logger.Info("Starting notify-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	// The worker is the delivery half of the pipeline; without a broker
	// there is nothing to consume.
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notify-worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.NewDeliveryWorker(repo, amqpClient, cfg.SweepBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// On startup, re-publish anything that was committed while the broker
	// or this worker was down.
	if n, err := w.SweepPending(ctx); err != nil {
		logger.Error("Startup sweep failed", "error", err)
	} else if n > 0 {
		logger.Info("Startup sweep re-published pending notifications", "count", n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeForever(gctx, func(msg *amqp.NotificationMessage) error {
			return w.HandleNotification(gctx, msg)
		})
	})
	g.Go(func() error {
		return w.RunSweep(gctx, cfg.SweepInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
