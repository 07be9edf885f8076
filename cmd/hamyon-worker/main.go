package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"hamyon/internal/amqp"
	"hamyon/internal/config"
	applog "hamyon/internal/log"
	"hamyon/internal/remote"
	"hamyon/internal/services"
	"hamyon/internal/storage"
)

func main() {
	// Load .env for local development; absent in production is fine
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "hamyon-worker"})
	applog.SetDefault(logger)

	logger.Info("Starting hamyon-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.RemoteBaseURL == "" {
		logger.Error("SYNC_SERVER_URL is required for the sync worker")
		os.Exit(1)
	}

	store, err := storage.Open(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open store", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	pusher := remote.NewClient(cfg.RemoteBaseURL, cfg.RemoteToken)

	processor := services.NewSyncProcessor(store, pusher, services.SyncProcessorConfig{
		PollInterval: cfg.PollInterval,
		BatchSize:    cfg.SyncBatchSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := processor.Start(ctx); err != nil {
		logger.Error("Failed to start sync processor", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Nudge consumption is optional: without AMQP the poll loop alone
	// drains the outbox.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			err := amqpClient.ConsumeNudges(gctx, func(ctx context.Context, msg *amqp.OutboxNudgeMessage) {
				logger.InfoContext(ctx, "Received outbox nudge", "user_id", msg.UserID)
				processor.Nudge()
			})
			if err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	} else {
		logger.Info("AMQP disabled - relying on poll loop only")
	}

	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return processor.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped")
}
