package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"spendbot/internal/bot"
	"spendbot/internal/cache"
	"spendbot/internal/config"
	"spendbot/internal/gateway"
	"spendbot/internal/log"
	"spendbot/internal/ratelimit"
	"spendbot/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting spendbot", log.FieldOperation, log.OpStartup)

	// Load configuration
	cfg := config.Load()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite repository
	repo, err := storage.NewRepository(cfg.SQLiteDBPath, storage.MergePolicy(cfg.MergePolicy))
	if err != nil {
		logger.Error("Failed to initialize repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Initialize AMQP gateway for commands and replies
	client, err := gateway.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPInboundQueue, cfg.AMQPOutboundQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP gateway", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	replies := cache.NewReplyCache(cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
	limiter := ratelimit.NewLimiter(ratelimit.Config{CommandsPerMinute: cfg.CommandsPerMinute})
	defer limiter.Stop()

	dispatcher := bot.New(repo, replies, limiter, cfg.OwnerScoping)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return client.Consume(ctx, dispatcher.Handle)
	})

	// Periodic cache cleanup so expired entries don't sit in memory
	group.Go(func() error {
		ticker := time.NewTicker(cfg.SummaryCacheTTL)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if n := replies.CleanExpired(); n > 0 {
					slog.Info("Cleaned expired cache entries",
						log.FieldComponent, log.ComponentCache,
						"count", n)
				}
			}
		}
	})

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Shutdown finished with error", "error", err)
	}
	logger.Info("spendbot shutdown complete", log.FieldOperation, log.OpShutdown)
}
