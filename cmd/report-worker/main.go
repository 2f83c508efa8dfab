package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendbot/internal/config"
	"spendbot/internal/core"
	"spendbot/internal/gateway"
	"spendbot/internal/log"
	"spendbot/internal/report"
	"spendbot/internal/storage"
	"spendbot/internal/window"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logCfg := log.DefaultConfig()
	logCfg.Component = log.ComponentWorker
	logger := log.New(logCfg)
	log.SetDefault(logger)

	logger.Info("Starting report-worker", log.FieldOperation, log.OpStartup)

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

	// Initialize AMQP gateway for pushing summaries
	client, err := gateway.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPInboundQueue, cfg.AMQPOutboundQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP gateway", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Summary push configured",
		"interval", cfg.SummaryPushInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.SummaryPushInterval)
	defer ticker.Stop()

	// Run an initial push on startup
	if err := pushSummaries(ctx, repo, client); err != nil {
		logger.Error("Initial summary push failed", "error", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := pushSummaries(ctx, repo, client); err != nil {
					logger.Error("Periodic summary push failed", "error", err)
				}
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("report-worker shutdown complete", log.FieldOperation, log.OpShutdown)
}

// pushSummaries sends every owner their month-to-date summary. Owner
// keys double as conversation IDs, so the reply routes back to the
// conversation that created the records.
func pushSummaries(ctx context.Context, repo *storage.Repository, client *gateway.Client) error {
	owners, err := repo.ListOwners(ctx)
	if err != nil {
		return err
	}

	today := core.Today(time.Now())
	win, err := window.Resolve(core.WindowMonth, today)
	if err != nil {
		return err
	}
	title := win.Start.Format("January 2006") + " (to date)"

	for _, owner := range owners {
		records, err := repo.QueryRange(ctx, owner, win.Start, win.End)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to query owner records",
				log.FieldComponent, log.ComponentWorker,
				log.FieldOwner, owner,
				log.FieldError, err.Error())
			continue
		}
		if len(records) == 0 {
			continue
		}

		text := report.RenderSummary(report.Summarize(records, win.Days), title)
		reply := gateway.OutboundReply{
			ConversationID: owner,
			Text:           text,
			Monospace:      true,
		}
		if err := client.Publish(ctx, reply); err != nil {
			slog.ErrorContext(ctx, "Failed to push summary",
				log.FieldComponent, log.ComponentWorker,
				log.FieldOwner, owner,
				log.FieldError, err.Error())
		}
	}

	slog.InfoContext(ctx, "Summary push complete", "owners", len(owners))
	return nil
}
