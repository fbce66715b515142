package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tally/internal/amqp"
	"tally/internal/config"
	"tally/internal/export"
	exportgoogle "tally/internal/export/google"
	exportmem "tally/internal/export/memory"
	applog "tally/internal/log"
	"tally/internal/storage"
	"tally/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.Setup("tally-worker")
	logger.Info("Starting tally-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Statement target: Google Sheets when configured, in-memory otherwise
	// so local runs still drain the queue.
	var statement export.StatementWriter
	if cfg.ExportSpreadsheetID != "" {
		client, err := exportgoogle.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		statement = client
		logger.Info("Google Sheets statement initialized", "spreadsheet_id", cfg.ExportSpreadsheetID, "sheet", cfg.ExportSheetName)
	} else {
		statement = exportmem.NewWriter()
		logger.Warn("No EXPORT_SPREADSHEET_ID provided - exporting to in-memory statement")
	}

	exportWorker := worker.NewExportWorker(repo, statement, cfg.ExportBatchSize)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catch up on anything missed while the worker was down.
	if err := exportWorker.ProcessPending(ctx); err != nil {
		logger.Error("Startup export sweep failed", "error", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	// Queue consumer (optional: without AMQP only the periodic sweep runs)
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeTransactionExport(ctx, func(msg *amqp.TransactionExportMessage) error {
				return exportWorker.HandleExportMessage(ctx, msg)
			})
		})
	} else {
		logger.Info("AMQP disabled - relying on the periodic sweep only")
	}

	// Periodic sweep for messages the queue lost
	g.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := exportWorker.ProcessPending(ctx); err != nil {
					logger.Error("Periodic export sweep failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
