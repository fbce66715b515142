package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tally/internal/accounts"
	"tally/internal/amqp"
	"tally/internal/config"
	apphttp "tally/internal/http"
	applog "tally/internal/log"
	"tally/internal/session"
	"tally/internal/storage"
	"tally/internal/transactions"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.Setup("tally")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if cfg.InsecureSecret() {
		logger.Warn("SESSION_SECRET not set, using the insecure development fallback. Do not run like this in production.")
	}

	// A failed store leaves the server up in degraded mode rather than
	// refusing to start: users get a clear notice instead of a dead host.
	storeReady := true
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository, running degraded", "error", err, "path", cfg.SQLiteDBPath)
		storeReady = false
	} else {
		defer repo.Close()
	}

	// AMQP is optional; without it, exports wait for the worker's periodic sweep.
	var publisher transactions.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client, exports deferred to periodic sweep", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	deps := apphttp.Deps{
		Sessions:   session.NewManager(cfg.SessionSecret, cfg.SessionTTL),
		StoreReady: storeReady,
	}
	if storeReady {
		deps.Accounts = accounts.NewService(repo, cfg.BcryptCost)
		deps.Transactions = transactions.NewService(repo, publisher)
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting tally server", "port", cfg.Port, "store_ready", storeReady)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
