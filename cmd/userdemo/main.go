package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tally/internal/demo"
	applog "tally/internal/log"
)

func main() {
	_ = godotenv.Load()

	logger := applog.Setup("userdemo")

	port := os.Getenv("USERDEMO_PORT")
	if port == "" {
		port = "8090"
	}
	dbPath := os.Getenv("USERDEMO_DB_PATH")
	if dbPath == "" {
		dbPath = "./data/userdemo.db"
	}

	store, err := demo.NewStore(dbPath)
	if err != nil {
		logger.Error("Failed to initialize demo store", "error", err, "path", dbPath)
		os.Exit(1)
	}
	defer store.Close()

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      demo.Handler(store),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting userdemo server", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
