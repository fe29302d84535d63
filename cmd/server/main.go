package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tallyhq/tally/internal/storage/sqlite"
	"github.com/tallyhq/tally/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		slog.Warn("Ignoring invalid value", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return n
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/tally.db")
	addr := getEnv("ADDR", ":8080")
	maxReaders := getEnvInt("MAX_READERS", sqlite.DefaultMaxReaders)

	store, err := sqlite.New(sqlite.Options{
		Path:       dbPath,
		MaxReaders: maxReaders,
	})
	if err != nil {
		slog.Error("Failed to open storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Schema must be current before anything else touches the store.
	// A partially migrated schema is fatal to startup.
	if err := store.Migrate(context.Background()); err != nil {
		slog.Error("Schema migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Storage ready", "database", dbPath, "max_readers", maxReaders)

	// The conversational front-end attaches through storage.Store;
	// this process exposes only the operational endpoints.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	slog.Info("Server starting", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
