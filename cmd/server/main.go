// Package main is the entry point for the BookFinder API server.
//
// The main package stays minimal. It:
//  1. loads configuration (YAML file plus environment overrides)
//  2. builds the logger
//  3. hands both to internal/server and blocks until shutdown
//
// All actual logic lives in internal/.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/sakif/bookfinder/internal/config"
	"github.com/sakif/bookfinder/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (overrides CONFIG_PATH)")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger uses human-readable text locally and JSON everywhere else.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Log.SlogLevel()}
	if cfg.IsLocal() {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
