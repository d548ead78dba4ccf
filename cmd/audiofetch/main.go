package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"audiofetch/internal/config"
	"audiofetch/internal/jobs"
	"audiofetch/internal/playlist"
	"audiofetch/internal/search"
	"audiofetch/internal/web"
	"audiofetch/internal/ytclient"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup structured logging
	setupLogging(cfg.LogLevel)

	slog.Info("Starting audiofetch", "version", "1.0.0")

	if cfg.YouTubeAPIKey == "" {
		slog.Warn("No search API key configured, falling back to the extraction client for search")
	}

	// Initialize extraction client and collaborators
	client := ytclient.New()
	registry := jobs.NewRegistry(client, cfg.TempDir)
	playlists := playlist.NewStore()
	searcher := search.NewService(client, cfg.YouTubeAPIKey, cfg.SearchCacheTTL)

	server := web.NewServer(cfg, client, registry, playlists, searcher)

	return runServer(server, registry)
}

func runServer(server *web.Server, registry *jobs.Registry) error {
	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	// Sweep remaining artifacts once no more requests can reach them
	registry.Shutdown()

	slog.Info("Server shutdown complete")
	return nil
}

// setupLogging configures structured logging based on the log level
func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	logger := slog.New(handler)
	slog.SetDefault(logger)
}
