// Package main provides the entry point for the video generation server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scriptsensei/videoforge/internal/bootstrap"
	"github.com/scriptsensei/videoforge/internal/config"
	"github.com/scriptsensei/videoforge/internal/server"
	"github.com/scriptsensei/videoforge/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting videoforge",
		slog.Int("port", cfg.Port),
		slog.String("redis_addr", cfg.RedisAddr()),
		slog.Int("workers", cfg.WorkerCount),
		slog.String("output_dir", cfg.OutputDir),
		slog.String("stock_provider", cfg.StockProvider),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
	)

	// Initialize dependencies using bootstrap
	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}
	defer func() { _ = deps.Redis.Close() }()

	// Background machinery: push hub and retry scheduler first, then the
	// recovery scan so pending work survives restarts, then the pool.
	deps.Hub.Start()
	deps.Scheduler.Start()

	recovered, err := worker.Recover(context.Background(), deps.Store, deps.Queue, logger)
	if err != nil {
		return fmt.Errorf("recover pending jobs: %w", err)
	}
	logger.Info("startup recovery complete", slog.Int("recovered", recovered))

	deps.Pool.Start()
	deps.Janitor.Start()

	router := server.NewRouter(deps.Handlers, deps.Registry, logger, server.DefaultConfig())
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Allow for large artifact downloads
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			slog.String("addr", srv.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-shutdownCh:
		logger.Info("received shutdown signal",
			slog.String("signal", sig.String()),
		)
	case err := <-errCh:
		return err
	}

	// Shutdown order: stop accepting HTTP traffic, reject further queue
	// offers, drain the workers, then halt the scheduler, janitor and hub.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	deps.Queue.Close()
	deps.Pool.Stop()
	deps.Scheduler.Stop()
	deps.Janitor.Stop()
	deps.Hub.Stop()

	logger.Info("server stopped gracefully")
	return nil
}
