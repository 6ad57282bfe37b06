// Package main provides the artifact HTTP server for saeview.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saeviz/saeview/internal/config"
	"github.com/saeviz/saeview/internal/metrics"
	"github.com/saeviz/saeview/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	slog.Info("starting saeview-server", "port", cfg.ServerPort, "data_dir", cfg.DataDir)

	if fi, err := os.Stat(cfg.DataDir); err != nil || !fi.IsDir() {
		slog.Error("data directory is not readable", "dir", cfg.DataDir, "error", err)
		os.Exit(1)
	}

	collector := metrics.NewCollector()
	srv := server.New(cfg.DataDir, logger, collector)

	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // artifacts can be large
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("artifacts available", "url", fmt.Sprintf("http://localhost:%s/data/", cfg.ServerPort))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
