package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"chitieu/internal/backend"
	"chitieu/internal/cli"
	"chitieu/internal/config"
	apphttp "chitieu/internal/http"
	applog "chitieu/internal/log"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentHTTP, (*config.Config).Validate)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", bcfg.Type)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, result.Backend, apphttp.Options{
		Currency:    cfg.Currency,
		Location:    cfg.Location(),
		SnapshotTTL: cfg.SnapshotTTL,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 15 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := result.Close(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	srv.Start()
	logger.Info("Starting chitieu server", "port", cfg.Port, "backend", bcfg.Type, "currency", cfg.Currency)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
