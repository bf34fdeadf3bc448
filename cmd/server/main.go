package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"eagles/internal/app"
	"eagles/internal/config"
	"eagles/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	logger.SetupDefault(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("startup_failed", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	slog.Info("eagles_starting", "version", version, "env", cfg.Env, "store", cfg.Store)
	if err := a.Serve(ctx); err != nil {
		slog.Error("server_failed", "error", err)
		a.Close()
		os.Exit(1)
	}
}
