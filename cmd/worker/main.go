package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/todolist/internal/app"
	"github.com/felixgeelhaar/todolist/pkg/config"
	"github.com/felixgeelhaar/todolist/pkg/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := observability.LoggerFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}
	logger = app.NewLogger(cfg).With("component", "worker")
	slog.SetDefault(logger)

	container, err := app.NewContainer(observability.WithSource(ctx, "worker"), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		return 1
	}
	defer container.Close()

	if err := container.RunWorker(ctx); err != nil {
		logger.Error("worker failed", "error", err)
		return 1
	}
	return 0
}
