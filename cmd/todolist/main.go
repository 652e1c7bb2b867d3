package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/todolist/adapter/cli"
	"github.com/felixgeelhaar/todolist/internal/app"
	"github.com/felixgeelhaar/todolist/pkg/config"
	"github.com/felixgeelhaar/todolist/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()

	// Create context with cancellation
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = app.NewLogger(cfg)
	slog.SetDefault(logger)
	cli.SetLogger(logger)
	cli.Version = cfg.AppVersion

	// Commands that only print (version, help) still work without a database
	// in development.
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()

		cli.SetApp(cli.NewApp(cli.AppConfig{
			AddItem:           container.AddItemHandler,
			UpdateDescription: container.UpdateDescriptionHandler,
			MarkDone:          container.MarkDoneHandler,
			MarkNotDone:       container.MarkNotDoneHandler,
			SweepPastDue:      container.SweepPastDueHandler,
			GetItem:           container.GetItemHandler,
			ListItems:         container.ListItemsHandler,
			Runtime:           container,
			Health:            container.Health,
			Clock:             container.Clock,
			DefaultPageSize:   cfg.PageDefaultSize,
			MaxPageSize:       cfg.PageMaxSize,
		}))
	}

	cli.ExecuteContext(ctx)
}
