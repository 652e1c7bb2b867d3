package cli

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/todolist/internal/shared/domain"
	"github.com/felixgeelhaar/todolist/internal/todos/application/commands"
	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/felixgeelhaar/todolist/pkg/observability"
)

// errNoApp is returned by commands that need a database when none is wired.
var errNoApp = errors.New("application not initialized - database connection required")

// Runtime runs the long-lived processes behind serve and worker.
type Runtime interface {
	Serve(ctx context.Context) error
	RunWorker(ctx context.Context) error
	Migrate(ctx context.Context) ([]string, error)
}

// App holds the CLI application dependencies.
type App struct {
	// Command Handlers
	AddItemHandler           *commands.AddItemHandler
	UpdateDescriptionHandler *commands.UpdateDescriptionHandler
	MarkDoneHandler          *commands.MarkDoneHandler
	MarkNotDoneHandler       *commands.MarkNotDoneHandler
	SweepPastDueHandler      *commands.SweepPastDueHandler

	// Query Handlers
	GetItemHandler   *queries.GetItemHandler
	ListItemsHandler *queries.ListItemsHandler

	Runtime Runtime
	Health  *observability.HealthRegistry
	Clock   domain.Clock

	DefaultPageSize int
	MaxPageSize     int
}

// AppConfig holds the dependencies for NewApp.
type AppConfig struct {
	AddItem           *commands.AddItemHandler
	UpdateDescription *commands.UpdateDescriptionHandler
	MarkDone          *commands.MarkDoneHandler
	MarkNotDone       *commands.MarkNotDoneHandler
	SweepPastDue      *commands.SweepPastDueHandler
	GetItem           *queries.GetItemHandler
	ListItems         *queries.ListItemsHandler
	Runtime           Runtime
	Health            *observability.HealthRegistry
	Clock             domain.Clock
	DefaultPageSize   int
	MaxPageSize       int
}

// NewApp creates a new CLI application with the provided handlers.
func NewApp(cfg AppConfig) *App {
	if cfg.Clock == nil {
		cfg.Clock = domain.SystemClock{}
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 12
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 100
	}
	return &App{
		AddItemHandler:           cfg.AddItem,
		UpdateDescriptionHandler: cfg.UpdateDescription,
		MarkDoneHandler:          cfg.MarkDone,
		MarkNotDoneHandler:       cfg.MarkNotDone,
		SweepPastDueHandler:      cfg.SweepPastDue,
		GetItemHandler:           cfg.GetItem,
		ListItemsHandler:         cfg.ListItems,
		Runtime:                  cfg.Runtime,
		Health:                   cfg.Health,
		Clock:                    cfg.Clock,
		DefaultPageSize:          cfg.DefaultPageSize,
		MaxPageSize:              cfg.MaxPageSize,
	}
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}

func requireApp() (*App, error) {
	if app == nil {
		return nil, errNoApp
	}
	return app, nil
}
