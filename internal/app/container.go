package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/todolist/adapter/api"
	mcpadapter "github.com/felixgeelhaar/todolist/adapter/mcp"
	sharedApplication "github.com/felixgeelhaar/todolist/internal/shared/application"
	"github.com/felixgeelhaar/todolist/internal/shared/domain"
	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/todolist/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/todolist/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/todolist/internal/todos/application/commands"
	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/felixgeelhaar/todolist/internal/todos/application/subscribers"
	"github.com/felixgeelhaar/todolist/internal/todos/application/workers"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/felixgeelhaar/todolist/internal/todos/infrastructure/sweeplock"
	"github.com/felixgeelhaar/todolist/pkg/config"
	"github.com/felixgeelhaar/todolist/pkg/observability"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis; nil when REDIS_URL is empty or unreachable in development.
	RedisClient *redis.Client

	// Repositories
	ItemRepo   item.Repository
	OutboxRepo outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	Clock   domain.Clock
	Metrics *observability.InMemoryMetrics
	Health  *observability.HealthRegistry

	// Publishers
	EventPublisher     eventbus.Publisher
	InProcessEventBus  *eventbus.InProcessEventBus
	ActivitySubscriber *subscribers.ActivitySubscriber
	rabbitPublisher    *eventbus.RabbitMQPublisher

	// Command Handlers
	AddItemHandler           *commands.AddItemHandler
	UpdateDescriptionHandler *commands.UpdateDescriptionHandler
	MarkDoneHandler          *commands.MarkDoneHandler
	MarkNotDoneHandler       *commands.MarkNotDoneHandler
	SweepPastDueHandler      *commands.SweepPastDueHandler

	// Query Handlers
	GetItemHandler   *queries.GetItemHandler
	ListItemsHandler *queries.ListItemsHandler

	// Workers
	OutboxProcessor *outbox.Processor
	SweepLock       sweeplock.Locker
	PastDueSweeper  *workers.PastDueSweeper

	// AppliedMigrations lists the versions applied while the container started.
	AppliedMigrations []string
}

// Option customises a Container before wiring.
type Option func(*Container)

// WithClock replaces the system clock used by every handler and worker.
func WithClock(clock domain.Clock) Option {
	return func(c *Container) {
		c.Clock = clock
	}
}

// NewContainer creates and wires all dependencies. The schema is migrated
// before any handler is built.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Clock:   domain.SystemClock{},
		Metrics: observability.NewInMemoryMetrics(),
		Health:  observability.NewHealthRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.connectDatabase(ctx); err != nil {
		return nil, err
	}

	applied, err := c.Migrate(ctx)
	if err != nil {
		c.DBConn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	c.AppliedMigrations = applied
	if len(applied) > 0 {
		logger.Info("applied migrations", "versions", applied)
	}

	// Connect to Redis (optional in development)
	if err := c.connectRedis(ctx); err != nil {
		c.DBConn.Close()
		return nil, err
	}

	// Create repositories
	repos, err := newRepositories(c.DBConn)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.ItemRepo, c.OutboxRepo = repos.items, repos.outbox
	c.UnitOfWork = database.NewUnitOfWork(c.DBConn)

	// Create event publisher
	if err := c.setupPublisher(); err != nil {
		c.Close()
		return nil, err
	}

	// Create command handlers
	c.AddItemHandler = commands.NewAddItemHandler(c.ItemRepo, c.OutboxRepo, c.UnitOfWork, c.Clock, c.Metrics)
	c.UpdateDescriptionHandler = commands.NewUpdateDescriptionHandler(c.ItemRepo, c.OutboxRepo, c.UnitOfWork, c.Clock, c.Metrics)
	c.MarkDoneHandler = commands.NewMarkDoneHandler(c.ItemRepo, c.OutboxRepo, c.UnitOfWork, c.Clock, c.Metrics)
	c.MarkNotDoneHandler = commands.NewMarkNotDoneHandler(c.ItemRepo, c.OutboxRepo, c.UnitOfWork, c.Clock, c.Metrics)
	c.SweepPastDueHandler = commands.NewSweepPastDueHandler(c.ItemRepo, c.OutboxRepo, c.UnitOfWork, c.Clock, c.Metrics)

	// Create query handlers
	c.GetItemHandler = queries.NewGetItemHandler(c.ItemRepo)
	c.ListItemsHandler = queries.NewListItemsHandler(c.ItemRepo)

	// Create outbox processor
	processorConfig := outbox.DefaultProcessorConfig()
	processorConfig.PollInterval = cfg.OutboxPollInterval
	processorConfig.BatchSize = cfg.OutboxBatchSize
	processorConfig.MaxRetries = cfg.OutboxMaxRetries
	processorConfig.Retention = time.Duration(cfg.OutboxRetentionDays) * 24 * time.Hour
	processorConfig.CleanupInterval = cfg.OutboxCleanupInterval
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig, c.Clock, c.Metrics, logger)

	// Create past-due sweeper
	if c.RedisClient != nil {
		c.SweepLock = sweeplock.NewRedisLock(c.RedisClient, sweeplock.DefaultKey, cfg.SweepLockTTL)
	} else {
		c.SweepLock = sweeplock.NewLocalLock(c.Clock, cfg.SweepLockTTL)
	}
	c.PastDueSweeper = workers.NewPastDueSweeper(
		c.SweepPastDueHandler,
		c.SweepLock,
		workers.PastDueSweeperConfig{
			Interval: cfg.SweepInterval,
			Enabled:  cfg.SweepEnabled,
			LockTTL:  cfg.SweepLockTTL,
		},
		c.Metrics,
		logger,
	)

	c.registerHealthChecks()

	return c, nil
}

func (c *Container) connectDatabase(ctx context.Context) error {
	cfg := c.Config
	dbCfg := database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
		MaxConns:   cfg.DatabaseMaxConns,
	}
	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.DBConn = conn
	c.DBDriver = conn.Driver()
	c.Logger.Info("connected to database", "driver", c.DBDriver)
	return nil
}

func (c *Container) connectRedis(ctx context.Context) error {
	cfg := c.Config
	if cfg.RedisURL == "" {
		c.Logger.Info("redis not configured, sweep lock is process-local")
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, sweep lock will be process-local", "error", err)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, sweep lock will be process-local", "error", err)
		return nil
	}

	c.RedisClient = client
	c.Logger.Info("connected to Redis")
	return nil
}

// setupPublisher picks the outbox destination. Without a broker URL events go
// to the in-process bus; a configured broker is always behind the breaker.
func (c *Container) setupPublisher() error {
	cfg := c.Config
	if cfg.RabbitMQURL == "" {
		c.InProcessEventBus = eventbus.NewInProcessEventBus(c.Logger)
		c.ActivitySubscriber = subscribers.NewActivitySubscriber(c.Metrics, c.Logger)
		c.InProcessEventBus.RegisterConsumer(c.ActivitySubscriber)
		c.EventPublisher = c.InProcessEventBus
		c.Logger.Info("RabbitMQ not configured, using in-process event bus")
		return nil
	}

	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, c.Logger)
	if err != nil {
		// Fall back to noop publisher in development
		if !cfg.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		c.EventPublisher = eventbus.NewNoopPublisher(c.Logger)
		return nil
	}

	c.rabbitPublisher = publisher
	c.EventPublisher = eventbus.NewBreakerPublisher(publisher, eventbus.BreakerConfig{
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerOpenTimeout,
	}, c.Logger)
	return nil
}

func (c *Container) registerHealthChecks() {
	c.Health.Register("database", observability.DatabaseHealthChecker(c.DBConn.Ping))
	if c.RedisClient != nil {
		client := c.RedisClient
		c.Health.Register("redis", observability.RedisHealthChecker(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}))
	}
	if c.rabbitPublisher != nil {
		c.Health.Register("rabbitmq", observability.RabbitMQHealthChecker(c.rabbitPublisher.Ping))
	}
}

// Paging returns the page size bounds from configuration.
func (c *Container) Paging() api.PagingConfig {
	paging := api.DefaultPagingConfig()
	if c.Config.PageDefaultSize > 0 {
		paging.DefaultSize = c.Config.PageDefaultSize
	}
	if c.Config.PageMaxSize > 0 {
		paging.MaxSize = c.Config.PageMaxSize
	}
	return paging
}

// TodoHandler builds the HTTP handler over the container's handlers.
func (c *Container) TodoHandler() *api.TodoHandler {
	return api.NewTodoHandler(api.TodoHandlerConfig{
		AddItem:           c.AddItemHandler,
		UpdateDescription: c.UpdateDescriptionHandler,
		MarkDone:          c.MarkDoneHandler,
		MarkNotDone:       c.MarkNotDoneHandler,
		GetItem:           c.GetItemHandler,
		ListItems:         c.ListItemsHandler,
		Paging:            c.Paging(),
		Logger:            c.Logger,
	})
}

// APIServer builds the HTTP server listening on HTTP_ADDR.
func (c *Container) APIServer() *api.Server {
	serverCfg := api.DefaultServerConfig()
	if c.Config.HTTPAddr != "" {
		serverCfg.Addr = c.Config.HTTPAddr
	}
	return api.NewServer(serverCfg, c.TodoHandler(), c.Health, c.Metrics, c.Logger)
}

// MCPDependencies returns the handlers the MCP tools run.
func (c *Container) MCPDependencies() mcpadapter.ToolDependencies {
	paging := c.Paging()
	return mcpadapter.ToolDependencies{
		AddItem:           c.AddItemHandler,
		UpdateDescription: c.UpdateDescriptionHandler,
		MarkDone:          c.MarkDoneHandler,
		MarkNotDone:       c.MarkNotDoneHandler,
		SweepPastDue:      c.SweepPastDueHandler,
		GetItem:           c.GetItemHandler,
		ListItems:         c.ListItemsHandler,
		DefaultPageSize:   paging.DefaultSize,
		MaxPageSize:       paging.MaxSize,
	}
}

// Migrate applies pending migrations and returns their versions.
func (c *Container) Migrate(ctx context.Context) ([]string, error) {
	return observability.TimeOperationResult(ctx, c.Logger, c.Metrics, "migrations.run", func() ([]string, error) {
		return migrations.Run(ctx, c.DBConn)
	})
}

// Close releases all resources.
func (c *Container) Close() {
	if c.PastDueSweeper != nil && c.PastDueSweeper.IsRunning() {
		c.PastDueSweeper.Stop()
		c.Logger.Info("past-due sweeper stopped")
	}

	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis client", "error", err)
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database", "error", err)
		}
	}
}
