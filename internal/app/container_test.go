package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/todolist/internal/todos/application/commands"
	"github.com/felixgeelhaar/todolist/internal/todos/application/queries"
	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/felixgeelhaar/todolist/internal/todos/infrastructure/sweeplock"
	"github.com/felixgeelhaar/todolist/pkg/config"
	"github.com/felixgeelhaar/todolist/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppEnv:                 "test",
		AppVersion:             "test",
		DatabaseDriver:         "sqlite",
		SQLitePath:             filepath.Join(t.TempDir(), "nested", "todolist.db"),
		HTTPAddr:               "127.0.0.1:0",
		HTTPShutdownTimeout:    time.Second,
		PageDefaultSize:        5,
		PageMaxSize:            20,
		SweepEnabled:           true,
		SweepInterval:          time.Hour,
		SweepLockTTL:           10 * time.Second,
		OutboxPollInterval:     time.Hour,
		OutboxBatchSize:        10,
		OutboxMaxRetries:       3,
		OutboxRetentionDays:    7,
		OutboxCleanupInterval:  time.Hour,
		OutboxProcessorEnabled: false,
	}
}

func newLocalContainer(t *testing.T) *Container {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewContainer(context.Background(), localConfig(t), logger)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestNewContainer_LocalMode(t *testing.T) {
	c := newLocalContainer(t)

	assert.Equal(t, "sqlite", c.DBDriver.String())
	assert.NotEmpty(t, c.AppliedMigrations)
	assert.Nil(t, c.RedisClient)
	assert.IsType(t, &sweeplock.LocalLock{}, c.SweepLock)
	require.NotNil(t, c.InProcessEventBus)
	assert.Same(t, c.InProcessEventBus, c.EventPublisher)

	applied, err := c.Migrate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
	migrateOp := observability.T(observability.OperationKey, "migrations.run")
	assert.Equal(t, int64(2), c.Metrics.GetCounter(observability.MetricOperationTotal, migrateOp))

	health := c.Health.GetOverallHealth(context.Background())
	assert.Equal(t, observability.HealthStatusHealthy, health.Status)
}

func TestContainer_EventsReachTheActivitySubscriber(t *testing.T) {
	c := newLocalContainer(t)
	ctx := context.Background()

	added, err := c.AddItemHandler.Handle(ctx, commands.AddItemCommand{
		Description: "buy milk",
		DueDate:     time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	_, err = c.MarkDoneHandler.Handle(ctx, commands.MarkDoneCommand{ItemID: added.ID()})
	require.NoError(t, err)

	require.NoError(t, c.OutboxProcessor.ProcessOnce(ctx))

	assert.Equal(t, int64(1), c.Metrics.GetCounter(observability.MetricEventsConsumed,
		observability.T("event_type", item.RoutingKeyAdded)))
	assert.Equal(t, int64(1), c.Metrics.GetCounter(observability.MetricEventsConsumed,
		observability.T("event_type", item.RoutingKeyDone)))

	page, err := c.ListItemsHandler.Handle(ctx, queries.ListItemsQuery{
		Page: item.PageRequest{Page: 0, Size: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestContainer_Paging(t *testing.T) {
	c := newLocalContainer(t)

	paging := c.Paging()
	assert.Equal(t, 5, paging.DefaultSize)
	assert.Equal(t, 20, paging.MaxSize)

	deps := c.MCPDependencies()
	assert.Equal(t, 5, deps.DefaultPageSize)
	assert.Equal(t, 20, deps.MaxPageSize)
	assert.NotNil(t, deps.SweepPastDue)
}

func TestContainer_WorkerHealthHandler(t *testing.T) {
	c := newLocalContainer(t)
	handler := c.WorkerHealthHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestContainer_RunWorkerStopsWithContext(t *testing.T) {
	c := newLocalContainer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, c.RunWorker(ctx))
	assert.False(t, c.PastDueSweeper.IsRunning())
	assert.Equal(t, int64(1), c.Metrics.GetCounter(observability.MetricSweepRuns))
}
