package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHealthRegistry(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }
	down := func(ctx context.Context) error { return errors.New("connection refused") }

	t.Run("healthy when every check passes", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", DatabaseHealthChecker(ok))
		r.Register("redis", RedisHealthChecker(ok))

		health := r.GetOverallHealth(context.Background())

		assert.Equal(t, HealthStatusHealthy, health.Status)
		assert.Len(t, health.Checks, 2)
		assert.Equal(t, "database connection healthy", health.Checks["database"].Message)
	})

	t.Run("redis outage degrades", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", DatabaseHealthChecker(ok))
		r.Register("redis", RedisHealthChecker(down))

		health := r.GetOverallHealth(context.Background())

		assert.Equal(t, HealthStatusDegraded, health.Status)
		assert.Contains(t, health.Checks["redis"].Message, "connection refused")
	})

	t.Run("database outage is unhealthy", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("database", DatabaseHealthChecker(down))
		r.Register("rabbitmq", RabbitMQHealthChecker(down))

		health := r.GetOverallHealth(context.Background())

		assert.Equal(t, HealthStatusUnhealthy, health.Status)
	})

	t.Run("empty registry is healthy", func(t *testing.T) {
		r := NewHealthRegistry()

		assert.Equal(t, HealthStatusHealthy, r.GetOverallHealth(context.Background()).Status)
	})

	t.Run("slow check hits the timeout", func(t *testing.T) {
		r := NewHealthRegistry()
		r.SetTimeout(10 * time.Millisecond)
		r.Register("database", DatabaseHealthChecker(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}))

		health := r.GetOverallHealth(context.Background())

		assert.Equal(t, HealthStatusUnhealthy, health.Status)
		assert.Contains(t, health.Checks["database"].Message, "deadline exceeded")
	})
}

func TestWorst(t *testing.T) {
	assert.Equal(t, HealthStatusHealthy, Worst(nil))
	assert.Equal(t, HealthStatusDegraded, Worst(map[string]HealthCheckResult{
		"a": {Status: HealthStatusHealthy},
		"b": {Status: HealthStatusDegraded},
	}))
	assert.Equal(t, HealthStatusUnhealthy, Worst(map[string]HealthCheckResult{
		"a": {Status: HealthStatusDegraded},
		"b": {Status: HealthStatusUnhealthy},
	}))
}
