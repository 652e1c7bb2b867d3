package observability

import (
	"context"
	"log/slog"
	"time"
)

// Timer measures one run of a named operation. Stop reports the duration
// to whichever of a logger and a metrics collector were attached.
type Timer struct {
	operation string
	start     time.Time
	logger    *slog.Logger
	metrics   Metrics
}

// StartTimer starts timing operation.
func StartTimer(operation string) *Timer {
	return &Timer{operation: operation, start: time.Now()}
}

// WithLogger logs completions at debug and failures at error.
func (t *Timer) WithLogger(logger *slog.Logger) *Timer {
	t.logger = logger
	return t
}

// WithMetrics records MetricOperationDuration, MetricOperationTotal and,
// on failure, MetricOperationErrors, tagged with the operation.
func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

// Stop ends the measurement with the operation's outcome.
func (t *Timer) Stop(ctx context.Context, err error) time.Duration {
	elapsed := time.Since(t.start)

	if t.logger != nil {
		attrs := []any{OperationKey, t.operation, DurationKey, elapsed.Milliseconds()}
		if err != nil {
			t.logger.ErrorContext(ctx, "operation failed", append(attrs, ErrorKey, err.Error())...)
		} else {
			t.logger.DebugContext(ctx, "operation completed", attrs...)
		}
	}

	if t.metrics != nil {
		tag := T(OperationKey, t.operation)
		t.metrics.Timing(MetricOperationDuration, elapsed, tag)
		t.metrics.Counter(MetricOperationTotal, 1, tag)
		if err != nil {
			t.metrics.Counter(MetricOperationErrors, 1, tag)
		}
	}
	return elapsed
}

// TimeOperationResult runs fn under a Timer with both sinks attached.
func TimeOperationResult[T any](ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func() (T, error)) (T, error) {
	timer := StartTimer(operation).WithLogger(logger).WithMetrics(metrics)
	result, err := fn()
	timer.Stop(ctx, err)
	return result, err
}
