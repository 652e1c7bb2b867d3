package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeOperationResult(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelDebug, Format: LogFormatText, Output: &buf})
		m := NewInMemoryMetrics()

		got, err := TimeOperationResult(context.Background(), logger, m, "migrations.run", func() (int, error) {
			return 3, nil
		})

		require.NoError(t, err)
		assert.Equal(t, 3, got)
		op := T(OperationKey, "migrations.run")
		assert.Equal(t, int64(1), m.GetCounter(MetricOperationTotal, op))
		assert.Zero(t, m.GetCounter(MetricOperationErrors, op))
		assert.Len(t, m.GetTimings(MetricOperationDuration, op), 1)
		assert.Contains(t, buf.String(), "operation completed")
	})

	t.Run("failure", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatText, Output: &buf})
		m := NewInMemoryMetrics()
		boom := errors.New("boom")

		_, err := TimeOperationResult(context.Background(), logger, m, "sweep.past_due", func() (struct{}, error) {
			return struct{}{}, boom
		})

		require.ErrorIs(t, err, boom)
		op := T(OperationKey, "sweep.past_due")
		assert.Equal(t, int64(1), m.GetCounter(MetricOperationErrors, op))
		assert.Contains(t, buf.String(), "operation failed")
		assert.Contains(t, buf.String(), "error=boom")
	})
}

func TestTimer_WithoutSinks(t *testing.T) {
	assert.GreaterOrEqual(t, int64(StartTimer("noop").Stop(context.Background(), nil)), int64(0))
}
