package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/todolist/internal/todos/application/commands"
	"github.com/felixgeelhaar/todolist/internal/todos/infrastructure/sweeplock"
	"github.com/felixgeelhaar/todolist/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSweeper struct {
	mu          sync.Mutex
	count       int64
	err         error
	calls       int
	hasDeadline bool
}

func (m *mockSweeper) Handle(ctx context.Context) (commands.SweepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	_, m.hasDeadline = ctx.Deadline()
	if m.err != nil {
		return commands.SweepResult{}, m.err
	}
	return commands.SweepResult{Cutoff: time.Now(), Count: m.count}, nil
}

func (m *mockSweeper) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockLocker struct {
	ok       bool
	err      error
	unlocked []string
}

func (m *mockLocker) TryLock(ctx context.Context) (string, bool, error) {
	if m.err != nil || !m.ok {
		return "", false, m.err
	}
	return "token-1", true, nil
}

func (m *mockLocker) Unlock(ctx context.Context, token string) error {
	m.unlocked = append(m.unlocked, token)
	return nil
}

func TestNewPastDueSweeper_Defaults(t *testing.T) {
	w := NewPastDueSweeper(&mockSweeper{}, nil, PastDueSweeperConfig{Enabled: true}, nil, nil)

	assert.Equal(t, DefaultSweepInterval, w.config.Interval)
	assert.Equal(t, DefaultLockTTL, w.config.LockTTL)
	assert.False(t, w.IsRunning())
}

func TestPastDueSweeper_RunOnce(t *testing.T) {
	tests := []struct {
		name       string
		sweeper    *mockSweeper
		lock       *mockLocker
		wantCalls  int
		wantRuns   int64
		wantItems  int64
		wantSkip   int64
		wantErrors int64
		wantUnlock []string
	}{
		{
			name:       "sweeps under the lock",
			sweeper:    &mockSweeper{count: 3},
			lock:       &mockLocker{ok: true},
			wantCalls:  1,
			wantRuns:   1,
			wantItems:  3,
			wantUnlock: []string{"token-1"},
		},
		{
			name:     "skips when another instance holds the lock",
			sweeper:  &mockSweeper{},
			lock:     &mockLocker{ok: false},
			wantSkip: 1,
		},
		{
			name:       "lock error counts as a failed run",
			sweeper:    &mockSweeper{},
			lock:       &mockLocker{err: errors.New("redis down")},
			wantErrors: 1,
		},
		{
			name:       "sweep error still releases the lock",
			sweeper:    &mockSweeper{err: errors.New("database is locked")},
			lock:       &mockLocker{ok: true},
			wantCalls:  1,
			wantRuns:   1,
			wantErrors: 1,
			wantUnlock: []string{"token-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := observability.NewInMemoryMetrics()
			w := NewPastDueSweeper(tt.sweeper, tt.lock, DefaultPastDueSweeperConfig(), metrics, nil)

			w.runOnce(context.Background())

			assert.Equal(t, tt.wantCalls, tt.sweeper.Calls())
			assert.Equal(t, tt.wantRuns, metrics.GetCounter(observability.MetricSweepRuns))
			assert.Equal(t, tt.wantItems, metrics.GetCounter(observability.MetricSweepItems))
			assert.Equal(t, tt.wantSkip, metrics.GetCounter(observability.MetricSweepSkipped))
			assert.Equal(t, tt.wantErrors, metrics.GetCounter(observability.MetricSweepErrors))
			assert.Equal(t, tt.wantUnlock, tt.lock.unlocked)

			op := observability.T(observability.OperationKey, sweepOperation)
			assert.Len(t, metrics.GetTimings(observability.MetricOperationDuration, op), int(tt.wantRuns))
		})
	}
}

func TestPastDueSweeper_SweepRunsWithDeadline(t *testing.T) {
	sweeper := &mockSweeper{}
	w := NewPastDueSweeper(sweeper, nil, DefaultPastDueSweeperConfig(), nil, nil)

	w.runOnce(context.Background())

	assert.True(t, sweeper.hasDeadline)
}

func TestPastDueSweeper_LocalLockSerialisesRuns(t *testing.T) {
	lock := sweeplock.NewLocalLock(nil, time.Minute)
	token, ok, err := lock.TryLock(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	sweeper := &mockSweeper{}
	w := NewPastDueSweeper(sweeper, lock, DefaultPastDueSweeperConfig(), nil, nil)
	w.runOnce(context.Background())
	assert.Zero(t, sweeper.Calls())

	require.NoError(t, lock.Unlock(context.Background(), token))
	w.runOnce(context.Background())
	assert.Equal(t, 1, sweeper.Calls())
}

func TestPastDueSweeper_Disabled(t *testing.T) {
	sweeper := &mockSweeper{}
	w := NewPastDueSweeper(sweeper, nil, PastDueSweeperConfig{Enabled: false}, nil, nil)

	err := w.Run(context.Background())

	assert.NoError(t, err)
	assert.False(t, w.IsRunning())
	assert.Zero(t, sweeper.Calls())
}

func TestPastDueSweeper_RunAndStop(t *testing.T) {
	sweeper := &mockSweeper{}
	w := NewPastDueSweeper(sweeper, nil, PastDueSweeperConfig{
		Enabled:  true,
		Interval: 10 * time.Millisecond,
	}, nil, nil)

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()

	require.Eventually(t, func() bool { return sweeper.Calls() >= 2 }, time.Second, 5*time.Millisecond)
	require.True(t, w.IsRunning())

	w.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
	assert.False(t, w.IsRunning())
}

func TestPastDueSweeper_ContextCancel(t *testing.T) {
	sweeper := &mockSweeper{}
	w := NewPastDueSweeper(sweeper, nil, PastDueSweeperConfig{Enabled: true, Interval: time.Hour}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return sweeper.Calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
}
