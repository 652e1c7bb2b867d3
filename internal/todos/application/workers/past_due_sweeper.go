package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/todolist/internal/todos/application/commands"
	"github.com/felixgeelhaar/todolist/internal/todos/infrastructure/sweeplock"
	"github.com/felixgeelhaar/todolist/pkg/observability"
)

// DefaultSweepInterval is the default interval between sweeps.
const DefaultSweepInterval = time.Minute

// DefaultLockTTL bounds how long one sweep may hold the lock.
const DefaultLockTTL = 30 * time.Second

// Sweeper runs one sweep.
type Sweeper interface {
	Handle(ctx context.Context) (commands.SweepResult, error)
}

// PastDueSweeperConfig configures the sweeper.
type PastDueSweeperConfig struct {
	Interval time.Duration
	Enabled  bool
	LockTTL  time.Duration
}

// DefaultPastDueSweeperConfig returns the default configuration.
func DefaultPastDueSweeperConfig() PastDueSweeperConfig {
	return PastDueSweeperConfig{
		Interval: DefaultSweepInterval,
		Enabled:  true,
		LockTTL:  DefaultLockTTL,
	}
}

// PastDueSweeper periodically moves overdue items to PAST_DUE.
type PastDueSweeper struct {
	sweeper Sweeper
	lock    sweeplock.Locker
	config  PastDueSweeperConfig
	metrics observability.Metrics
	logger  *slog.Logger
	running atomic.Bool
	stopCh  chan struct{}
}

// NewPastDueSweeper creates a new sweeper. A nil lock means no coordination.
func NewPastDueSweeper(
	sweeper Sweeper,
	lock sweeplock.Locker,
	config PastDueSweeperConfig,
	metrics observability.Metrics,
	logger *slog.Logger,
) *PastDueSweeper {
	if config.Interval <= 0 {
		config.Interval = DefaultSweepInterval
	}
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultLockTTL
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PastDueSweeper{
		sweeper: sweeper,
		lock:    lock,
		config:  config,
		metrics: metrics,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Run sweeps once immediately and then on every tick. It blocks until the
// context is cancelled or Stop() is called.
func (w *PastDueSweeper) Run(ctx context.Context) error {
	if !w.config.Enabled {
		w.logger.Info("past-due sweep disabled, worker will not start")
		return nil
	}

	w.running.Store(true)
	w.logger.Info("past-due sweeper started", "interval", w.config.Interval)

	w.runOnce(ctx)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.running.Store(false)
			w.logger.Info("past-due sweeper stopped (context cancelled)")
			return ctx.Err()
		case <-w.stopCh:
			w.running.Store(false)
			w.logger.Info("past-due sweeper stopped (stop signal)")
			return nil
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop signals the worker to stop gracefully.
func (w *PastDueSweeper) Stop() {
	if w.running.Load() {
		close(w.stopCh)
	}
}

// IsRunning returns true if the worker is currently running.
func (w *PastDueSweeper) IsRunning() bool {
	return w.running.Load()
}

const sweepOperation = "sweep.past_due"

// runOnce performs one locked sweep. Failures are logged; the loop goes on.
func (w *PastDueSweeper) runOnce(ctx context.Context) {
	token, ok, err := w.acquire(ctx)
	if err != nil {
		w.metrics.Counter(observability.MetricSweepErrors, 1)
		w.logger.Error("failed to acquire sweep lock", "error", err)
		return
	}
	if !ok {
		w.metrics.Counter(observability.MetricSweepSkipped, 1)
		w.logger.Debug("sweep lock held elsewhere, skipping")
		return
	}
	defer w.release(ctx, token)

	lockCtx, cancel := context.WithTimeout(ctx, w.config.LockTTL)
	defer cancel()

	timer := observability.StartTimer(sweepOperation).WithMetrics(w.metrics)
	result, err := w.sweeper.Handle(lockCtx)
	timer.Stop(lockCtx, err)
	w.metrics.Counter(observability.MetricSweepRuns, 1)
	if err != nil {
		w.metrics.Counter(observability.MetricSweepErrors, 1)
		w.logger.Error("past-due sweep failed", "error", err)
		return
	}

	w.metrics.Counter(observability.MetricSweepItems, result.Count)
	if result.Count > 0 {
		w.logger.Info("past-due sweep completed", "cutoff", result.Cutoff, "items", result.Count)
		return
	}
	w.logger.Debug("past-due sweep found nothing", "cutoff", result.Cutoff)
}

func (w *PastDueSweeper) acquire(ctx context.Context) (string, bool, error) {
	if w.lock == nil {
		return "", true, nil
	}
	return w.lock.TryLock(ctx)
}

func (w *PastDueSweeper) release(ctx context.Context, token string) {
	if w.lock == nil {
		return
	}
	// release even when ctx was cancelled mid-sweep
	if err := w.lock.Unlock(context.WithoutCancel(ctx), token); err != nil {
		w.logger.Warn("failed to release sweep lock", "error", err)
	}
}
