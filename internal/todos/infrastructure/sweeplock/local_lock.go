package sweeplock

import (
	"context"
	"sync"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/domain"
	"github.com/google/uuid"
)

// LocalLock is the single-process fallback used when Redis is not configured.
type LocalLock struct {
	mu        sync.Mutex
	clock     domain.Clock
	ttl       time.Duration
	token     string
	expiresAt time.Time
}

// NewLocalLock creates an in-process lock whose lease lapses after ttl.
func NewLocalLock(clock domain.Clock, ttl time.Duration) *LocalLock {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &LocalLock{clock: clock, ttl: ttl}
}

// TryLock implements Locker.
func (l *LocalLock) TryLock(_ context.Context) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if l.token != "" && now.Before(l.expiresAt) {
		return "", false, nil
	}
	l.token = uuid.NewString()
	l.expiresAt = now.Add(l.ttl)
	return l.token, true, nil
}

// Unlock implements Locker.
func (l *LocalLock) Unlock(_ context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if token == "" || token != l.token {
		return ErrNotHeld
	}
	l.token = ""
	return nil
}
