// Package sweeplock keeps the past-due sweep to one runner at a time.
package sweeplock

import (
	"context"
	"errors"
)

// DefaultKey is the lock key shared by every worker instance.
const DefaultKey = "todolist:sweep:lock"

// ErrNotHeld is returned when releasing a lock whose token no longer owns it.
var ErrNotHeld = errors.New("sweep lock not held")

// Locker hands out an exclusive lease. TryLock never blocks: ok is false when
// someone else holds the lease.
type Locker interface {
	TryLock(ctx context.Context) (token string, ok bool, err error)
	Unlock(ctx context.Context, token string) error
}
