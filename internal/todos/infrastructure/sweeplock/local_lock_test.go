package sweeplock

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLock(t *testing.T) {
	ctx := context.Background()

	t.Run("exclusive until released", func(t *testing.T) {
		lock := NewLocalLock(nil, time.Minute)

		token, ok, err := lock.TryLock(ctx)
		require.NoError(t, err)
		require.True(t, ok)

		_, ok, err = lock.TryLock(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, lock.Unlock(ctx, token))

		_, ok, err = lock.TryLock(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("lease lapses after ttl", func(t *testing.T) {
		clock := domain.NewFixedClock(time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC))
		lock := NewLocalLock(clock, 30*time.Second)

		stale, ok, _ := lock.TryLock(ctx)
		require.True(t, ok)

		clock.Advance(30 * time.Second)
		fresh, ok, _ := lock.TryLock(ctx)
		require.True(t, ok)
		assert.NotEqual(t, stale, fresh)

		assert.ErrorIs(t, lock.Unlock(ctx, stale), ErrNotHeld)
		assert.NoError(t, lock.Unlock(ctx, fresh))
	})

	t.Run("unknown token", func(t *testing.T) {
		lock := NewLocalLock(nil, time.Minute)
		assert.ErrorIs(t, lock.Unlock(ctx, "nope"), ErrNotHeld)
	})
}
