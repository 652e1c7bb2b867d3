package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/domain"
	"github.com/stretchr/testify/assert"
)

func TestSystemClock_Now(t *testing.T) {
	before := time.Now().UTC()
	now := domain.SystemClock{}.Now()
	after := time.Now().UTC()

	assert.Equal(t, time.UTC, now.Location())
	assert.False(t, now.Before(before))
	assert.False(t, now.After(after))
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)
	clock := domain.NewFixedClock(start)

	assert.Equal(t, start, clock.Now())
	assert.Equal(t, start, clock.Now())

	clock.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), clock.Now())

	later := time.Date(2024, 4, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	clock.Set(later)
	assert.Equal(t, later.UTC(), clock.Now())
	assert.Equal(t, time.UTC, clock.Now().Location())
}

func TestTimestamp(t *testing.T) {
	local := time.FixedZone("CET", 3600)
	in := time.Date(2024, 3, 17, 1, 0, 0, 123456789, local)

	got := domain.Timestamp(in)

	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, time.Date(2024, 3, 17, 0, 0, 0, 123456000, time.UTC), got)
}
