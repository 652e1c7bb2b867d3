package eventbus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyPublisher struct {
	err    error
	calls  int
	closed bool
}

func (p *flakyPublisher) Publish(context.Context, string, []byte) error {
	p.calls++
	return p.err
}

func (p *flakyPublisher) Close() error {
	p.closed = true
	return nil
}

func TestBreakerPublisher_PassesThrough(t *testing.T) {
	next := &flakyPublisher{}
	pub := eventbus.NewBreakerPublisher(next, eventbus.DefaultBreakerConfig(), nil)

	require.NoError(t, pub.Publish(context.Background(), "todo.item.added", []byte(`{}`)))
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, "closed", pub.State())
}

func TestBreakerPublisher_OpensAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	next := &flakyPublisher{err: errors.New("connection refused")}
	pub := eventbus.NewBreakerPublisher(next, eventbus.BreakerConfig{
		MaxFailures: 2,
		OpenTimeout: time.Hour,
	}, nil)

	assert.EqualError(t, pub.Publish(ctx, "k", nil), "connection refused")
	assert.EqualError(t, pub.Publish(ctx, "k", nil), "connection refused")
	assert.Equal(t, "open", pub.State())

	err := pub.Publish(ctx, "k", nil)
	assert.ErrorIs(t, err, eventbus.ErrCircuitOpen)
	assert.Equal(t, 2, next.calls)
}

func TestBreakerPublisher_RecoversAfterTimeout(t *testing.T) {
	ctx := context.Background()
	next := &flakyPublisher{err: errors.New("connection refused")}
	pub := eventbus.NewBreakerPublisher(next, eventbus.BreakerConfig{
		MaxFailures: 1,
		OpenTimeout: 20 * time.Millisecond,
	}, nil)

	require.Error(t, pub.Publish(ctx, "k", nil))
	require.ErrorIs(t, pub.Publish(ctx, "k", nil), eventbus.ErrCircuitOpen)

	next.err = nil
	time.Sleep(30 * time.Millisecond)

	require.NoError(t, pub.Publish(ctx, "k", nil))
	assert.Equal(t, "closed", pub.State())
}

func TestBreakerPublisher_Close(t *testing.T) {
	next := &flakyPublisher{}
	pub := eventbus.NewBreakerPublisher(next, eventbus.DefaultBreakerConfig(), nil)

	require.NoError(t, pub.Close())
	assert.True(t, next.closed)
}
