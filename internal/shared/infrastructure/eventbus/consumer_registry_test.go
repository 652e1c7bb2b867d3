package eventbus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/todolist/internal/shared/infrastructure/eventbus"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConsumer struct {
	eventTypes []string
	events     []*eventbus.ConsumedEvent
	err        error
}

func (m *mockConsumer) EventTypes() []string {
	return m.eventTypes
}

func (m *mockConsumer) Handle(_ context.Context, event *eventbus.ConsumedEvent) error {
	m.events = append(m.events, event)
	return m.err
}

func TestConsumerRegistry_Register(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	consumer := &mockConsumer{eventTypes: []string{"todo.item.added", "todo.item.done"}}

	registry.Register(consumer)

	assert.Len(t, registry.Subscribers("todo.item.added"), 1)
	assert.Len(t, registry.Subscribers("todo.item.done"), 1)
	assert.Empty(t, registry.Subscribers("todo.item.not_done"))
	assert.Equal(t, []string{"todo.item.added", "todo.item.done"}, registry.EventTypes())
	assert.Equal(t, 2, registry.ConsumerCount())
}

func TestConsumerRegistry_RegisterTwice(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	consumer := &mockConsumer{eventTypes: []string{"todo.item.added", "todo.item.added"}}

	registry.Register(consumer)
	registry.Register(consumer)

	assert.Equal(t, 1, registry.ConsumerCount())
}

func TestConsumerRegistry_AllEvents(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	specific := &mockConsumer{eventTypes: []string{"todo.item.done"}}
	catchAll := &mockConsumer{eventTypes: []string{eventbus.AllEvents}}
	registry.Register(catchAll)
	registry.Register(specific)

	subs := registry.Subscribers("todo.item.done")
	require.Len(t, subs, 2)
	assert.Same(t, specific, subs[0])
	assert.Same(t, catchAll, subs[1])

	require.NoError(t, registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{EventType: "todo.items.swept"}))
	assert.Len(t, catchAll.events, 1)
	assert.Empty(t, specific.events)
}

func TestConsumerRegistry_DispatchJoinsErrors(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	first := errors.New("first")
	second := errors.New("second")
	registry.Register(&mockConsumer{eventTypes: []string{"todo.item.done"}, err: first})
	registry.Register(&mockConsumer{eventTypes: []string{"todo.item.done"}, err: second})

	err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{EventType: "todo.item.done"})

	require.Error(t, err)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
}

func TestConsumerRegistry_Dispatch(t *testing.T) {
	tests := []struct {
		name      string
		consumers []*mockConsumer
		eventType string
		wantErr   bool
		wantCalls []int
	}{
		{
			name:      "single consumer",
			consumers: []*mockConsumer{{eventTypes: []string{"todo.item.added"}}},
			eventType: "todo.item.added",
			wantCalls: []int{1},
		},
		{
			name: "every matching consumer",
			consumers: []*mockConsumer{
				{eventTypes: []string{"todo.item.added"}},
				{eventTypes: []string{"todo.item.added"}},
				{eventTypes: []string{"todo.item.done"}},
			},
			eventType: "todo.item.added",
			wantCalls: []int{1, 1, 0},
		},
		{
			name:      "no consumers",
			eventType: "todo.items.swept",
		},
		{
			name: "failure does not stop later consumers",
			consumers: []*mockConsumer{
				{eventTypes: []string{"todo.item.done"}, err: errors.New("boom")},
				{eventTypes: []string{"todo.item.done"}},
			},
			eventType: "todo.item.done",
			wantErr:   true,
			wantCalls: []int{1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := eventbus.NewConsumerRegistry(nil)
			for _, c := range tt.consumers {
				registry.Register(c)
			}

			err := registry.Dispatch(context.Background(), &eventbus.ConsumedEvent{
				EventID:   uuid.New(),
				EventType: tt.eventType,
			})

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			for i, c := range tt.consumers {
				assert.Len(t, c.events, tt.wantCalls[i])
			}
		})
	}
}
