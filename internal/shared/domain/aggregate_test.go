package domain_test

import (
	"testing"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type testAggregate struct {
	domain.BaseAggregateRoot
	Name string
}

func newTestAggregate(name string) *testAggregate {
	return &testAggregate{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(time.Now()),
		Name:              name,
	}
}

type testAggregateEvent struct {
	domain.BaseEvent
}

func newTestAggregateEvent(aggregateID uuid.UUID) testAggregateEvent {
	return testAggregateEvent{
		BaseEvent: domain.NewBaseEvent(aggregateID, "TestAggregate", "test.aggregate.created", time.Now()),
	}
}

func TestNewBaseAggregateRoot(t *testing.T) {
	agg := domain.NewBaseAggregateRoot(time.Now())

	assert.NotEqual(t, uuid.Nil, agg.ID())
	assert.Equal(t, 0, agg.Version())
	assert.True(t, agg.IsNew())
	assert.Empty(t, agg.DomainEvents())
}

func TestBaseAggregateRoot_Events(t *testing.T) {
	agg := newTestAggregate("Test")
	first := newTestAggregateEvent(agg.ID())

	agg.AddDomainEvent(first)
	agg.AddDomainEvent(newTestAggregateEvent(agg.ID()))

	events := agg.DomainEvents()
	assert.Len(t, events, 2)
	assert.Equal(t, first.EventID(), events[0].EventID())
	for _, event := range events {
		assert.Equal(t, agg.ID(), event.AggregateID())
	}

	agg.ClearDomainEvents()
	assert.Empty(t, agg.DomainEvents())
}

func TestRehydrateBaseAggregateRoot(t *testing.T) {
	id := uuid.New()
	created := time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)
	entity := domain.RehydrateBaseEntity(id, created, created.Add(time.Hour))

	agg := domain.RehydrateBaseAggregateRoot(entity, 3)

	assert.Equal(t, id, agg.ID())
	assert.Equal(t, 3, agg.Version())
	assert.False(t, agg.IsNew())

	agg.SetVersion(4)
	assert.Equal(t, 4, agg.Version())
}
