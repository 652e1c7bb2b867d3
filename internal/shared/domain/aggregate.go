package domain

import "time"

// BaseAggregateRoot holds the events an aggregate raised since it was last
// saved, and the optimistic-lock version storage last assigned. Version
// zero means never stored.
type BaseAggregateRoot struct {
	BaseEntity
	pending []DomainEvent
	version int
}

// NewBaseAggregateRoot starts an unsaved aggregate at now.
func NewBaseAggregateRoot(now time.Time) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(now)}
}

// RehydrateBaseAggregateRoot restores a stored aggregate with no pending events.
func RehydrateBaseAggregateRoot(entity BaseEntity, version int) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: entity, version: version}
}

// AddDomainEvent queues an event for the next save.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// DomainEvents returns the queued events in the order they were raised.
func (a *BaseAggregateRoot) DomainEvents() []DomainEvent { return a.pending }

// ClearDomainEvents drops the queue once the events are in the outbox.
func (a *BaseAggregateRoot) ClearDomainEvents() { a.pending = nil }

func (a *BaseAggregateRoot) Version() int { return a.version }
func (a *BaseAggregateRoot) IsNew() bool  { return a.version == 0 }

// SetVersion records the version storage assigned on save.
func (a *BaseAggregateRoot) SetVersion(version int) { a.version = version }
