package domain

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries an identity and the UTC creation and modification
// instants. All timestamps come from the caller's Clock.
type BaseEntity struct {
	id        uuid.UUID
	createdAt time.Time
	updatedAt time.Time
}

// NewBaseEntity assigns a fresh id; created and updated are both now.
func NewBaseEntity(now time.Time) BaseEntity {
	now = Timestamp(now)
	return BaseEntity{id: uuid.New(), createdAt: now, updatedAt: now}
}

// RehydrateBaseEntity restores stored identity and timestamps as-is.
func RehydrateBaseEntity(id uuid.UUID, createdAt, updatedAt time.Time) BaseEntity {
	return BaseEntity{id: id, createdAt: createdAt, updatedAt: updatedAt}
}

func (e BaseEntity) ID() uuid.UUID        { return e.id }
func (e BaseEntity) CreatedAt() time.Time { return e.createdAt }
func (e BaseEntity) UpdatedAt() time.Time { return e.updatedAt }

// Touch records a modification at now.
func (e *BaseEntity) Touch(now time.Time) {
	e.updatedAt = Timestamp(now)
}
