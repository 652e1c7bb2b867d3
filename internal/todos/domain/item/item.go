package item

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrItemNotFound           = errors.New("item not found")
	ErrEmptyDescription       = errors.New("item description cannot be empty")
	ErrDueDateNotInFuture     = errors.New("item due date is not after the current time")
	ErrAlreadyDone            = errors.New("item is already done")
	ErrAlreadyNotDone         = errors.New("item is already not done")
	ErrPastDue                = errors.New("item is past due")
	ErrInvalidStatus          = errors.New("invalid item status")
	ErrConcurrentModification = errors.New("item was modified concurrently")
)

// Status is the lifecycle state of an item. The string values are part of
// the wire format and the database schema.
type Status string

const (
	StatusNotDone Status = "NOT_DONE"
	StatusDone    Status = "DONE"
	StatusPastDue Status = "PAST_DUE"
)

func (s Status) String() string { return string(s) }

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotDone, StatusDone, StatusPastDue:
		return true
	default:
		return false
	}
}

// ParseStatus converts a stored or user-supplied value to a Status.
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(value)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
	return s, nil
}

// Item is a todo entry. Once PAST_DUE it never changes status again, and
// doneDate is set exactly while the item is DONE.
type Item struct {
	domain.BaseAggregateRoot
	description string
	status      Status
	dueDate     time.Time
	doneDate    *time.Time
}

// NewItem creates a NOT_DONE item. dueDate must lie strictly after now.
// The description is stored as sent; blank text is rejected.
func NewItem(description string, dueDate, now time.Time) (*Item, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}
	now, dueDate = domain.Timestamp(now), domain.Timestamp(dueDate)
	if !dueDate.After(now) {
		return nil, ErrDueDateNotInFuture
	}

	i := &Item{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(now),
		description:       description,
		status:            StatusNotDone,
		dueDate:           dueDate,
	}
	i.AddDomainEvent(NewItemAdded(i.ID(), i.description, i.dueDate, now))

	return i, nil
}

// RehydrateItem rebuilds an item from storage without emitting events.
func RehydrateItem(
	id uuid.UUID,
	description string,
	status Status,
	creationDate, dueDate time.Time,
	doneDate *time.Time,
	updatedAt time.Time,
	version int,
) *Item {
	entity := domain.RehydrateBaseEntity(id, creationDate.UTC(), updatedAt.UTC())
	if doneDate != nil {
		d := doneDate.UTC()
		doneDate = &d
	}
	return &Item{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(entity, version),
		description:       description,
		status:            status,
		dueDate:           dueDate.UTC(),
		doneDate:          doneDate,
	}
}

func (i *Item) Description() string     { return i.description }
func (i *Item) Status() Status          { return i.status }
func (i *Item) CreationDate() time.Time { return i.CreatedAt() }
func (i *Item) DueDate() time.Time      { return i.dueDate }
func (i *Item) DoneDate() *time.Time    { return i.doneDate }
func (i *Item) IsDone() bool            { return i.status == StatusDone }
func (i *Item) IsPastDue() bool         { return i.status == StatusPastDue }

// IsOverdue reports whether the due date has been reached at now.
func (i *Item) IsOverdue(now time.Time) bool {
	return !i.dueDate.After(now)
}

// EnforceDueDate rejects mutation of an item that is, or has become, past
// due. A NOT_DONE item found overdue is moved to PAST_DUE, and corrected is
// true so the caller knows to persist it before reporting ErrPastDue. A DONE
// item that is overdue is refused but left untouched.
func (i *Item) EnforceDueDate(now time.Time) (corrected bool, err error) {
	if i.status == StatusPastDue {
		return false, ErrPastDue
	}
	if !i.IsOverdue(now) {
		return false, nil
	}
	if i.status == StatusNotDone {
		i.status = StatusPastDue
		i.Touch(now)
		i.AddDomainEvent(NewItemPastDue(i.ID(), i.dueDate, now))
		corrected = true
	}
	return corrected, ErrPastDue
}

// ChangeDescription replaces the description.
func (i *Item) ChangeDescription(description string, now time.Time) error {
	if i.IsPastDue() {
		return ErrPastDue
	}
	if strings.TrimSpace(description) == "" {
		return ErrEmptyDescription
	}
	i.description = description
	i.Touch(now)
	i.AddDomainEvent(NewItemDescriptionChanged(i.ID(), description, now))
	return nil
}

// MarkDone moves the item to DONE and stamps the done date.
func (i *Item) MarkDone(now time.Time) error {
	switch i.status {
	case StatusDone:
		return ErrAlreadyDone
	case StatusPastDue:
		return ErrPastDue
	}
	done := domain.Timestamp(now)
	i.status = StatusDone
	i.doneDate = &done
	i.Touch(now)
	i.AddDomainEvent(NewItemMarkedDone(i.ID(), done))
	return nil
}

// MarkNotDone moves the item back to NOT_DONE and clears the done date.
func (i *Item) MarkNotDone(now time.Time) error {
	switch i.status {
	case StatusNotDone:
		return ErrAlreadyNotDone
	case StatusPastDue:
		return ErrPastDue
	}
	i.status = StatusNotDone
	i.doneDate = nil
	i.Touch(now)
	i.AddDomainEvent(NewItemMarkedNotDone(i.ID(), now))
	return nil
}
