package item

import (
	"time"

	"github.com/felixgeelhaar/todolist/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Item"

	RoutingKeyAdded              = "todo.item.added"
	RoutingKeyDescriptionChanged = "todo.item.description_changed"
	RoutingKeyDone               = "todo.item.done"
	RoutingKeyNotDone            = "todo.item.not_done"
	RoutingKeyPastDue            = "todo.item.past_due"
	RoutingKeySwept              = "todo.items.swept"
)

// ItemAdded is emitted when a new item is created.
type ItemAdded struct {
	domain.BaseEvent
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
}

// NewItemAdded creates an ItemAdded event.
func NewItemAdded(itemID uuid.UUID, description string, dueDate, now time.Time) *ItemAdded {
	return &ItemAdded{
		BaseEvent:   domain.NewBaseEvent(itemID, AggregateType, RoutingKeyAdded, now),
		Description: description,
		DueDate:     dueDate,
	}
}

// ItemDescriptionChanged is emitted when the description is replaced.
type ItemDescriptionChanged struct {
	domain.BaseEvent
	Description string `json:"description"`
}

// NewItemDescriptionChanged creates an ItemDescriptionChanged event.
func NewItemDescriptionChanged(itemID uuid.UUID, description string, now time.Time) *ItemDescriptionChanged {
	return &ItemDescriptionChanged{
		BaseEvent:   domain.NewBaseEvent(itemID, AggregateType, RoutingKeyDescriptionChanged, now),
		Description: description,
	}
}

// ItemMarkedDone is emitted when an item moves to DONE.
type ItemMarkedDone struct {
	domain.BaseEvent
	DoneDate time.Time `json:"done_date"`
}

// NewItemMarkedDone creates an ItemMarkedDone event.
func NewItemMarkedDone(itemID uuid.UUID, doneDate time.Time) *ItemMarkedDone {
	return &ItemMarkedDone{
		BaseEvent: domain.NewBaseEvent(itemID, AggregateType, RoutingKeyDone, doneDate),
		DoneDate:  doneDate,
	}
}

// ItemMarkedNotDone is emitted when an item moves back to NOT_DONE.
type ItemMarkedNotDone struct {
	domain.BaseEvent
}

// NewItemMarkedNotDone creates an ItemMarkedNotDone event.
func NewItemMarkedNotDone(itemID uuid.UUID, now time.Time) *ItemMarkedNotDone {
	return &ItemMarkedNotDone{
		BaseEvent: domain.NewBaseEvent(itemID, AggregateType, RoutingKeyNotDone, now),
	}
}

// ItemPastDue is emitted when a guarded operation discovers an elapsed due date.
type ItemPastDue struct {
	domain.BaseEvent
	DueDate time.Time `json:"due_date"`
}

// NewItemPastDue creates an ItemPastDue event.
func NewItemPastDue(itemID uuid.UUID, dueDate, now time.Time) *ItemPastDue {
	return &ItemPastDue{
		BaseEvent: domain.NewBaseEvent(itemID, AggregateType, RoutingKeyPastDue, now),
		DueDate:   dueDate,
	}
}

// ItemsSwept summarises one bulk past-due sweep. It is not tied to a single
// item, so its aggregate id is uuid.Nil.
type ItemsSwept struct {
	domain.BaseEvent
	Cutoff time.Time `json:"cutoff"`
	Count  int64     `json:"count"`
}

// NewItemsSwept creates an ItemsSwept event.
func NewItemsSwept(cutoff time.Time, count int64) *ItemsSwept {
	return &ItemsSwept{
		BaseEvent: domain.NewBaseEvent(uuid.Nil, AggregateType, RoutingKeySwept, cutoff),
		Cutoff:    cutoff,
		Count:     count,
	}
}
