package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/felixgeelhaar/todolist/internal/todos/domain/item"
	"github.com/google/uuid"
)

// Client-facing messages. Adapters return them verbatim.
const (
	MsgAddDueDateNotInFuture     = "Cannot add item. Due date is earlier or equal the current date."
	MsgDescriptionWhilePastDue   = "Cannot update the description. The item status is past due."
	MsgAlreadyDone               = "The item status is already done."
	MsgDoneWhilePastDue          = "Cannot mark the item as done. The item status is past due."
	MsgAlreadyNotDone            = "The item status is already not done."
	MsgNotDoneWhilePastDue       = "Cannot mark the item as not done. The item status is past due."
	MsgConcurrentModification    = "The item was modified concurrently. Retry the request."
	MsgDescriptionMustNotBeEmpty = "the description must not be empty"
	MsgDueDateMustNotBeNull      = "the due date must not be null"
)

// NotFoundError reports that no item has the requested id.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return "Item not found with given id: " + e.ID.String()
}

func (e *NotFoundError) Unwrap() error { return item.ErrItemNotFound }

// ConflictError is a refused operation. Message is shown to the caller; Err
// is the domain cause.
type ConflictError struct {
	Message string
	Err     error
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) Unwrap() error { return e.Err }

func conflict(message string, cause error) *ConflictError {
	return &ConflictError{Message: message, Err: cause}
}

// ValidationError maps input fields to what is wrong with them.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}
