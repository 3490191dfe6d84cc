// Package service holds the domain logic between the HTTP handlers and the
// storage backends: validation, timestamps, idempotency, sync, recurrence
// expansion and reminder dispatch.
package service

import (
	"fmt"

	"babylog-sync-server/internal/domain"
)

// ValidationError reports input the caller can fix. Handlers map it to a 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the entity so handlers can build the 404 body.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// DuplicateEntryError carries the pre-existing entry so handlers can return it
// alongside the conflict status instead of failing the caller outright.
type DuplicateEntryError struct {
	Entry *domain.Entry
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("entry with client_event_id %q already exists", e.Entry.ClientEventID)
}
