// Package storage defines the per-entity store contracts shared by the sqlite
// (relational, primary) and couch (document, secondary) backends, plus the
// dual-mode decorator that mirrors writes from one to the other.
package storage

import (
	"context"
	"errors"
	"time"

	"babylog-sync-server/internal/domain"
)

// ErrNotFound is the canonical "no such record" signal. Services translate it
// into their own not-found errors; it is distinct from validation failures.
var ErrNotFound = errors.New("record not found")

type EntryStore interface {
	// CreateEntry inserts the entry and reports duplicate=true when the
	// client_event_id is already taken, returning the pre-existing record
	// instead of an error.
	CreateEntry(ctx context.Context, entry *domain.Entry) (*domain.Entry, bool, error)
	GetEntry(ctx context.Context, id int64) (*domain.Entry, error)
	GetEntryByClientEventID(ctx context.Context, clientEventID string) (*domain.Entry, error)
	// ListEntries returns newest-first, soft-deleted rows excluded unless the
	// filter asks for them, capped at the filter limit.
	ListEntries(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error)
	// ListEntriesForExport returns oldest-first with no row cap.
	ListEntriesForExport(ctx context.Context, tenant string) ([]*domain.Entry, error)
	// ListEntriesUpdatedSince returns rows with updated_at >= cursor ascending,
	// soft-deleted rows included. This is the sync pull primitive.
	ListEntriesUpdatedSince(ctx context.Context, cursor time.Time, limit int) ([]*domain.Entry, error)
	UpdateEntry(ctx context.Context, id int64, patch domain.EntryPatch) (*domain.Entry, error)
	// SoftDeleteEntry reports false when the entry is missing or already
	// deleted; repeat deletes are not a success.
	SoftDeleteEntry(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error)
	// UpsertEntryByClientEventID creates the entry or overwrites the mutable
	// fields of the existing one (last write wins).
	UpsertEntryByClientEventID(ctx context.Context, entry *domain.Entry) (*domain.Entry, error)
}

type BottleStore interface {
	CreateBottle(ctx context.Context, bottle *domain.Bottle) (*domain.Bottle, error)
	GetBottle(ctx context.Context, id int64) (*domain.Bottle, error)
	// ListBottles returns last-updated first, id descending as tie-break.
	ListBottles(ctx context.Context, includeDeleted bool) ([]*domain.Bottle, error)
	UpdateBottle(ctx context.Context, id int64, patch domain.BottlePatch) (*domain.Bottle, error)
	SoftDeleteBottle(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error)
}

type GoalStore interface {
	CreateGoal(ctx context.Context, goal *domain.FeedingGoal) (*domain.FeedingGoal, error)
	GetGoal(ctx context.Context, id int64) (*domain.FeedingGoal, error)
	// ListGoals orders by start_date desc, created_at desc.
	ListGoals(ctx context.Context, limit int) ([]*domain.FeedingGoal, error)
	// CurrentGoal picks by created_at desc, id desc (creation order, not
	// start_date). The divergence from list order is deliberate.
	CurrentGoal(ctx context.Context) (*domain.FeedingGoal, error)
	UpdateGoal(ctx context.Context, id int64, patch domain.GoalPatch) (*domain.FeedingGoal, error)
	// DeleteGoal removes the record outright; goals have no soft delete.
	DeleteGoal(ctx context.Context, id int64) (bool, error)
}

type CalendarStore interface {
	CreateEvent(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error)
	GetEvent(ctx context.Context, id int64) (*domain.CalendarEvent, error)
	// ListEvents returns stored events that could produce an occurrence within
	// [startDate, endDate]; occurrence expansion happens in the service.
	ListEvents(ctx context.Context, startDate, endDate string, includeDeleted bool) ([]*domain.CalendarEvent, error)
	UpdateEvent(ctx context.Context, id int64, patch domain.CalendarEventPatch) (*domain.CalendarEvent, error)
	SoftDeleteEvent(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error)
}

type ReminderStore interface {
	CreateReminder(ctx context.Context, reminder *domain.Reminder) (*domain.Reminder, error)
	GetReminder(ctx context.Context, id int64) (*domain.Reminder, error)
	// ListReminders returns fixed id-ascending order.
	ListReminders(ctx context.Context) ([]*domain.Reminder, error)
	// ListDueReminders returns active reminders with next_due_at <= now,
	// earliest due first.
	ListDueReminders(ctx context.Context, now time.Time) ([]*domain.Reminder, error)
	UpdateReminder(ctx context.Context, id int64, patch domain.ReminderPatch) (*domain.Reminder, error)
	MarkReminderSent(ctx context.Context, id int64, sentAt, nextDueAt time.Time) error
}

type SettingsStore interface {
	// GetSettings auto-creates the singleton with all-null values on first
	// touch within the store.
	GetSettings(ctx context.Context) (*domain.Settings, error)
	UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (*domain.Settings, error)
}

// Store is the full capability set a backend provides.
type Store interface {
	EntryStore
	BottleStore
	GoalStore
	CalendarStore
	ReminderStore
	SettingsStore
	Close() error
}
