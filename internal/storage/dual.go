package storage

import (
	"context"
	"time"

	"babylog-sync-server/internal/domain"

	"github.com/rs/zerolog"
)

// DualStore writes the primary store first, which assigns ids and is
// authoritative for the caller's success signal, then mirrors the mutation
// into the secondary store with the same id. Mirror failures are logged and
// dropped: the stores are allowed to drift until the next successful mirrored
// write of that record. Reads always come from the primary.
type DualStore struct {
	primary   Store
	secondary Store
	log       zerolog.Logger
}

func NewDualStore(primary, secondary Store, log zerolog.Logger) *DualStore {
	return &DualStore{
		primary:   primary,
		secondary: secondary,
		log:       log.With().Str("component", "dual-store").Logger(),
	}
}

func (d *DualStore) mirrorErr(op string, id int64, err error) {
	if err != nil {
		d.log.Warn().Err(err).Str("op", op).Int64("id", id).Msg("secondary mirror write failed")
	}
}

func (d *DualStore) Close() error {
	if err := d.secondary.Close(); err != nil {
		d.log.Warn().Err(err).Msg("closing secondary store")
	}
	return d.primary.Close()
}

// --- entries ---

func (d *DualStore) CreateEntry(ctx context.Context, entry *domain.Entry) (*domain.Entry, bool, error) {
	created, duplicate, err := d.primary.CreateEntry(ctx, entry)
	if err != nil {
		return nil, false, err
	}
	if !duplicate {
		mirror := *created
		_, _, merr := d.secondary.CreateEntry(ctx, &mirror)
		d.mirrorErr("create_entry", created.ID, merr)
	}
	return created, duplicate, nil
}

func (d *DualStore) GetEntry(ctx context.Context, id int64) (*domain.Entry, error) {
	return d.primary.GetEntry(ctx, id)
}

func (d *DualStore) GetEntryByClientEventID(ctx context.Context, clientEventID string) (*domain.Entry, error) {
	return d.primary.GetEntryByClientEventID(ctx, clientEventID)
}

func (d *DualStore) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error) {
	return d.primary.ListEntries(ctx, filter)
}

func (d *DualStore) ListEntriesForExport(ctx context.Context, tenant string) ([]*domain.Entry, error) {
	return d.primary.ListEntriesForExport(ctx, tenant)
}

func (d *DualStore) ListEntriesUpdatedSince(ctx context.Context, cursor time.Time, limit int) ([]*domain.Entry, error) {
	return d.primary.ListEntriesUpdatedSince(ctx, cursor, limit)
}

func (d *DualStore) UpdateEntry(ctx context.Context, id int64, patch domain.EntryPatch) (*domain.Entry, error) {
	updated, err := d.primary.UpdateEntry(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	// Mirror the full post-update record rather than the patch so a previously
	// missed mirror write heals here.
	mirror := *updated
	_, merr := d.secondary.UpsertEntryByClientEventID(ctx, &mirror)
	d.mirrorErr("update_entry", id, merr)
	return updated, nil
}

func (d *DualStore) SoftDeleteEntry(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error) {
	deleted, err := d.primary.SoftDeleteEntry(ctx, id, deletedAt, updatedAt)
	if err != nil || !deleted {
		return deleted, err
	}
	_, merr := d.secondary.SoftDeleteEntry(ctx, id, deletedAt, updatedAt)
	d.mirrorErr("soft_delete_entry", id, merr)
	return true, nil
}

func (d *DualStore) UpsertEntryByClientEventID(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	upserted, err := d.primary.UpsertEntryByClientEventID(ctx, entry)
	if err != nil {
		return nil, err
	}
	mirror := *upserted
	_, merr := d.secondary.UpsertEntryByClientEventID(ctx, &mirror)
	d.mirrorErr("upsert_entry", upserted.ID, merr)
	return upserted, nil
}

// --- bottles ---

func (d *DualStore) CreateBottle(ctx context.Context, bottle *domain.Bottle) (*domain.Bottle, error) {
	created, err := d.primary.CreateBottle(ctx, bottle)
	if err != nil {
		return nil, err
	}
	mirror := *created
	_, merr := d.secondary.CreateBottle(ctx, &mirror)
	d.mirrorErr("create_bottle", created.ID, merr)
	return created, nil
}

func (d *DualStore) GetBottle(ctx context.Context, id int64) (*domain.Bottle, error) {
	return d.primary.GetBottle(ctx, id)
}

func (d *DualStore) ListBottles(ctx context.Context, includeDeleted bool) ([]*domain.Bottle, error) {
	return d.primary.ListBottles(ctx, includeDeleted)
}

func (d *DualStore) UpdateBottle(ctx context.Context, id int64, patch domain.BottlePatch) (*domain.Bottle, error) {
	updated, err := d.primary.UpdateBottle(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	_, merr := d.secondary.UpdateBottle(ctx, id, patch)
	d.mirrorErr("update_bottle", id, merr)
	return updated, nil
}

func (d *DualStore) SoftDeleteBottle(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error) {
	deleted, err := d.primary.SoftDeleteBottle(ctx, id, deletedAt, updatedAt)
	if err != nil || !deleted {
		return deleted, err
	}
	_, merr := d.secondary.SoftDeleteBottle(ctx, id, deletedAt, updatedAt)
	d.mirrorErr("soft_delete_bottle", id, merr)
	return true, nil
}

// --- feeding goals ---

func (d *DualStore) CreateGoal(ctx context.Context, goal *domain.FeedingGoal) (*domain.FeedingGoal, error) {
	created, err := d.primary.CreateGoal(ctx, goal)
	if err != nil {
		return nil, err
	}
	mirror := *created
	_, merr := d.secondary.CreateGoal(ctx, &mirror)
	d.mirrorErr("create_goal", created.ID, merr)
	return created, nil
}

func (d *DualStore) GetGoal(ctx context.Context, id int64) (*domain.FeedingGoal, error) {
	return d.primary.GetGoal(ctx, id)
}

func (d *DualStore) ListGoals(ctx context.Context, limit int) ([]*domain.FeedingGoal, error) {
	return d.primary.ListGoals(ctx, limit)
}

func (d *DualStore) CurrentGoal(ctx context.Context) (*domain.FeedingGoal, error) {
	return d.primary.CurrentGoal(ctx)
}

func (d *DualStore) UpdateGoal(ctx context.Context, id int64, patch domain.GoalPatch) (*domain.FeedingGoal, error) {
	updated, err := d.primary.UpdateGoal(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	_, merr := d.secondary.UpdateGoal(ctx, id, patch)
	d.mirrorErr("update_goal", id, merr)
	return updated, nil
}

func (d *DualStore) DeleteGoal(ctx context.Context, id int64) (bool, error) {
	deleted, err := d.primary.DeleteGoal(ctx, id)
	if err != nil || !deleted {
		return deleted, err
	}
	_, merr := d.secondary.DeleteGoal(ctx, id)
	d.mirrorErr("delete_goal", id, merr)
	return true, nil
}

// --- calendar events ---

func (d *DualStore) CreateEvent(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	created, err := d.primary.CreateEvent(ctx, event)
	if err != nil {
		return nil, err
	}
	mirror := *created
	_, merr := d.secondary.CreateEvent(ctx, &mirror)
	d.mirrorErr("create_event", created.ID, merr)
	return created, nil
}

func (d *DualStore) GetEvent(ctx context.Context, id int64) (*domain.CalendarEvent, error) {
	return d.primary.GetEvent(ctx, id)
}

func (d *DualStore) ListEvents(ctx context.Context, startDate, endDate string, includeDeleted bool) ([]*domain.CalendarEvent, error) {
	return d.primary.ListEvents(ctx, startDate, endDate, includeDeleted)
}

func (d *DualStore) UpdateEvent(ctx context.Context, id int64, patch domain.CalendarEventPatch) (*domain.CalendarEvent, error) {
	updated, err := d.primary.UpdateEvent(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	_, merr := d.secondary.UpdateEvent(ctx, id, patch)
	d.mirrorErr("update_event", id, merr)
	return updated, nil
}

func (d *DualStore) SoftDeleteEvent(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error) {
	deleted, err := d.primary.SoftDeleteEvent(ctx, id, deletedAt, updatedAt)
	if err != nil || !deleted {
		return deleted, err
	}
	_, merr := d.secondary.SoftDeleteEvent(ctx, id, deletedAt, updatedAt)
	d.mirrorErr("soft_delete_event", id, merr)
	return true, nil
}

// --- reminders ---

func (d *DualStore) CreateReminder(ctx context.Context, reminder *domain.Reminder) (*domain.Reminder, error) {
	created, err := d.primary.CreateReminder(ctx, reminder)
	if err != nil {
		return nil, err
	}
	mirror := *created
	_, merr := d.secondary.CreateReminder(ctx, &mirror)
	d.mirrorErr("create_reminder", created.ID, merr)
	return created, nil
}

func (d *DualStore) GetReminder(ctx context.Context, id int64) (*domain.Reminder, error) {
	return d.primary.GetReminder(ctx, id)
}

func (d *DualStore) ListReminders(ctx context.Context) ([]*domain.Reminder, error) {
	return d.primary.ListReminders(ctx)
}

func (d *DualStore) ListDueReminders(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	return d.primary.ListDueReminders(ctx, now)
}

func (d *DualStore) UpdateReminder(ctx context.Context, id int64, patch domain.ReminderPatch) (*domain.Reminder, error) {
	updated, err := d.primary.UpdateReminder(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	_, merr := d.secondary.UpdateReminder(ctx, id, patch)
	d.mirrorErr("update_reminder", id, merr)
	return updated, nil
}

func (d *DualStore) MarkReminderSent(ctx context.Context, id int64, sentAt, nextDueAt time.Time) error {
	if err := d.primary.MarkReminderSent(ctx, id, sentAt, nextDueAt); err != nil {
		return err
	}
	d.mirrorErr("mark_reminder_sent", id, d.secondary.MarkReminderSent(ctx, id, sentAt, nextDueAt))
	return nil
}

// --- settings ---

func (d *DualStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	return d.primary.GetSettings(ctx)
}

func (d *DualStore) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (*domain.Settings, error) {
	updated, err := d.primary.UpdateSettings(ctx, patch)
	if err != nil {
		return nil, err
	}
	_, merr := d.secondary.UpdateSettings(ctx, patch)
	d.mirrorErr("update_settings", 0, merr)
	return updated, nil
}
