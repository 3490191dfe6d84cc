package service

import (
	"context"
	"sort"
	"time"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/storage"
)

// memEntryStore is an in-memory EntryStore with the same observable contract
// as the real backends.
type memEntryStore struct {
	nextID  int64
	entries map[string]*domain.Entry
}

func newMemEntryStore() *memEntryStore {
	return &memEntryStore{entries: make(map[string]*domain.Entry)}
}

func (m *memEntryStore) CreateEntry(ctx context.Context, entry *domain.Entry) (*domain.Entry, bool, error) {
	if existing, ok := m.entries[entry.ClientEventID]; ok {
		return existing, true, nil
	}
	if entry.ID == 0 {
		m.nextID++
		entry.ID = m.nextID
	}
	stored := *entry
	m.entries[entry.ClientEventID] = &stored
	return &stored, false, nil
}

func (m *memEntryStore) GetEntry(ctx context.Context, id int64) (*domain.Entry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memEntryStore) GetEntryByClientEventID(ctx context.Context, clientEventID string) (*domain.Entry, error) {
	if e, ok := m.entries[clientEventID]; ok {
		return e, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memEntryStore) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error) {
	result := []*domain.Entry{}
	for _, e := range m.entries {
		if !filter.IncludeDeleted && e.DeletedAt != nil {
			continue
		}
		if filter.Tenant != "" && e.Tenant != filter.Tenant {
			continue
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		if filter.Since != nil && e.Timestamp.Before(*filter.Since) {
			continue
		}
		if filter.Until != nil && e.Timestamp.After(*filter.Until) {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.After(result[j].Timestamp) })
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *memEntryStore) ListEntriesForExport(ctx context.Context, tenant string) ([]*domain.Entry, error) {
	result := []*domain.Entry{}
	for _, e := range m.entries {
		if e.DeletedAt != nil {
			continue
		}
		if tenant != "" && e.Tenant != tenant {
			continue
		}
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Timestamp.Before(result[j].Timestamp) })
	return result, nil
}

func (m *memEntryStore) ListEntriesUpdatedSince(ctx context.Context, cursor time.Time, limit int) ([]*domain.Entry, error) {
	result := []*domain.Entry{}
	for _, e := range m.entries {
		if !e.UpdatedAt.Before(cursor) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.Before(result[j].UpdatedAt) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *memEntryStore) UpdateEntry(ctx context.Context, id int64, patch domain.EntryPatch) (*domain.Entry, error) {
	for _, e := range m.entries {
		if e.ID != id {
			continue
		}
		if patch.Kind.Set {
			e.Kind = patch.Kind.Value
		}
		if patch.Timestamp.Set {
			e.Timestamp = patch.Timestamp.Value
		}
		if patch.Notes.Set {
			e.Notes = patch.Notes.Value
		}
		if patch.VolumeML.Set {
			e.VolumeML = patch.VolumeML.Value
		}
		if patch.ExpressedML.Set {
			e.ExpressedML = patch.ExpressedML.Value
		}
		if patch.FormulaML.Set {
			e.FormulaML = patch.FormulaML.Value
		}
		if patch.DurationMin.Set {
			e.DurationMin = patch.DurationMin.Value
		}
		if patch.CaregiverID.Set {
			e.CaregiverID = patch.CaregiverID.Value
		}
		if patch.UpdatedAt.Set {
			e.UpdatedAt = patch.UpdatedAt.Value
		}
		if patch.DeletedAt.Set {
			e.DeletedAt = patch.DeletedAt.Value
		}
		return e, nil
	}
	return nil, storage.ErrNotFound
}

func (m *memEntryStore) SoftDeleteEntry(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error) {
	for _, e := range m.entries {
		if e.ID == id {
			if e.DeletedAt != nil {
				return false, nil
			}
			e.DeletedAt = &deletedAt
			e.UpdatedAt = updatedAt
			return true, nil
		}
	}
	return false, nil
}

func (m *memEntryStore) UpsertEntryByClientEventID(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	if existing, ok := m.entries[entry.ClientEventID]; ok {
		existing.Tenant = entry.Tenant
		existing.Kind = entry.Kind
		existing.Timestamp = entry.Timestamp
		existing.Notes = entry.Notes
		existing.VolumeML = entry.VolumeML
		existing.ExpressedML = entry.ExpressedML
		existing.FormulaML = entry.FormulaML
		existing.DurationMin = entry.DurationMin
		existing.CaregiverID = entry.CaregiverID
		existing.UpdatedAt = entry.UpdatedAt
		existing.DeletedAt = entry.DeletedAt
		return existing, nil
	}
	created, _, err := m.CreateEntry(ctx, entry)
	return created, err
}

// memCalendarStore keeps events in insertion order.
type memCalendarStore struct {
	nextID int64
	events []*domain.CalendarEvent
}

func (m *memCalendarStore) CreateEvent(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	if event.ID == 0 {
		m.nextID++
		event.ID = m.nextID
	}
	stored := *event
	m.events = append(m.events, &stored)
	return &stored, nil
}

func (m *memCalendarStore) GetEvent(ctx context.Context, id int64) (*domain.CalendarEvent, error) {
	for _, e := range m.events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memCalendarStore) ListEvents(ctx context.Context, startDate, endDate string, includeDeleted bool) ([]*domain.CalendarEvent, error) {
	result := []*domain.CalendarEvent{}
	for _, e := range m.events {
		if !includeDeleted && e.DeletedAt != nil {
			continue
		}
		if e.Date > endDate {
			continue
		}
		if e.RecurrenceUntil != nil && *e.RecurrenceUntil < startDate {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (m *memCalendarStore) UpdateEvent(ctx context.Context, id int64, patch domain.CalendarEventPatch) (*domain.CalendarEvent, error) {
	event, err := m.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title.Set {
		event.Title = patch.Title.Value
	}
	if patch.Date.Set {
		event.Date = patch.Date.Value
	}
	if patch.StartTime.Set {
		event.StartTime = patch.StartTime.Value
	}
	if patch.EndTime.Set {
		event.EndTime = patch.EndTime.Value
	}
	if patch.Location.Set {
		event.Location = patch.Location.Value
	}
	if patch.Notes.Set {
		event.Notes = patch.Notes.Value
	}
	if patch.Category.Set {
		event.Category = patch.Category.Value
	}
	if patch.Recurrence.Set {
		event.Recurrence = patch.Recurrence.Value
	}
	if patch.RecurrenceUntil.Set {
		event.RecurrenceUntil = patch.RecurrenceUntil.Value
	}
	if patch.UpdatedAt.Set {
		event.UpdatedAt = patch.UpdatedAt.Value
	}
	return event, nil
}

func (m *memCalendarStore) SoftDeleteEvent(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error) {
	event, err := m.GetEvent(ctx, id)
	if err != nil || event.DeletedAt != nil {
		return false, nil
	}
	event.DeletedAt = &deletedAt
	event.UpdatedAt = updatedAt
	return true, nil
}

// memReminderStore tracks dispatch bookkeeping for the scheduler tests.
type memReminderStore struct {
	nextID    int64
	reminders []*domain.Reminder
}

func (m *memReminderStore) CreateReminder(ctx context.Context, reminder *domain.Reminder) (*domain.Reminder, error) {
	if reminder.ID == 0 {
		m.nextID++
		reminder.ID = m.nextID
	}
	stored := *reminder
	m.reminders = append(m.reminders, &stored)
	return &stored, nil
}

func (m *memReminderStore) GetReminder(ctx context.Context, id int64) (*domain.Reminder, error) {
	for _, r := range m.reminders {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (m *memReminderStore) ListReminders(ctx context.Context) ([]*domain.Reminder, error) {
	result := append([]*domain.Reminder{}, m.reminders...)
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *memReminderStore) ListDueReminders(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	due := []*domain.Reminder{}
	for _, r := range m.reminders {
		if r.Active && !r.NextDueAt.After(now) {
			due = append(due, r)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextDueAt.Before(due[j].NextDueAt) })
	return due, nil
}

func (m *memReminderStore) UpdateReminder(ctx context.Context, id int64, patch domain.ReminderPatch) (*domain.Reminder, error) {
	reminder, err := m.GetReminder(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name.Set {
		reminder.Name = patch.Name.Value
	}
	if patch.Kind.Set {
		reminder.Kind = patch.Kind.Value
	}
	if patch.IntervalMin.Set {
		reminder.IntervalMin = patch.IntervalMin.Value
	}
	if patch.Message.Set {
		reminder.Message = patch.Message.Value
	}
	if patch.Active.Set {
		reminder.Active = patch.Active.Value
	}
	if patch.LastSentAt.Set {
		reminder.LastSentAt = patch.LastSentAt.Value
	}
	if patch.NextDueAt.Set {
		reminder.NextDueAt = patch.NextDueAt.Value
	}
	if patch.UpdatedAt.Set {
		reminder.UpdatedAt = patch.UpdatedAt.Value
	}
	return reminder, nil
}

func (m *memReminderStore) MarkReminderSent(ctx context.Context, id int64, sentAt, nextDueAt time.Time) error {
	reminder, err := m.GetReminder(ctx, id)
	if err != nil {
		return err
	}
	sent := sentAt
	reminder.LastSentAt = &sent
	reminder.NextDueAt = nextDueAt
	reminder.UpdatedAt = sentAt
	return nil
}

// memSettingsStore is the singleton with all-null defaults.
type memSettingsStore struct {
	settings *domain.Settings
}

func (m *memSettingsStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	if m.settings == nil {
		m.settings = &domain.Settings{CustomEventKinds: []string{}}
	}
	return m.settings, nil
}

func (m *memSettingsStore) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (*domain.Settings, error) {
	settings, _ := m.GetSettings(ctx)
	if patch.DOB.Set {
		settings.DOB = patch.DOB.Value
	}
	if patch.FeedIntervalMin.Set {
		settings.FeedIntervalMin = patch.FeedIntervalMin.Value
	}
	if patch.CustomEventKinds.Set {
		settings.CustomEventKinds = patch.CustomEventKinds.Value
	}
	if patch.FeedGoalMin.Set {
		settings.FeedGoalMin = patch.FeedGoalMin.Value
	}
	if patch.FeedGoalMax.Set {
		settings.FeedGoalMax = patch.FeedGoalMax.Value
	}
	if patch.OvernightGapMinHours.Set {
		settings.OvernightGapMinHours = patch.OvernightGapMinHours.Value
	}
	if patch.OvernightGapMaxHours.Set {
		settings.OvernightGapMaxHours = patch.OvernightGapMaxHours.Value
	}
	if patch.BehindTargetMode.Set {
		settings.BehindTargetMode = patch.BehindTargetMode.Value
	}
	if patch.EntryWebhookURL.Set {
		settings.EntryWebhookURL = patch.EntryWebhookURL.Value
	}
	if patch.DefaultTenant.Set {
		settings.DefaultTenant = patch.DefaultTenant.Value
	}
	if patch.FeedDuePushURL.Set {
		settings.FeedDuePushURL = patch.FeedDuePushURL.Value
	}
	if patch.ScheduleAnchorTime.Set {
		settings.ScheduleAnchorTime = patch.ScheduleAnchorTime.Value
	}
	if patch.UpdatedAt.Set {
		settings.UpdatedAt = patch.UpdatedAt.Value
	}
	return settings, nil
}
