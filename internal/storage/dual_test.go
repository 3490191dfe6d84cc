package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"babylog-sync-server/internal/domain"

	"github.com/rs/zerolog"
)

// mockStore records the entry mutations the dual decorator sends it. Only the
// methods exercised here do anything useful.
type mockStore struct {
	nextID        int64
	createErr     error
	created       []*domain.Entry
	upserted      []*domain.Entry
	softDeleted   []int64
	deleteOK      bool
	createDup     *domain.Entry
}

func (m *mockStore) CreateEntry(ctx context.Context, entry *domain.Entry) (*domain.Entry, bool, error) {
	if m.createErr != nil {
		return nil, false, m.createErr
	}
	if m.createDup != nil {
		return m.createDup, true, nil
	}
	if entry.ID == 0 {
		m.nextID++
		entry.ID = m.nextID
	}
	m.created = append(m.created, entry)
	return entry, false, nil
}

func (m *mockStore) GetEntry(ctx context.Context, id int64) (*domain.Entry, error) {
	return nil, ErrNotFound
}

func (m *mockStore) GetEntryByClientEventID(ctx context.Context, clientEventID string) (*domain.Entry, error) {
	return nil, ErrNotFound
}

func (m *mockStore) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error) {
	return nil, nil
}

func (m *mockStore) ListEntriesForExport(ctx context.Context, tenant string) ([]*domain.Entry, error) {
	return nil, nil
}

func (m *mockStore) ListEntriesUpdatedSince(ctx context.Context, cursor time.Time, limit int) ([]*domain.Entry, error) {
	return nil, nil
}

func (m *mockStore) UpdateEntry(ctx context.Context, id int64, patch domain.EntryPatch) (*domain.Entry, error) {
	entry := &domain.Entry{ID: id, ClientEventID: "evt-upd"}
	if patch.Kind.Set {
		entry.Kind = patch.Kind.Value
	}
	return entry, nil
}

func (m *mockStore) SoftDeleteEntry(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error) {
	if !m.deleteOK {
		return false, nil
	}
	m.softDeleted = append(m.softDeleted, id)
	return true, nil
}

func (m *mockStore) UpsertEntryByClientEventID(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.upserted = append(m.upserted, entry)
	return entry, nil
}

func (m *mockStore) CreateBottle(ctx context.Context, bottle *domain.Bottle) (*domain.Bottle, error) {
	return bottle, nil
}
func (m *mockStore) GetBottle(ctx context.Context, id int64) (*domain.Bottle, error) {
	return nil, ErrNotFound
}
func (m *mockStore) ListBottles(ctx context.Context, includeDeleted bool) ([]*domain.Bottle, error) {
	return nil, nil
}
func (m *mockStore) UpdateBottle(ctx context.Context, id int64, patch domain.BottlePatch) (*domain.Bottle, error) {
	return nil, ErrNotFound
}
func (m *mockStore) SoftDeleteBottle(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error) {
	return false, nil
}
func (m *mockStore) CreateGoal(ctx context.Context, goal *domain.FeedingGoal) (*domain.FeedingGoal, error) {
	return goal, nil
}
func (m *mockStore) GetGoal(ctx context.Context, id int64) (*domain.FeedingGoal, error) {
	return nil, ErrNotFound
}
func (m *mockStore) ListGoals(ctx context.Context, limit int) ([]*domain.FeedingGoal, error) {
	return nil, nil
}
func (m *mockStore) CurrentGoal(ctx context.Context) (*domain.FeedingGoal, error) {
	return nil, ErrNotFound
}
func (m *mockStore) UpdateGoal(ctx context.Context, id int64, patch domain.GoalPatch) (*domain.FeedingGoal, error) {
	return nil, ErrNotFound
}
func (m *mockStore) DeleteGoal(ctx context.Context, id int64) (bool, error) { return false, nil }
func (m *mockStore) CreateEvent(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	return event, nil
}
func (m *mockStore) GetEvent(ctx context.Context, id int64) (*domain.CalendarEvent, error) {
	return nil, ErrNotFound
}
func (m *mockStore) ListEvents(ctx context.Context, startDate, endDate string, includeDeleted bool) ([]*domain.CalendarEvent, error) {
	return nil, nil
}
func (m *mockStore) UpdateEvent(ctx context.Context, id int64, patch domain.CalendarEventPatch) (*domain.CalendarEvent, error) {
	return nil, ErrNotFound
}
func (m *mockStore) SoftDeleteEvent(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error) {
	return false, nil
}
func (m *mockStore) CreateReminder(ctx context.Context, reminder *domain.Reminder) (*domain.Reminder, error) {
	return reminder, nil
}
func (m *mockStore) GetReminder(ctx context.Context, id int64) (*domain.Reminder, error) {
	return nil, ErrNotFound
}
func (m *mockStore) ListReminders(ctx context.Context) ([]*domain.Reminder, error) { return nil, nil }
func (m *mockStore) ListDueReminders(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	return nil, nil
}
func (m *mockStore) UpdateReminder(ctx context.Context, id int64, patch domain.ReminderPatch) (*domain.Reminder, error) {
	return nil, ErrNotFound
}
func (m *mockStore) MarkReminderSent(ctx context.Context, id int64, sentAt, nextDueAt time.Time) error {
	return nil
}
func (m *mockStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	return &domain.Settings{CustomEventKinds: []string{}}, nil
}
func (m *mockStore) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (*domain.Settings, error) {
	return &domain.Settings{CustomEventKinds: []string{}}, nil
}
func (m *mockStore) Close() error { return nil }

func newDual(primary, secondary *mockStore) *DualStore {
	return NewDualStore(primary, secondary, zerolog.Nop())
}

func TestCreateEntryMirrorsWithSameID(t *testing.T) {
	primary := &mockStore{nextID: 41}
	secondary := &mockStore{}
	dual := newDual(primary, secondary)

	created, duplicate, err := dual.CreateEntry(context.Background(), &domain.Entry{
		Kind:          "food",
		ClientEventID: "evt-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if duplicate {
		t.Fatal("expected a fresh create")
	}
	if created.ID != 42 {
		t.Errorf("expected primary-assigned id 42, got %d", created.ID)
	}
	if len(secondary.created) != 1 {
		t.Fatalf("expected 1 mirrored create, got %d", len(secondary.created))
	}
	if secondary.created[0].ID != 42 {
		t.Errorf("expected mirror to carry id 42, got %d", secondary.created[0].ID)
	}
}

func TestCreateEntryDuplicateSkipsMirror(t *testing.T) {
	existing := &domain.Entry{ID: 7, ClientEventID: "evt-1"}
	primary := &mockStore{createDup: existing}
	secondary := &mockStore{}
	dual := newDual(primary, secondary)

	created, duplicate, err := dual.CreateEntry(context.Background(), &domain.Entry{ClientEventID: "evt-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !duplicate {
		t.Fatal("expected duplicate")
	}
	if created.ID != 7 {
		t.Errorf("expected existing id 7, got %d", created.ID)
	}
	if len(secondary.created) != 0 {
		t.Errorf("duplicate create must not touch the secondary, got %d writes", len(secondary.created))
	}
}

func TestCreateEntryMirrorFailureDoesNotSurface(t *testing.T) {
	primary := &mockStore{}
	secondary := &mockStore{createErr: errors.New("couch unreachable")}
	dual := newDual(primary, secondary)

	created, _, err := dual.CreateEntry(context.Background(), &domain.Entry{ClientEventID: "evt-1"})
	if err != nil {
		t.Fatalf("mirror failure must not surface, got: %v", err)
	}
	if created == nil || created.ID == 0 {
		t.Fatal("expected the primary create to succeed")
	}
}

func TestPrimaryCreateFailureSurfaces(t *testing.T) {
	primary := &mockStore{createErr: errors.New("disk full")}
	secondary := &mockStore{}
	dual := newDual(primary, secondary)

	if _, _, err := dual.CreateEntry(context.Background(), &domain.Entry{ClientEventID: "evt-1"}); err == nil {
		t.Fatal("expected primary failure to surface")
	}
	if len(secondary.created) != 0 {
		t.Errorf("failed primary create must not reach the secondary, got %d writes", len(secondary.created))
	}
}

func TestUpdateEntryMirrorsFullRecordViaUpsert(t *testing.T) {
	primary := &mockStore{}
	secondary := &mockStore{}
	dual := newDual(primary, secondary)

	patch := domain.EntryPatch{Kind: domain.SetField("sleep")}
	updated, err := dual.UpdateEntry(context.Background(), 3, patch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Kind != "sleep" {
		t.Errorf("expected patched kind, got %s", updated.Kind)
	}
	if len(secondary.upserted) != 1 {
		t.Fatalf("expected 1 mirrored upsert, got %d", len(secondary.upserted))
	}
	if secondary.upserted[0].ID != 3 || secondary.upserted[0].Kind != "sleep" {
		t.Errorf("expected the post-update record mirrored, got %+v", secondary.upserted[0])
	}
}

func TestSoftDeleteEntryNotFoundSkipsMirror(t *testing.T) {
	primary := &mockStore{deleteOK: false}
	secondary := &mockStore{deleteOK: true}
	dual := newDual(primary, secondary)

	now := time.Now().UTC()
	deleted, err := dual.SoftDeleteEntry(context.Background(), 99, now, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted {
		t.Fatal("expected delete to report false")
	}
	if len(secondary.softDeleted) != 0 {
		t.Errorf("missing record must not be deleted on the secondary, got %v", secondary.softDeleted)
	}
}

func TestSoftDeleteEntryMirrors(t *testing.T) {
	primary := &mockStore{deleteOK: true}
	secondary := &mockStore{deleteOK: true}
	dual := newDual(primary, secondary)

	now := time.Now().UTC()
	deleted, err := dual.SoftDeleteEntry(context.Background(), 5, now, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to report true")
	}
	if len(secondary.softDeleted) != 1 || secondary.softDeleted[0] != 5 {
		t.Errorf("expected mirrored delete of id 5, got %v", secondary.softDeleted)
	}
}
