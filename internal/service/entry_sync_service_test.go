package service

import (
	"context"
	"errors"
	"testing"

	"babylog-sync-server/internal/domain"

	"github.com/rs/zerolog"
)

func newSyncService(store *memEntryStore) *EntrySyncService {
	return NewEntrySyncService(store, 500, 30, nil, zerolog.Nop())
}

func upsertChange(ceid, kind, timestamp string) domain.SyncChange {
	return domain.SyncChange{
		Action: domain.SyncActionUpsert,
		Entry: &domain.SyncEntryPayload{
			CreateEntryRequest: domain.CreateEntryRequest{
				Kind:          kind,
				Timestamp:     timestamp,
				ClientEventID: ceid,
			},
		},
	}
}

func TestSync_RequiresDeviceID(t *testing.T) {
	service := newSyncService(newMemEntryStore())

	_, err := service.Apply(context.Background(), &domain.SyncRequest{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSync_RoundTripConvergence(t *testing.T) {
	store := newMemEntryStore()
	service := newSyncService(store)

	// Device A pushes two entries.
	respA, err := service.Apply(context.Background(), &domain.SyncRequest{
		DeviceID: "phone-a",
		Changes: []domain.SyncChange{
			upsertChange("evt-1", "food", "2026-03-01T08:00:00Z"),
			upsertChange("evt-2", "nappy", "2026-03-01T09:00:00Z"),
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(respA.Entries) != 2 {
		t.Fatalf("expected device A to pull back both entries, got %d", len(respA.Entries))
	}
	if respA.Cursor == "" {
		t.Fatal("expected a cursor")
	}

	// Device B syncs with no cursor and converges.
	respB, err := service.Apply(context.Background(), &domain.SyncRequest{DeviceID: "tablet-b"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(respB.Entries) != 2 {
		t.Fatalf("expected device B to receive both entries, got %d", len(respB.Entries))
	}

	// Replaying device A's push changes nothing: same ids, still two entries.
	respA2, err := service.Apply(context.Background(), &domain.SyncRequest{
		DeviceID: "phone-a",
		Changes: []domain.SyncChange{
			upsertChange("evt-1", "food", "2026-03-01T08:00:00Z"),
			upsertChange("evt-2", "nappy", "2026-03-01T09:00:00Z"),
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(store.entries) != 2 {
		t.Errorf("replay must not create rows, have %d", len(store.entries))
	}
	if len(respA2.Entries) != 2 {
		t.Errorf("expected 2 pulled entries, got %d", len(respA2.Entries))
	}
}

func TestSync_UpsertOverwritesLastWriteWins(t *testing.T) {
	store := newMemEntryStore()
	service := newSyncService(store)

	if _, err := service.Apply(context.Background(), &domain.SyncRequest{
		DeviceID: "phone-a",
		Changes:  []domain.SyncChange{upsertChange("evt-1", "food", "2026-03-01T08:00:00Z")},
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	originalID := store.entries["evt-1"].ID

	if _, err := service.Apply(context.Background(), &domain.SyncRequest{
		DeviceID: "tablet-b",
		Changes:  []domain.SyncChange{upsertChange("evt-1", "sleep", "2026-03-01T08:30:00Z")},
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	entry := store.entries["evt-1"]
	if entry.Kind != "sleep" {
		t.Errorf("expected last write to win, got kind %s", entry.Kind)
	}
	if entry.ID != originalID {
		t.Errorf("upsert must keep the id, got %d want %d", entry.ID, originalID)
	}
}

func TestSync_DeleteChange(t *testing.T) {
	store := newMemEntryStore()
	service := newSyncService(store)

	if _, err := service.Apply(context.Background(), &domain.SyncRequest{
		DeviceID: "phone-a",
		Changes:  []domain.SyncChange{upsertChange("evt-1", "food", "2026-03-01T08:00:00Z")},
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	resp, err := service.Apply(context.Background(), &domain.SyncRequest{
		DeviceID: "phone-a",
		Changes: []domain.SyncChange{
			{Action: domain.SyncActionDelete, ClientEventID: "evt-1"},
			{Action: domain.SyncActionDelete, ClientEventID: "evt-never-existed"},
		},
	})
	if err != nil {
		t.Fatalf("unknown delete targets must be ignored, got %v", err)
	}
	if store.entries["evt-1"].DeletedAt == nil {
		t.Error("expected evt-1 to be tombstoned")
	}

	// The tombstone still syncs out so other devices drop it too.
	found := false
	for _, e := range resp.Entries {
		if e.ClientEventID == "evt-1" && e.DeletedAt != nil {
			found = true
		}
	}
	if !found {
		t.Error("expected the tombstoned entry in the pull")
	}
}

func TestSync_MalformedChangeFailsCall(t *testing.T) {
	store := newMemEntryStore()
	service := newSyncService(store)

	_, err := service.Apply(context.Background(), &domain.SyncRequest{
		DeviceID: "phone-a",
		Changes: []domain.SyncChange{
			upsertChange("evt-1", "food", "2026-03-01T08:00:00Z"),
			{Action: "merge"},
		},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	// Earlier changes may already be committed.
	if _, ok := store.entries["evt-1"]; !ok {
		t.Error("expected the first change to have been applied")
	}

	_, err = service.Apply(context.Background(), &domain.SyncRequest{
		DeviceID: "phone-a",
		Changes:  []domain.SyncChange{upsertChange("evt-2", "temp!*", "")},
	})
	if !errors.As(err, &verr) {
		t.Errorf("expected invalid kind to fail the call, got %v", err)
	}
}

func TestSync_EmptyPullKeepsCallerCursor(t *testing.T) {
	service := newSyncService(newMemEntryStore())

	cursor := "2099-01-01T00:00:00.000000Z"
	resp, err := service.Apply(context.Background(), &domain.SyncRequest{
		DeviceID: "phone-a",
		Cursor:   &cursor,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(resp.Entries) != 0 {
		t.Fatalf("expected nothing to pull, got %d", len(resp.Entries))
	}
	if resp.Cursor != cursor {
		t.Errorf("expected the caller's cursor back, got %s", resp.Cursor)
	}
}

func TestSync_EmptyPullWithoutCursorReturnsNow(t *testing.T) {
	service := newSyncService(newMemEntryStore())

	resp, err := service.Apply(context.Background(), &domain.SyncRequest{DeviceID: "phone-a"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Cursor == "" {
		t.Error("expected a server-generated cursor")
	}
}

func TestSync_InvalidCursor(t *testing.T) {
	service := newSyncService(newMemEntryStore())

	cursor := "last tuesday"
	_, err := service.Apply(context.Background(), &domain.SyncRequest{DeviceID: "phone-a", Cursor: &cursor})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSync_CursorIsMaxUpdatedAt(t *testing.T) {
	store := newMemEntryStore()
	service := newSyncService(store)

	resp, err := service.Apply(context.Background(), &domain.SyncRequest{
		DeviceID: "phone-a",
		Changes: []domain.SyncChange{
			upsertChange("evt-1", "food", "2026-03-01T08:00:00Z"),
			upsertChange("evt-2", "nappy", "2026-03-01T09:00:00Z"),
		},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	last := resp.Entries[len(resp.Entries)-1]
	for _, e := range resp.Entries {
		if e.UpdatedAt.After(last.UpdatedAt) {
			t.Fatal("pull is not ascending by updated_at")
		}
	}
}
