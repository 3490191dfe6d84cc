package service

import (
	"context"
	"errors"
	"time"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/storage"
	"babylog-sync-server/pkg/timeutil"

	"github.com/rs/zerolog"
)

// EntrySyncService implements the push/pull cycle offline devices run against
// the server. Conflict resolution is last-write-wins on whole records; there
// is no field-level merge.
type EntrySyncService struct {
	store      storage.EntryStore
	pullLimit  int
	windowDays int
	notifier   ChangeNotifier
	log        zerolog.Logger
}

func NewEntrySyncService(store storage.EntryStore, pullLimit, windowDays int, notifier ChangeNotifier, log zerolog.Logger) *EntrySyncService {
	return &EntrySyncService{
		store:      store,
		pullLimit:  pullLimit,
		windowDays: windowDays,
		notifier:   notifier,
		log:        log.With().Str("component", "entry-sync").Logger(),
	}
}

// Apply pushes the device's changes, then pulls everything updated since the
// cursor. Changes are applied in order and a malformed change fails the whole
// call; changes before it may already be committed. Clients recover by
// resending, which the idempotent upsert absorbs.
func (s *EntrySyncService) Apply(ctx context.Context, req *domain.SyncRequest) (*domain.SyncResponse, error) {
	if req.DeviceID == "" {
		return nil, validationErrorf("device_id is required")
	}

	var suppliedCursor *time.Time
	if req.Cursor != nil && *req.Cursor != "" {
		parsed, err := timeutil.ParseCursor(*req.Cursor)
		if err != nil {
			return nil, validationErrorf("cursor %q is not a valid ISO-8601 instant", *req.Cursor)
		}
		suppliedCursor = &parsed
	}

	mutated := false
	for i, change := range req.Changes {
		switch change.Action {
		case domain.SyncActionUpsert:
			if err := s.applyUpsert(ctx, change.Entry); err != nil {
				return nil, err
			}
			mutated = true
		case domain.SyncActionDelete:
			applied, err := s.applyDelete(ctx, change.ClientEventID)
			if err != nil {
				return nil, err
			}
			mutated = mutated || applied
		default:
			return nil, validationErrorf("changes[%d]: unknown action %q", i, change.Action)
		}
	}

	now := timeutil.Now()
	effectiveCursor := now.AddDate(0, 0, -s.windowDays)
	if suppliedCursor != nil {
		effectiveCursor = *suppliedCursor
	}
	entries, err := s.store.ListEntriesUpdatedSince(ctx, effectiveCursor, s.pullLimit)
	if err != nil {
		return nil, err
	}

	// Rows come back updated_at ascending, so the last one carries the next
	// cursor. An empty pull keeps the caller where they were.
	cursor := timeutil.Format(now)
	if len(entries) > 0 {
		cursor = timeutil.Format(entries[len(entries)-1].UpdatedAt)
	} else if req.Cursor != nil && *req.Cursor != "" {
		cursor = *req.Cursor
	}

	if mutated && s.notifier != nil {
		s.notifier.EntriesChanged("")
	}
	s.log.Debug().
		Str("device_id", req.DeviceID).
		Int("changes", len(req.Changes)).
		Int("pulled", len(entries)).
		Msg("sync cycle complete")

	return &domain.SyncResponse{Cursor: cursor, Entries: entries}, nil
}

func (s *EntrySyncService) applyUpsert(ctx context.Context, payload *domain.SyncEntryPayload) error {
	if payload == nil {
		return validationErrorf("upsert change is missing its entry")
	}
	if payload.ClientEventID == "" {
		return validationErrorf("entry client_event_id is required")
	}
	if err := validateKind(payload.Kind); err != nil {
		return err
	}
	if err := validateEntryAmounts(payload.VolumeML, payload.ExpressedML, payload.FormulaML, payload.DurationMin); err != nil {
		return err
	}

	now := timeutil.Now()
	timestamp := now
	if payload.Timestamp != "" {
		parsed, err := timeutil.Parse(payload.Timestamp)
		if err != nil {
			return validationErrorf("timestamp %q is not a valid ISO-8601 instant", payload.Timestamp)
		}
		timestamp = parsed
	}
	var deletedAt *time.Time
	if payload.DeletedAt != nil && *payload.DeletedAt != "" {
		parsed, err := timeutil.Parse(*payload.DeletedAt)
		if err != nil {
			return validationErrorf("deleted_at %q is not a valid ISO-8601 instant", *payload.DeletedAt)
		}
		deletedAt = &parsed
	}

	entry := &domain.Entry{
		Tenant:        payload.Tenant,
		Kind:          payload.Kind,
		Timestamp:     timestamp,
		ClientEventID: payload.ClientEventID,
		Notes:         payload.Notes,
		VolumeML:      payload.VolumeML,
		ExpressedML:   payload.ExpressedML,
		FormulaML:     payload.FormulaML,
		DurationMin:   payload.DurationMin,
		CaregiverID:   payload.CaregiverID,
		CreatedAt:     now,
		UpdatedAt:     now,
		DeletedAt:     deletedAt,
	}
	_, err := s.store.UpsertEntryByClientEventID(ctx, entry)
	return err
}

// applyDelete tombstones the entry named by the change; an unknown or already
// deleted client_event_id is silently ignored.
func (s *EntrySyncService) applyDelete(ctx context.Context, clientEventID string) (bool, error) {
	if clientEventID == "" {
		return false, validationErrorf("delete change is missing its client_event_id")
	}
	existing, err := s.store.GetEntryByClientEventID(ctx, clientEventID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	now := timeutil.Now()
	deleted, err := s.store.SoftDeleteEntry(ctx, existing.ID, now, now)
	if err != nil {
		return false, err
	}
	return deleted, nil
}
