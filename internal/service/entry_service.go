package service

import (
	"context"
	"errors"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/storage"
	"babylog-sync-server/pkg/timeutil"

	"github.com/google/uuid"
)

// ChangeNotifier is pinged after any entry mutation so connected devices know
// to pull sooner. The realtime hub implements it; a nil notifier disables it.
type ChangeNotifier interface {
	EntriesChanged(tenant string)
}

type EntryService struct {
	store    storage.EntryStore
	settings storage.SettingsStore
	notifier ChangeNotifier
}

func NewEntryService(store storage.EntryStore, settings storage.SettingsStore, notifier ChangeNotifier) *EntryService {
	return &EntryService{
		store:    store,
		settings: settings,
		notifier: notifier,
	}
}

// ListEntriesParams carries the raw (string-typed) filters from the transport
// layer; the service parses and bounds them.
type ListEntriesParams struct {
	Tenant         string
	Kind           string
	Since          string
	Until          string
	IncludeDeleted bool
	Limit          int
}

const maxListLimit = 200

func (s *EntryService) notify(tenant string) {
	if s.notifier != nil {
		s.notifier.EntriesChanged(tenant)
	}
}

func (s *EntryService) defaultTenant(ctx context.Context) string {
	if s.settings == nil {
		return ""
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil || settings.DefaultTenant == nil {
		return ""
	}
	return *settings.DefaultTenant
}

// Create is idempotent on client_event_id. A duplicate returns
// DuplicateEntryError carrying the pre-existing record so retrying clients get
// the same entry back instead of a second row.
func (s *EntryService) Create(ctx context.Context, req *domain.CreateEntryRequest) (*domain.Entry, error) {
	if err := validateKind(req.Kind); err != nil {
		return nil, err
	}
	if err := validateEntryAmounts(req.VolumeML, req.ExpressedML, req.FormulaML, req.DurationMin); err != nil {
		return nil, err
	}

	now := timeutil.Now()
	timestamp := now
	if req.Timestamp != "" {
		parsed, err := timeutil.Parse(req.Timestamp)
		if err != nil {
			return nil, validationErrorf("timestamp %q is not a valid ISO-8601 instant", req.Timestamp)
		}
		timestamp = parsed
	}

	clientEventID := req.ClientEventID
	if clientEventID == "" {
		clientEventID = uuid.New().String()
	}
	tenant := req.Tenant
	if tenant == "" {
		tenant = s.defaultTenant(ctx)
	}

	entry := &domain.Entry{
		Tenant:        tenant,
		Kind:          req.Kind,
		Timestamp:     timestamp,
		ClientEventID: clientEventID,
		Notes:         req.Notes,
		VolumeML:      req.VolumeML,
		ExpressedML:   req.ExpressedML,
		FormulaML:     req.FormulaML,
		DurationMin:   req.DurationMin,
		CaregiverID:   req.CaregiverID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, duplicate, err := s.store.CreateEntry(ctx, entry)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, &DuplicateEntryError{Entry: created}
	}
	s.notify(created.Tenant)
	return created, nil
}

func (s *EntryService) Get(ctx context.Context, id int64) (*domain.Entry, error) {
	entry, err := s.store.GetEntry(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Entity: "entry", ID: id}
		}
		return nil, err
	}
	return entry, nil
}

func (s *EntryService) List(ctx context.Context, params ListEntriesParams) ([]*domain.Entry, error) {
	filter := domain.EntryFilter{
		Tenant:         params.Tenant,
		Kind:           params.Kind,
		IncludeDeleted: params.IncludeDeleted,
	}
	if params.Since != "" {
		since, err := timeutil.Parse(params.Since)
		if err != nil {
			return nil, validationErrorf("since %q is not a valid ISO-8601 instant", params.Since)
		}
		filter.Since = &since
	}
	if params.Until != "" {
		until, err := timeutil.Parse(params.Until)
		if err != nil {
			return nil, validationErrorf("until %q is not a valid ISO-8601 instant", params.Until)
		}
		filter.Until = &until
	}
	if filter.Since != nil && filter.Until != nil && filter.Until.Before(*filter.Since) {
		return nil, validationErrorf("until must not be before since")
	}

	filter.Limit = params.Limit
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return s.store.ListEntries(ctx, filter)
}

// Export returns every live entry oldest-first with no row cap.
func (s *EntryService) Export(ctx context.Context, tenant string) ([]*domain.Entry, error) {
	return s.store.ListEntriesForExport(ctx, tenant)
}

func (s *EntryService) Update(ctx context.Context, id int64, req *domain.UpdateEntryRequest) (*domain.Entry, error) {
	patch := domain.EntryPatch{
		Notes:       req.Notes,
		VolumeML:    req.VolumeML,
		ExpressedML: req.ExpressedML,
		FormulaML:   req.FormulaML,
		DurationMin: req.DurationMin,
		CaregiverID: req.CaregiverID,
	}
	if req.Kind.Set {
		if err := validateKind(req.Kind.Value); err != nil {
			return nil, err
		}
		patch.Kind = req.Kind
	}
	if req.Timestamp.Set {
		timestamp, err := timeutil.Parse(req.Timestamp.Value)
		if err != nil {
			return nil, validationErrorf("timestamp %q is not a valid ISO-8601 instant", req.Timestamp.Value)
		}
		patch.Timestamp = domain.SetField(timestamp)
	}
	if req.VolumeML.Set || req.ExpressedML.Set || req.FormulaML.Set || req.DurationMin.Set {
		if err := validateEntryAmounts(req.VolumeML.Value, req.ExpressedML.Value, req.FormulaML.Value, req.DurationMin.Value); err != nil {
			return nil, err
		}
	}
	patch.UpdatedAt = domain.SetField(timeutil.Now())

	updated, err := s.store.UpdateEntry(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Entity: "entry", ID: id}
		}
		return nil, err
	}
	s.notify(updated.Tenant)
	return updated, nil
}

func (s *EntryService) Delete(ctx context.Context, id int64) error {
	now := timeutil.Now()
	deleted, err := s.store.SoftDeleteEntry(ctx, id, now, now)
	if err != nil {
		return err
	}
	if !deleted {
		return &NotFoundError{Entity: "entry", ID: id}
	}
	s.notify("")
	return nil
}
