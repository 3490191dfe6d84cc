package couch

import (
	"context"
	"fmt"
	"net/http"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/pkg/timeutil"

	"github.com/go-kivik/kivik/v4"
)

// The settings singleton lives at a fixed key.
const settingsKey = "main"

type settingsDoc struct {
	DocID                string   `json:"_id,omitempty"`
	Rev                  string   `json:"_rev,omitempty"`
	RecordType           string   `json:"record_type"`
	Namespace            string   `json:"namespace"`
	DOB                  *string  `json:"dob"`
	FeedIntervalMin      *int     `json:"feed_interval_min"`
	CustomEventKinds     []string `json:"custom_event_kinds"`
	FeedGoalMin          *int     `json:"feed_goal_min"`
	FeedGoalMax          *int     `json:"feed_goal_max"`
	OvernightGapMinHours *float64 `json:"overnight_gap_min_hours"`
	OvernightGapMaxHours *float64 `json:"overnight_gap_max_hours"`
	BehindTargetMode     *string  `json:"behind_target_mode"`
	EntryWebhookURL      *string  `json:"entry_webhook_url"`
	DefaultTenant        *string  `json:"default_tenant"`
	FeedDuePushURL       *string  `json:"feed_due_push_url"`
	ScheduleAnchorTime   *string  `json:"schedule_anchor_time"`
	UpdatedAt            string   `json:"updated_at"`
}

func (d *settingsDoc) toDomain() (*domain.Settings, error) {
	updated, err := timeutil.ParseStored(d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	kinds := d.CustomEventKinds
	if kinds == nil {
		kinds = []string{}
	}
	return &domain.Settings{
		DOB:                  d.DOB,
		FeedIntervalMin:      d.FeedIntervalMin,
		CustomEventKinds:     kinds,
		FeedGoalMin:          d.FeedGoalMin,
		FeedGoalMax:          d.FeedGoalMax,
		OvernightGapMinHours: d.OvernightGapMinHours,
		OvernightGapMaxHours: d.OvernightGapMaxHours,
		BehindTargetMode:     d.BehindTargetMode,
		EntryWebhookURL:      d.EntryWebhookURL,
		DefaultTenant:        d.DefaultTenant,
		FeedDuePushURL:       d.FeedDuePushURL,
		ScheduleAnchorTime:   d.ScheduleAnchorTime,
		UpdatedAt:            updated,
	}, nil
}

// getSettingsDoc auto-creates the singleton with all-null values on first
// touch, mirroring the relational backend's seeded row.
func (s *Store) getSettingsDoc(ctx context.Context) (*settingsDoc, error) {
	id := s.docID(recordTypeSettings, settingsKey)
	var doc settingsDoc
	row := s.db.Get(ctx, id)
	err := row.ScanDoc(&doc)
	if err == nil {
		return &doc, nil
	}
	if kivik.HTTPStatus(err) != http.StatusNotFound {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	doc = settingsDoc{
		DocID:            id,
		RecordType:       recordTypeSettings,
		Namespace:        s.namespace,
		CustomEventKinds: []string{},
		UpdatedAt:        timeutil.Format(timeutil.Now()),
	}
	if _, err := s.db.Put(ctx, id, &doc); err != nil {
		return nil, fmt.Errorf("failed to create settings: %w", err)
	}
	// Re-read for the revision so a follow-up update does not conflict.
	row = s.db.Get(ctx, id)
	if err := row.ScanDoc(&doc); err != nil {
		return nil, fmt.Errorf("failed to reload settings: %w", err)
	}
	return &doc, nil
}

func (s *Store) GetSettings(ctx context.Context) (*domain.Settings, error) {
	doc, err := s.getSettingsDoc(ctx)
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (s *Store) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (*domain.Settings, error) {
	doc, err := s.getSettingsDoc(ctx)
	if err != nil {
		return nil, err
	}
	if patch.DOB.Set {
		doc.DOB = patch.DOB.Value
	}
	if patch.FeedIntervalMin.Set {
		doc.FeedIntervalMin = patch.FeedIntervalMin.Value
	}
	if patch.CustomEventKinds.Set {
		doc.CustomEventKinds = patch.CustomEventKinds.Value
	}
	if patch.FeedGoalMin.Set {
		doc.FeedGoalMin = patch.FeedGoalMin.Value
	}
	if patch.FeedGoalMax.Set {
		doc.FeedGoalMax = patch.FeedGoalMax.Value
	}
	if patch.OvernightGapMinHours.Set {
		doc.OvernightGapMinHours = patch.OvernightGapMinHours.Value
	}
	if patch.OvernightGapMaxHours.Set {
		doc.OvernightGapMaxHours = patch.OvernightGapMaxHours.Value
	}
	if patch.BehindTargetMode.Set {
		doc.BehindTargetMode = patch.BehindTargetMode.Value
	}
	if patch.EntryWebhookURL.Set {
		doc.EntryWebhookURL = patch.EntryWebhookURL.Value
	}
	if patch.DefaultTenant.Set {
		doc.DefaultTenant = patch.DefaultTenant.Value
	}
	if patch.FeedDuePushURL.Set {
		doc.FeedDuePushURL = patch.FeedDuePushURL.Value
	}
	if patch.ScheduleAnchorTime.Set {
		doc.ScheduleAnchorTime = patch.ScheduleAnchorTime.Value
	}
	if patch.UpdatedAt.Set {
		doc.UpdatedAt = timeutil.Format(patch.UpdatedAt.Value)
	}
	if _, err := s.db.Put(ctx, doc.DocID, doc); err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return doc.toDomain()
}
