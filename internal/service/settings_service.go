package service

import (
	"context"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/storage"
	"babylog-sync-server/pkg/timeutil"
)

type SettingsService struct {
	store storage.SettingsStore
}

func NewSettingsService(store storage.SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

func (s *SettingsService) Get(ctx context.Context) (*domain.Settings, error) {
	return s.store.GetSettings(ctx)
}

func (s *SettingsService) Update(ctx context.Context, req *domain.UpdateSettingsRequest) (*domain.Settings, error) {
	if req.DOB.Set && req.DOB.Value != nil && *req.DOB.Value != "" {
		if _, err := timeutil.ParseDate(*req.DOB.Value); err != nil {
			return nil, validationErrorf("dob %q is not a valid date", *req.DOB.Value)
		}
	}
	if req.FeedIntervalMin.Set && req.FeedIntervalMin.Value != nil && *req.FeedIntervalMin.Value <= 0 {
		return nil, validationErrorf("feed_interval_min must be greater than zero")
	}
	if req.CustomEventKinds.Set {
		for _, kind := range req.CustomEventKinds.Value {
			if err := validateKind(kind); err != nil {
				return nil, err
			}
		}
	}
	if req.FeedGoalMin.Set && req.FeedGoalMax.Set &&
		req.FeedGoalMin.Value != nil && req.FeedGoalMax.Value != nil &&
		*req.FeedGoalMax.Value < *req.FeedGoalMin.Value {
		return nil, validationErrorf("feed_goal_max must not be less than feed_goal_min")
	}

	patch := domain.SettingsPatch{
		DOB:                  req.DOB,
		FeedIntervalMin:      req.FeedIntervalMin,
		CustomEventKinds:     req.CustomEventKinds,
		FeedGoalMin:          req.FeedGoalMin,
		FeedGoalMax:          req.FeedGoalMax,
		OvernightGapMinHours: req.OvernightGapMinHours,
		OvernightGapMaxHours: req.OvernightGapMaxHours,
		BehindTargetMode:     req.BehindTargetMode,
		EntryWebhookURL:      req.EntryWebhookURL,
		DefaultTenant:        req.DefaultTenant,
		FeedDuePushURL:       req.FeedDuePushURL,
		ScheduleAnchorTime:   req.ScheduleAnchorTime,
		UpdatedAt:            domain.SetField(timeutil.Now()),
	}
	return s.store.UpdateSettings(ctx, patch)
}
