package service

import (
	"context"
	"errors"
	"testing"

	"babylog-sync-server/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestSettings_GetAlwaysExists(t *testing.T) {
	service := NewSettingsService(&memSettingsStore{})

	settings, err := service.Get(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if settings == nil {
		t.Fatal("expected the singleton, got nil")
	}
	if settings.CustomEventKinds == nil {
		t.Error("expected custom_event_kinds to be an empty list, not null")
	}
}

func TestSettings_PartialUpdate(t *testing.T) {
	service := NewSettingsService(&memSettingsStore{})

	dob := "2026-01-15"
	updated, err := service.Update(context.Background(), &domain.UpdateSettingsRequest{
		DOB:             domain.SetField(&dob),
		FeedIntervalMin: domain.SetField(intPtr(180)),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.DOB == nil || *updated.DOB != dob {
		t.Error("expected dob set")
	}

	// An unrelated patch leaves the earlier fields alone; explicit null clears.
	tenant := "smith"
	updated, err = service.Update(context.Background(), &domain.UpdateSettingsRequest{
		DefaultTenant: domain.SetField(&tenant),
		DOB:           domain.SetField[*string](nil),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.DOB != nil {
		t.Error("expected explicit null to clear dob")
	}
	if updated.FeedIntervalMin == nil || *updated.FeedIntervalMin != 180 {
		t.Error("expected feed_interval_min preserved")
	}
}

func TestSettings_Validation(t *testing.T) {
	service := NewSettingsService(&memSettingsStore{})

	var verr *ValidationError
	badDob := "sometime"
	if _, err := service.Update(context.Background(), &domain.UpdateSettingsRequest{
		DOB: domain.SetField(&badDob),
	}); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for bad dob, got %v", err)
	}

	if _, err := service.Update(context.Background(), &domain.UpdateSettingsRequest{
		FeedIntervalMin: domain.SetField(intPtr(0)),
	}); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for zero interval, got %v", err)
	}

	if _, err := service.Update(context.Background(), &domain.UpdateSettingsRequest{
		CustomEventKinds: domain.SetField([]string{"room/body temp", "bad!kind"}),
	}); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for bad custom kind, got %v", err)
	}

	if _, err := service.Update(context.Background(), &domain.UpdateSettingsRequest{
		FeedGoalMin: domain.SetField(intPtr(600)),
		FeedGoalMax: domain.SetField(intPtr(500)),
	}); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for inverted goal bounds, got %v", err)
	}
}
