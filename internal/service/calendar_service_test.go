package service

import (
	"context"
	"errors"
	"testing"

	"babylog-sync-server/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestCalendar_CreateValidation(t *testing.T) {
	service := NewCalendarService(&memCalendarStore{})

	base := func() *domain.CreateCalendarEventRequest {
		return &domain.CreateCalendarEventRequest{
			Title:      "Baby group",
			Date:       "2026-02-02",
			StartTime:  "10:30",
			Category:   "group",
			Recurrence: "none",
		}
	}

	if _, err := service.Create(context.Background(), base()); err != nil {
		t.Fatalf("expected valid event to pass, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*domain.CreateCalendarEventRequest)
	}{
		{"empty title", func(r *domain.CreateCalendarEventRequest) { r.Title = "" }},
		{"bad date", func(r *domain.CreateCalendarEventRequest) { r.Date = "02/02/2026" }},
		{"bad time", func(r *domain.CreateCalendarEventRequest) { r.StartTime = "half ten" }},
		{"bad category", func(r *domain.CreateCalendarEventRequest) { r.Category = "party" }},
		{"bad recurrence", func(r *domain.CreateCalendarEventRequest) { r.Recurrence = "daily" }},
		{"until before date", func(r *domain.CreateCalendarEventRequest) {
			r.Recurrence = "weekly"
			r.RecurrenceUntil = strPtr("2026-01-01")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := base()
			tc.mutate(req)
			_, err := service.Create(context.Background(), req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCalendar_NoneRecurrenceForcesUntilNull(t *testing.T) {
	service := NewCalendarService(&memCalendarStore{})

	event, err := service.Create(context.Background(), &domain.CreateCalendarEventRequest{
		Title:           "Checkup",
		Date:            "2026-02-02",
		StartTime:       "09:00",
		Category:        "other",
		Recurrence:      "none",
		RecurrenceUntil: strPtr("2026-03-01"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if event.RecurrenceUntil != nil {
		t.Errorf("expected recurrence_until forced null, got %v", *event.RecurrenceUntil)
	}
}

func TestCalendar_WeeklyExpansion(t *testing.T) {
	store := &memCalendarStore{}
	service := NewCalendarService(store)

	if _, err := service.Create(context.Background(), &domain.CreateCalendarEventRequest{
		Title:           "Baby group",
		Date:            "2026-02-02",
		StartTime:       "10:30",
		Category:        "group",
		Recurrence:      "weekly",
		RecurrenceUntil: strPtr("2026-02-16"),
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	occurrences, err := service.Occurrences(context.Background(), "2026-02-01", "2026-02-20")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []string{"2026-02-02", "2026-02-09", "2026-02-16"}
	if len(occurrences) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(occurrences))
	}
	for i, date := range want {
		if occurrences[i].OccurrenceDate != date {
			t.Errorf("occurrence %d: expected %s, got %s", i, date, occurrences[i].OccurrenceDate)
		}
	}
}

func TestCalendar_WeeklySkipsForwardWholeWeeks(t *testing.T) {
	store := &memCalendarStore{}
	service := NewCalendarService(store)

	// First date well before the range: occurrences stay on the Monday grid.
	if _, err := service.Create(context.Background(), &domain.CreateCalendarEventRequest{
		Title:      "Swim",
		Date:       "2026-01-05",
		StartTime:  "11:00",
		Category:   "meetup",
		Recurrence: "weekly",
	}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	occurrences, err := service.Occurrences(context.Background(), "2026-02-04", "2026-02-17")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := []string{"2026-02-09", "2026-02-16"}
	if len(occurrences) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(occurrences))
	}
	for i, date := range want {
		if occurrences[i].OccurrenceDate != date {
			t.Errorf("occurrence %d: expected %s, got %s", i, date, occurrences[i].OccurrenceDate)
		}
	}
}

func TestCalendar_OccurrenceOrdering(t *testing.T) {
	store := &memCalendarStore{}
	service := NewCalendarService(store)

	create := func(title, date, start string) {
		t.Helper()
		if _, err := service.Create(context.Background(), &domain.CreateCalendarEventRequest{
			Title:      title,
			Date:       date,
			StartTime:  start,
			Category:   "other",
			Recurrence: "none",
		}); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}
	create("Later same day", "2026-02-03", "14:00")
	create("Earlier same day", "2026-02-03", "09:00")
	create("Day before", "2026-02-02", "16:00")

	occurrences, err := service.Occurrences(context.Background(), "2026-02-01", "2026-02-28")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	titles := []string{}
	for _, o := range occurrences {
		titles = append(titles, o.Title)
	}
	want := []string{"Day before", "Earlier same day", "Later same day"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, titles)
		}
	}
}

func TestCalendar_DeletedEventsDropOut(t *testing.T) {
	store := &memCalendarStore{}
	service := NewCalendarService(store)

	event, err := service.Create(context.Background(), &domain.CreateCalendarEventRequest{
		Title:      "Gone",
		Date:       "2026-02-03",
		StartTime:  "10:00",
		Category:   "other",
		Recurrence: "none",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := service.Delete(context.Background(), event.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	occurrences, err := service.Occurrences(context.Background(), "2026-02-01", "2026-02-28")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(occurrences) != 0 {
		t.Errorf("expected deleted event to drop out, got %d occurrences", len(occurrences))
	}

	var nf *NotFoundError
	if err := service.Delete(context.Background(), event.ID); !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError on repeat delete, got %v", err)
	}
}

func TestCalendar_UpdateRecurrenceInvariant(t *testing.T) {
	store := &memCalendarStore{}
	service := NewCalendarService(store)

	event, err := service.Create(context.Background(), &domain.CreateCalendarEventRequest{
		Title:           "Baby group",
		Date:            "2026-02-02",
		StartTime:       "10:30",
		Category:        "group",
		Recurrence:      "weekly",
		RecurrenceUntil: strPtr("2026-03-02"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	// Switching to none clears the until date.
	updated, err := service.Update(context.Background(), event.ID, &domain.UpdateCalendarEventRequest{
		Recurrence: domain.SetField("none"),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.RecurrenceUntil != nil {
		t.Errorf("expected until cleared, got %v", *updated.RecurrenceUntil)
	}

	_, err = service.Update(context.Background(), event.ID, &domain.UpdateCalendarEventRequest{
		Recurrence:      domain.SetField("weekly"),
		RecurrenceUntil: domain.SetField(strPtr("2026-01-01")),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected until-before-date to fail, got %v", err)
	}
}
