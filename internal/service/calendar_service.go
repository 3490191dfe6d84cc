package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/storage"
	"babylog-sync-server/pkg/timeutil"
)

type CalendarService struct {
	store storage.CalendarStore
}

func NewCalendarService(store storage.CalendarStore) *CalendarService {
	return &CalendarService{store: store}
}

func validateClockTime(field, value string) error {
	if _, err := time.Parse(timeutil.TimeLayout, value); err != nil {
		return validationErrorf("%s %q is not a valid HH:MM time", field, value)
	}
	return nil
}

// normalizeRecurrence enforces the recurrence invariants: "none" forces the
// until date to null, "weekly" with an until requires until on or after the
// event's first date.
func normalizeRecurrence(recurrence, date string, until *string) (*string, error) {
	if domain.Recurrence(recurrence) == domain.RecurrenceNone {
		return nil, nil
	}
	if until == nil || *until == "" {
		return nil, nil
	}
	if _, err := timeutil.ParseDate(*until); err != nil {
		return nil, validationErrorf("recurrence_until %q is not a valid date", *until)
	}
	if *until < date {
		return nil, validationErrorf("recurrence_until must not be before the event date")
	}
	return until, nil
}

func (s *CalendarService) Create(ctx context.Context, req *domain.CreateCalendarEventRequest) (*domain.CalendarEvent, error) {
	if err := validateEventText(req.Title, req.Location, req.Notes); err != nil {
		return nil, err
	}
	if _, err := timeutil.ParseDate(req.Date); err != nil {
		return nil, validationErrorf("date %q is not a valid date", req.Date)
	}
	if err := validateClockTime("start_time", req.StartTime); err != nil {
		return nil, err
	}
	if req.EndTime != nil && *req.EndTime != "" {
		if err := validateClockTime("end_time", *req.EndTime); err != nil {
			return nil, err
		}
	}
	if err := validateEventCategory(req.Category); err != nil {
		return nil, err
	}
	if err := validateRecurrence(req.Recurrence); err != nil {
		return nil, err
	}
	until, err := normalizeRecurrence(req.Recurrence, req.Date, req.RecurrenceUntil)
	if err != nil {
		return nil, err
	}

	now := timeutil.Now()
	return s.store.CreateEvent(ctx, &domain.CalendarEvent{
		Title:           req.Title,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Location:        req.Location,
		Notes:           req.Notes,
		Category:        domain.EventCategory(req.Category),
		Recurrence:      domain.Recurrence(req.Recurrence),
		RecurrenceUntil: until,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func (s *CalendarService) Get(ctx context.Context, id int64) (*domain.CalendarEvent, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Entity: "calendar event", ID: id}
		}
		return nil, err
	}
	return event, nil
}

func (s *CalendarService) Update(ctx context.Context, id int64, req *domain.UpdateCalendarEventRequest) (*domain.CalendarEvent, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	patch := domain.CalendarEventPatch{
		EndTime:  req.EndTime,
		Location: req.Location,
		Notes:    req.Notes,
	}
	title := existing.Title
	if req.Title.Set {
		title = req.Title.Value
		patch.Title = req.Title
	}
	location := existing.Location
	if req.Location.Set {
		location = req.Location.Value
	}
	notes := existing.Notes
	if req.Notes.Set {
		notes = req.Notes.Value
	}
	if err := validateEventText(title, location, notes); err != nil {
		return nil, err
	}

	date := existing.Date
	if req.Date.Set {
		if _, err := timeutil.ParseDate(req.Date.Value); err != nil {
			return nil, validationErrorf("date %q is not a valid date", req.Date.Value)
		}
		date = req.Date.Value
		patch.Date = req.Date
	}
	if req.StartTime.Set {
		if err := validateClockTime("start_time", req.StartTime.Value); err != nil {
			return nil, err
		}
		patch.StartTime = req.StartTime
	}
	if req.EndTime.Set && req.EndTime.Value != nil && *req.EndTime.Value != "" {
		if err := validateClockTime("end_time", *req.EndTime.Value); err != nil {
			return nil, err
		}
	}

	recurrence := string(existing.Recurrence)
	if req.Recurrence.Set {
		if err := validateRecurrence(req.Recurrence.Value); err != nil {
			return nil, err
		}
		recurrence = req.Recurrence.Value
		patch.Recurrence = domain.SetField(domain.Recurrence(recurrence))
	}
	if req.Category.Set {
		if err := validateEventCategory(req.Category.Value); err != nil {
			return nil, err
		}
		patch.Category = domain.SetField(domain.EventCategory(req.Category.Value))
	}

	// Recurrence fields interact, so the invariant is re-checked against the
	// post-patch values whenever either side moves.
	if req.Recurrence.Set || req.RecurrenceUntil.Set || req.Date.Set {
		untilInput := existing.RecurrenceUntil
		if req.RecurrenceUntil.Set {
			untilInput = req.RecurrenceUntil.Value
		}
		until, err := normalizeRecurrence(recurrence, date, untilInput)
		if err != nil {
			return nil, err
		}
		patch.RecurrenceUntil = domain.SetField(until)
	}
	patch.UpdatedAt = domain.SetField(timeutil.Now())

	updated, err := s.store.UpdateEvent(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Entity: "calendar event", ID: id}
		}
		return nil, err
	}
	return updated, nil
}

func (s *CalendarService) Delete(ctx context.Context, id int64) error {
	now := timeutil.Now()
	deleted, err := s.store.SoftDeleteEvent(ctx, id, now, now)
	if err != nil {
		return err
	}
	if !deleted {
		return &NotFoundError{Entity: "calendar event", ID: id}
	}
	return nil
}

// Occurrences expands stored events over [startDate, endDate] inclusive.
// Weekly events step from their own date in 7-day increments, clipped at
// min(endDate, recurrence_until); the first occurrence inside the range is
// found by skipping forward whole weeks, never by sliding the weekday.
func (s *CalendarService) Occurrences(ctx context.Context, startDate, endDate string) ([]*domain.Occurrence, error) {
	rangeStart, err := timeutil.ParseDate(startDate)
	if err != nil {
		return nil, validationErrorf("start %q is not a valid date", startDate)
	}
	rangeEnd, err := timeutil.ParseDate(endDate)
	if err != nil {
		return nil, validationErrorf("end %q is not a valid date", endDate)
	}
	if rangeEnd.Before(rangeStart) {
		return nil, validationErrorf("end must not be before start")
	}

	events, err := s.store.ListEvents(ctx, startDate, endDate, false)
	if err != nil {
		return nil, err
	}

	occurrences := []*domain.Occurrence{}
	for _, event := range events {
		first, err := timeutil.ParseDate(event.Date)
		if err != nil {
			continue
		}
		if event.Recurrence != domain.RecurrenceWeekly {
			if event.Date >= startDate && event.Date <= endDate {
				occurrences = append(occurrences, &domain.Occurrence{
					CalendarEvent:  *event,
					OccurrenceDate: event.Date,
				})
			}
			continue
		}

		last := rangeEnd
		if event.RecurrenceUntil != nil {
			until, err := timeutil.ParseDate(*event.RecurrenceUntil)
			if err == nil && until.Before(last) {
				last = until
			}
		}
		cur := first
		if cur.Before(rangeStart) {
			days := int(rangeStart.Sub(cur).Hours() / 24)
			cur = cur.AddDate(0, 0, (days+6)/7*7)
		}
		for !cur.After(last) {
			occurrences = append(occurrences, &domain.Occurrence{
				CalendarEvent:  *event,
				OccurrenceDate: cur.Format(timeutil.DateLayout),
			})
			cur = cur.AddDate(0, 0, 7)
		}
	}

	sort.Slice(occurrences, func(i, j int) bool {
		a, b := occurrences[i], occurrences[j]
		if a.OccurrenceDate != b.OccurrenceDate {
			return a.OccurrenceDate < b.OccurrenceDate
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ID < b.ID
	})
	return occurrences, nil
}
