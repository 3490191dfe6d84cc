package couch

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/storage"
	"babylog-sync-server/pkg/timeutil"

	"github.com/go-kivik/kivik/v4"
)

type calendarEventDoc struct {
	DocID           string  `json:"_id,omitempty"`
	Rev             string  `json:"_rev,omitempty"`
	RecordType      string  `json:"record_type"`
	Namespace       string  `json:"namespace"`
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Date            string  `json:"event_date"`
	StartTime       string  `json:"start_time"`
	EndTime         *string `json:"end_time"`
	Location        *string `json:"location"`
	Notes           *string `json:"notes"`
	Category        string  `json:"category"`
	Recurrence      string  `json:"recurrence"`
	RecurrenceUntil *string `json:"recurrence_until"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
	DeletedAt       *string `json:"deleted_at"`
}

func (s *Store) eventToDoc(event *domain.CalendarEvent) *calendarEventDoc {
	return &calendarEventDoc{
		DocID:           s.docID(recordTypeEvent, strconv.FormatInt(event.ID, 10)),
		RecordType:      recordTypeEvent,
		Namespace:       s.namespace,
		ID:              event.ID,
		Title:           event.Title,
		Date:            event.Date,
		StartTime:       event.StartTime,
		EndTime:         event.EndTime,
		Location:        event.Location,
		Notes:           event.Notes,
		Category:        string(event.Category),
		Recurrence:      string(event.Recurrence),
		RecurrenceUntil: event.RecurrenceUntil,
		CreatedAt:       timeutil.Format(event.CreatedAt),
		UpdatedAt:       timeutil.Format(event.UpdatedAt),
		DeletedAt:       timeutil.FormatPtr(event.DeletedAt),
	}
}

func (d *calendarEventDoc) toDomain() (*domain.CalendarEvent, error) {
	event := &domain.CalendarEvent{
		ID:              d.ID,
		Title:           d.Title,
		Date:            d.Date,
		StartTime:       d.StartTime,
		EndTime:         d.EndTime,
		Location:        d.Location,
		Notes:           d.Notes,
		Category:        domain.EventCategory(d.Category),
		Recurrence:      domain.Recurrence(d.Recurrence),
		RecurrenceUntil: d.RecurrenceUntil,
	}
	var err error
	if event.CreatedAt, err = timeutil.ParseStored(d.CreatedAt); err != nil {
		return nil, err
	}
	if event.UpdatedAt, err = timeutil.ParseStored(d.UpdatedAt); err != nil {
		return nil, err
	}
	if d.DeletedAt != nil {
		t, err := timeutil.ParseStored(*d.DeletedAt)
		if err != nil {
			return nil, err
		}
		event.DeletedAt = &t
	}
	return event, nil
}

func (s *Store) CreateEvent(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	if event.ID == 0 {
		id, err := s.counters.NextID(ctx, CounterEvent)
		if err != nil {
			return nil, err
		}
		event.ID = id
	}
	doc := s.eventToDoc(event)
	if _, err := s.db.Put(ctx, doc.DocID, doc); err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}
	return doc.toDomain()
}

func (s *Store) getEventDoc(ctx context.Context, id int64) (*calendarEventDoc, error) {
	var doc calendarEventDoc
	row := s.db.Get(ctx, s.docID(recordTypeEvent, strconv.FormatInt(id, 10)))
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get calendar event: %w", err)
	}
	return &doc, nil
}

func (s *Store) GetEvent(ctx context.Context, id int64) (*domain.CalendarEvent, error) {
	doc, err := s.getEventDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

// ListEvents keeps every event whose first date falls on or before endDate and
// whose recurrence has not ended before startDate. One-off events past their
// date are still returned when they land inside the range; the occurrence
// expansion upstream decides what actually shows.
func (s *Store) ListEvents(ctx context.Context, startDate, endDate string, includeDeleted bool) ([]*domain.CalendarEvent, error) {
	raw, err := findDocs[calendarEventDoc](ctx, s.find, s.selector(recordTypeEvent))
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}
	docs := []*calendarEventDoc{}
	for i := range raw {
		doc := &raw[i]
		if !includeDeleted && doc.DeletedAt != nil {
			continue
		}
		if doc.Date > endDate {
			continue
		}
		if doc.RecurrenceUntil != nil && *doc.RecurrenceUntil < startDate {
			continue
		}
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Date != docs[j].Date {
			return docs[i].Date < docs[j].Date
		}
		if docs[i].StartTime != docs[j].StartTime {
			return docs[i].StartTime < docs[j].StartTime
		}
		return docs[i].ID < docs[j].ID
	})
	events := make([]*domain.CalendarEvent, 0, len(docs))
	for _, doc := range docs {
		event, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *Store) UpdateEvent(ctx context.Context, id int64, patch domain.CalendarEventPatch) (*domain.CalendarEvent, error) {
	doc, err := s.getEventDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title.Set {
		doc.Title = patch.Title.Value
	}
	if patch.Date.Set {
		doc.Date = patch.Date.Value
	}
	if patch.StartTime.Set {
		doc.StartTime = patch.StartTime.Value
	}
	if patch.EndTime.Set {
		doc.EndTime = patch.EndTime.Value
	}
	if patch.Location.Set {
		doc.Location = patch.Location.Value
	}
	if patch.Notes.Set {
		doc.Notes = patch.Notes.Value
	}
	if patch.Category.Set {
		doc.Category = string(patch.Category.Value)
	}
	if patch.Recurrence.Set {
		doc.Recurrence = string(patch.Recurrence.Value)
	}
	if patch.RecurrenceUntil.Set {
		doc.RecurrenceUntil = patch.RecurrenceUntil.Value
	}
	if patch.UpdatedAt.Set {
		doc.UpdatedAt = timeutil.Format(patch.UpdatedAt.Value)
	}
	if _, err := s.db.Put(ctx, doc.DocID, doc); err != nil {
		return nil, fmt.Errorf("failed to update calendar event: %w", err)
	}
	return doc.toDomain()
}

func (s *Store) SoftDeleteEvent(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error) {
	doc, err := s.getEventDoc(ctx, id)
	if err != nil {
		if err == storage.ErrNotFound {
			return false, nil
		}
		return false, err
	}
	if doc.DeletedAt != nil {
		return false, nil
	}
	deleted := timeutil.Format(deletedAt)
	doc.DeletedAt = &deleted
	doc.UpdatedAt = timeutil.Format(updatedAt)
	if _, err := s.db.Put(ctx, doc.DocID, doc); err != nil {
		return false, fmt.Errorf("failed to soft-delete calendar event: %w", err)
	}
	return true, nil
}
