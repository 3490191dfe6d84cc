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

type reminderDoc struct {
	DocID       string  `json:"_id,omitempty"`
	Rev         string  `json:"_rev,omitempty"`
	RecordType  string  `json:"record_type"`
	Namespace   string  `json:"namespace"`
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	IntervalMin int     `json:"interval_min"`
	Message     string  `json:"message"`
	Active      bool    `json:"active"`
	LastSentAt  *string `json:"last_sent_at"`
	NextDueAt   string  `json:"next_due_at"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func (s *Store) reminderToDoc(reminder *domain.Reminder) *reminderDoc {
	return &reminderDoc{
		DocID:       s.docID(recordTypeReminder, strconv.FormatInt(reminder.ID, 10)),
		RecordType:  recordTypeReminder,
		Namespace:   s.namespace,
		ID:          reminder.ID,
		Name:        reminder.Name,
		Kind:        reminder.Kind,
		IntervalMin: reminder.IntervalMin,
		Message:     reminder.Message,
		Active:      reminder.Active,
		LastSentAt:  timeutil.FormatPtr(reminder.LastSentAt),
		NextDueAt:   timeutil.Format(reminder.NextDueAt),
		CreatedAt:   timeutil.Format(reminder.CreatedAt),
		UpdatedAt:   timeutil.Format(reminder.UpdatedAt),
	}
}

func (d *reminderDoc) toDomain() (*domain.Reminder, error) {
	reminder := &domain.Reminder{
		ID:          d.ID,
		Name:        d.Name,
		Kind:        d.Kind,
		IntervalMin: d.IntervalMin,
		Message:     d.Message,
		Active:      d.Active,
	}
	var err error
	if reminder.NextDueAt, err = timeutil.ParseStored(d.NextDueAt); err != nil {
		return nil, err
	}
	if reminder.CreatedAt, err = timeutil.ParseStored(d.CreatedAt); err != nil {
		return nil, err
	}
	if reminder.UpdatedAt, err = timeutil.ParseStored(d.UpdatedAt); err != nil {
		return nil, err
	}
	if d.LastSentAt != nil {
		t, err := timeutil.ParseStored(*d.LastSentAt)
		if err != nil {
			return nil, err
		}
		reminder.LastSentAt = &t
	}
	return reminder, nil
}

func (s *Store) CreateReminder(ctx context.Context, reminder *domain.Reminder) (*domain.Reminder, error) {
	if reminder.ID == 0 {
		id, err := s.counters.NextID(ctx, CounterReminder)
		if err != nil {
			return nil, err
		}
		reminder.ID = id
	}
	doc := s.reminderToDoc(reminder)
	if _, err := s.db.Put(ctx, doc.DocID, doc); err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	return doc.toDomain()
}

func (s *Store) getReminderDoc(ctx context.Context, id int64) (*reminderDoc, error) {
	var doc reminderDoc
	row := s.db.Get(ctx, s.docID(recordTypeReminder, strconv.FormatInt(id, 10)))
	if err := row.ScanDoc(&doc); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return &doc, nil
}

func (s *Store) GetReminder(ctx context.Context, id int64) (*domain.Reminder, error) {
	doc, err := s.getReminderDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.toDomain()
}

func (s *Store) listReminderDocs(ctx context.Context) ([]*reminderDoc, error) {
	raw, err := findDocs[reminderDoc](ctx, s.find, s.selector(recordTypeReminder))
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	docs := make([]*reminderDoc, len(raw))
	for i := range raw {
		docs[i] = &raw[i]
	}
	return docs, nil
}

func (s *Store) ListReminders(ctx context.Context) ([]*domain.Reminder, error) {
	docs, err := s.listReminderDocs(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	reminders := make([]*domain.Reminder, 0, len(docs))
	for _, doc := range docs {
		reminder, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, nil
}

func (s *Store) ListDueReminders(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	docs, err := s.listReminderDocs(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := timeutil.Format(now)
	due := []*reminderDoc{}
	for _, doc := range docs {
		if doc.Active && doc.NextDueAt <= cutoff {
			due = append(due, doc)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextDueAt < due[j].NextDueAt })
	reminders := make([]*domain.Reminder, 0, len(due))
	for _, doc := range due {
		reminder, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, nil
}

func (s *Store) UpdateReminder(ctx context.Context, id int64, patch domain.ReminderPatch) (*domain.Reminder, error) {
	doc, err := s.getReminderDoc(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name.Set {
		doc.Name = patch.Name.Value
	}
	if patch.Kind.Set {
		doc.Kind = patch.Kind.Value
	}
	if patch.IntervalMin.Set {
		doc.IntervalMin = patch.IntervalMin.Value
	}
	if patch.Message.Set {
		doc.Message = patch.Message.Value
	}
	if patch.Active.Set {
		doc.Active = patch.Active.Value
	}
	if patch.LastSentAt.Set {
		doc.LastSentAt = timeutil.FormatPtr(patch.LastSentAt.Value)
	}
	if patch.NextDueAt.Set {
		doc.NextDueAt = timeutil.Format(patch.NextDueAt.Value)
	}
	if patch.UpdatedAt.Set {
		doc.UpdatedAt = timeutil.Format(patch.UpdatedAt.Value)
	}
	if _, err := s.db.Put(ctx, doc.DocID, doc); err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}
	return doc.toDomain()
}

func (s *Store) MarkReminderSent(ctx context.Context, id int64, sentAt, nextDueAt time.Time) error {
	doc, err := s.getReminderDoc(ctx, id)
	if err != nil {
		return err
	}
	sent := timeutil.Format(sentAt)
	doc.LastSentAt = &sent
	doc.NextDueAt = timeutil.Format(nextDueAt)
	doc.UpdatedAt = sent
	if _, err := s.db.Put(ctx, doc.DocID, doc); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}
