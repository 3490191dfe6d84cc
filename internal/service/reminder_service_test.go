package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"babylog-sync-server/internal/domain"

	"github.com/rs/zerolog"
)

type recordingNotifier struct {
	notified []string
	failFor  string
}

func (n *recordingNotifier) Notify(ctx context.Context, reminder *domain.Reminder) error {
	if reminder.Name == n.failFor {
		return errors.New("push endpoint unreachable")
	}
	n.notified = append(n.notified, reminder.Name)
	return nil
}

func seedReminder(t *testing.T, store *memReminderStore, name string, nextDue time.Time, active bool) *domain.Reminder {
	t.Helper()
	reminder, err := store.CreateReminder(context.Background(), &domain.Reminder{
		Name:        name,
		Kind:        "nappy",
		IntervalMin: 180,
		Message:     "time for " + name,
		Active:      active,
		NextDueAt:   nextDue,
		CreatedAt:   nextDue.Add(-time.Hour),
		UpdatedAt:   nextDue.Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("seed %s: %v", name, err)
	}
	return reminder
}

func TestReminder_CreateValidation(t *testing.T) {
	service := NewReminderService(&memReminderStore{}, nil, zerolog.Nop())

	_, err := service.Create(context.Background(), &domain.CreateReminderRequest{
		Name: "Feed", Kind: "food", IntervalMin: 0, Message: "feed time",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for zero interval, got %v", err)
	}

	reminder, err := service.Create(context.Background(), &domain.CreateReminderRequest{
		Name: "Feed", Kind: "food", IntervalMin: 180, Message: "feed time",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !reminder.Active {
		t.Error("expected reminders to default active")
	}
	if !reminder.NextDueAt.After(reminder.CreatedAt) {
		t.Error("expected next_due_at one interval out")
	}
}

func TestReminder_DispatchDueOrderAndAdvance(t *testing.T) {
	store := &memReminderStore{}
	notifier := &recordingNotifier{}
	service := NewReminderService(store, notifier, zerolog.Nop())

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	later := seedReminder(t, store, "Feed", now.Add(-10*time.Minute), true)
	seedReminder(t, store, "Nappy check", now.Add(-30*time.Minute), true)
	seedReminder(t, store, "Inactive", now.Add(-time.Hour), false)
	seedReminder(t, store, "Future", now.Add(time.Hour), true)

	dispatched, err := service.DispatchDue(context.Background(), now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if dispatched != 2 {
		t.Fatalf("expected 2 dispatched, got %d", dispatched)
	}
	if len(notifier.notified) != 2 || notifier.notified[0] != "Nappy check" || notifier.notified[1] != "Feed" {
		t.Errorf("expected earliest-due-first order, got %v", notifier.notified)
	}

	advanced, _ := store.GetReminder(context.Background(), later.ID)
	if advanced.LastSentAt == nil || !advanced.LastSentAt.Equal(now) {
		t.Error("expected last_sent_at set to dispatch time")
	}
	wantNext := now.Add(180 * time.Minute)
	if !advanced.NextDueAt.Equal(wantNext) {
		t.Errorf("expected next_due_at %v, got %v", wantNext, advanced.NextDueAt)
	}

	// Nothing left due at the same instant.
	dispatched, err = service.DispatchDue(context.Background(), now)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if dispatched != 0 {
		t.Errorf("expected nothing due, got %d", dispatched)
	}
}

func TestReminder_FailedNotifyStaysDue(t *testing.T) {
	store := &memReminderStore{}
	notifier := &recordingNotifier{failFor: "Feed"}
	service := NewReminderService(store, notifier, zerolog.Nop())

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	failing := seedReminder(t, store, "Feed", now.Add(-10*time.Minute), true)

	dispatched, err := service.DispatchDue(context.Background(), now)
	if err != nil {
		t.Fatalf("dispatch must not surface notifier errors, got %v", err)
	}
	if dispatched != 0 {
		t.Errorf("expected 0 dispatched, got %d", dispatched)
	}

	kept, _ := store.GetReminder(context.Background(), failing.ID)
	if kept.LastSentAt != nil {
		t.Error("failed notification must not mark the reminder sent")
	}
	if !kept.NextDueAt.Before(now) {
		t.Error("failed notification must leave the reminder due")
	}
}
