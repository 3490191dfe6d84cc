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

// ReminderNotifier delivers one due reminder. Implementations live at the
// edges (webhook, log); the service only sequences them.
type ReminderNotifier interface {
	Notify(ctx context.Context, reminder *domain.Reminder) error
}

type ReminderService struct {
	store    storage.ReminderStore
	notifier ReminderNotifier
	log      zerolog.Logger
}

func NewReminderService(store storage.ReminderStore, notifier ReminderNotifier, log zerolog.Logger) *ReminderService {
	return &ReminderService{
		store:    store,
		notifier: notifier,
		log:      log.With().Str("component", "reminder-service").Logger(),
	}
}

func (s *ReminderService) Create(ctx context.Context, req *domain.CreateReminderRequest) (*domain.Reminder, error) {
	if req.Name == "" {
		return nil, validationErrorf("name is required")
	}
	if err := validateKind(req.Kind); err != nil {
		return nil, err
	}
	if req.IntervalMin <= 0 {
		return nil, validationErrorf("interval_min must be greater than zero")
	}
	if req.Message == "" {
		return nil, validationErrorf("message is required")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	now := timeutil.Now()
	return s.store.CreateReminder(ctx, &domain.Reminder{
		Name:        req.Name,
		Kind:        req.Kind,
		IntervalMin: req.IntervalMin,
		Message:     req.Message,
		Active:      active,
		NextDueAt:   now.Add(time.Duration(req.IntervalMin) * time.Minute),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *ReminderService) Get(ctx context.Context, id int64) (*domain.Reminder, error) {
	reminder, err := s.store.GetReminder(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Entity: "reminder", ID: id}
		}
		return nil, err
	}
	return reminder, nil
}

func (s *ReminderService) List(ctx context.Context) ([]*domain.Reminder, error) {
	return s.store.ListReminders(ctx)
}

func (s *ReminderService) Update(ctx context.Context, id int64, req *domain.UpdateReminderRequest) (*domain.Reminder, error) {
	patch := domain.ReminderPatch{
		Message: req.Message,
		Active:  req.Active,
	}
	if req.Name.Set {
		if req.Name.Value == "" {
			return nil, validationErrorf("name is required")
		}
		patch.Name = req.Name
	}
	if req.Kind.Set {
		if err := validateKind(req.Kind.Value); err != nil {
			return nil, err
		}
		patch.Kind = req.Kind
	}
	if req.IntervalMin.Set {
		if req.IntervalMin.Value <= 0 {
			return nil, validationErrorf("interval_min must be greater than zero")
		}
		patch.IntervalMin = req.IntervalMin
	}
	patch.UpdatedAt = domain.SetField(timeutil.Now())

	updated, err := s.store.UpdateReminder(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Entity: "reminder", ID: id}
		}
		return nil, err
	}
	return updated, nil
}

// DispatchDue notifies every due reminder, earliest first, and advances each
// one's next_due_at by its own interval. A failed notification is logged and
// the reminder stays due, so the next poll retries it.
func (s *ReminderService) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.ListDueReminders(ctx, now)
	if err != nil {
		return 0, err
	}
	dispatched := 0
	for _, reminder := range due {
		if s.notifier != nil {
			if err := s.notifier.Notify(ctx, reminder); err != nil {
				s.log.Warn().Err(err).Int64("id", reminder.ID).Str("name", reminder.Name).Msg("reminder notification failed")
				continue
			}
		}
		nextDue := now.Add(time.Duration(reminder.IntervalMin) * time.Minute)
		if err := s.store.MarkReminderSent(ctx, reminder.ID, now, nextDue); err != nil {
			s.log.Warn().Err(err).Int64("id", reminder.ID).Msg("failed to advance reminder")
			continue
		}
		dispatched++
	}
	return dispatched, nil
}
