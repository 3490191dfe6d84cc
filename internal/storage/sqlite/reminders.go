package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/storage"
	"babylog-sync-server/pkg/timeutil"
)

const reminderColumns = `id, name, kind, interval_min, message, active,
	last_sent_at, next_due_at, created_at, updated_at`

func scanReminder(row rowScanner) (*domain.Reminder, error) {
	var (
		r          domain.Reminder
		active     int
		lastSentAt sql.NullString
		nextDueAt  sql.NullString
		createdAt  sql.NullString
		updatedAt  sql.NullString
	)
	err := row.Scan(&r.ID, &r.Name, &r.Kind, &r.IntervalMin, &r.Message, &active,
		&lastSentAt, &nextDueAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.Active = active != 0
	if r.LastSentAt, err = scanTimePtr(lastSentAt); err != nil {
		return nil, err
	}
	if r.NextDueAt, err = scanTime(nextDueAt); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = scanTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = scanTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) CreateReminder(ctx context.Context, reminder *domain.Reminder) (*domain.Reminder, error) {
	active := 0
	if reminder.Active {
		active = 1
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reminders (name, kind, interval_min, message, active,
			last_sent_at, next_due_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reminder.Name, reminder.Kind, reminder.IntervalMin, reminder.Message, active,
		nullTime(reminder.LastSentAt), timeutil.Format(reminder.NextDueAt),
		timeutil.Format(reminder.CreatedAt), timeutil.Format(reminder.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetReminder(ctx, id)
}

func (s *Store) GetReminder(ctx context.Context, id int64) (*domain.Reminder, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reminderColumns+` FROM reminders WHERE id = ?`, id)
	reminder, err := scanReminder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return reminder, nil
}

func (s *Store) ListReminders(ctx context.Context) ([]*domain.Reminder, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reminderColumns+` FROM reminders ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()
	return collectReminders(rows)
}

func (s *Store) ListDueReminders(ctx context.Context, now time.Time) ([]*domain.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reminderColumns+` FROM reminders
		WHERE active = 1 AND next_due_at <= ?
		ORDER BY next_due_at ASC`,
		timeutil.Format(now))
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	defer rows.Close()
	return collectReminders(rows)
}

func collectReminders(rows *sql.Rows) ([]*domain.Reminder, error) {
	reminders := []*domain.Reminder{}
	for rows.Next() {
		reminder, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, reminder)
	}
	return reminders, rows.Err()
}

func (s *Store) UpdateReminder(ctx context.Context, id int64, patch domain.ReminderPatch) (*domain.Reminder, error) {
	assignments := []string{}
	values := []any{}
	appendSet := func(column string, set bool, value any) {
		if set {
			assignments = append(assignments, column+" = ?")
			values = append(values, value)
		}
	}
	appendSet("name", patch.Name.Set, patch.Name.Value)
	appendSet("kind", patch.Kind.Set, patch.Kind.Value)
	appendSet("interval_min", patch.IntervalMin.Set, patch.IntervalMin.Value)
	appendSet("message", patch.Message.Set, patch.Message.Value)
	if patch.Active.Set {
		active := 0
		if patch.Active.Value {
			active = 1
		}
		appendSet("active", true, active)
	}
	appendSet("last_sent_at", patch.LastSentAt.Set, nullTime(patch.LastSentAt.Value))
	if patch.NextDueAt.Set {
		appendSet("next_due_at", true, timeutil.Format(patch.NextDueAt.Value))
	}
	if patch.UpdatedAt.Set {
		appendSet("updated_at", true, timeutil.Format(patch.UpdatedAt.Value))
	}

	if len(assignments) == 0 {
		return s.GetReminder(ctx, id)
	}
	values = append(values, id)
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE reminders SET %s WHERE id = ?", strings.Join(assignments, ", ")),
		values...); err != nil {
		return nil, fmt.Errorf("failed to update reminder: %w", err)
	}
	return s.GetReminder(ctx, id)
}

func (s *Store) MarkReminderSent(ctx context.Context, id int64, sentAt, nextDueAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE reminders
		SET last_sent_at = ?, next_due_at = ?, updated_at = ?
		WHERE id = ?`,
		timeutil.Format(sentAt), timeutil.Format(nextDueAt), timeutil.Format(sentAt), id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}
