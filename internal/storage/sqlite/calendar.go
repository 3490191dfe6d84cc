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

const eventColumns = `id, title, event_date, start_time, end_time, location, notes,
	category, recurrence, recurrence_until, created_at, updated_at, deleted_at`

func scanEvent(row rowScanner) (*domain.CalendarEvent, error) {
	var (
		e               domain.CalendarEvent
		endTime         sql.NullString
		location        sql.NullString
		notes           sql.NullString
		recurrenceUntil sql.NullString
		createdAt       sql.NullString
		updatedAt       sql.NullString
		deletedAt       sql.NullString
	)
	err := row.Scan(&e.ID, &e.Title, &e.Date, &e.StartTime, &endTime, &location, &notes,
		&e.Category, &e.Recurrence, &recurrenceUntil, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	if e.CreatedAt, err = scanTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = scanTime(updatedAt); err != nil {
		return nil, err
	}
	if e.DeletedAt, err = scanTimePtr(deletedAt); err != nil {
		return nil, err
	}
	e.EndTime = stringPtr(endTime)
	e.Location = stringPtr(location)
	e.Notes = stringPtr(notes)
	e.RecurrenceUntil = stringPtr(recurrenceUntil)
	return &e, nil
}

func (s *Store) CreateEvent(ctx context.Context, event *domain.CalendarEvent) (*domain.CalendarEvent, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO calendar_events (title, event_date, start_time, end_time, location,
			notes, category, recurrence, recurrence_until, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.Title, event.Date, event.StartTime, nullString(event.EndTime), nullString(event.Location),
		nullString(event.Notes), string(event.Category), string(event.Recurrence),
		nullString(event.RecurrenceUntil),
		timeutil.Format(event.CreatedAt), timeutil.Format(event.UpdatedAt), nullTime(event.DeletedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetEvent(ctx, id)
}

func (s *Store) GetEvent(ctx context.Context, id int64) (*domain.CalendarEvent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM calendar_events WHERE id = ?`, id)
	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get calendar event: %w", err)
	}
	return event, nil
}

// ListEvents returns every stored event that could still produce an occurrence
// within the range: events starting by endDate whose recurrence window has not
// closed before startDate. Expansion happens in the calendar service.
func (s *Store) ListEvents(ctx context.Context, startDate, endDate string, includeDeleted bool) ([]*domain.CalendarEvent, error) {
	clauses := []string{
		"event_date <= ?",
		"(recurrence_until IS NULL OR recurrence_until >= ?)",
	}
	params := []any{endDate, startDate}
	if !includeDeleted {
		clauses = append(clauses, "deleted_at IS NULL")
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM calendar_events WHERE %s
		ORDER BY event_date ASC, start_time ASC, id ASC`,
		eventColumns, strings.Join(clauses, " AND ")), params...)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}
	defer rows.Close()

	events := []*domain.CalendarEvent{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *Store) UpdateEvent(ctx context.Context, id int64, patch domain.CalendarEventPatch) (*domain.CalendarEvent, error) {
	assignments := []string{}
	values := []any{}
	appendSet := func(column string, set bool, value any) {
		if set {
			assignments = append(assignments, column+" = ?")
			values = append(values, value)
		}
	}
	appendSet("title", patch.Title.Set, patch.Title.Value)
	appendSet("event_date", patch.Date.Set, patch.Date.Value)
	appendSet("start_time", patch.StartTime.Set, patch.StartTime.Value)
	appendSet("end_time", patch.EndTime.Set, nullString(patch.EndTime.Value))
	appendSet("location", patch.Location.Set, nullString(patch.Location.Value))
	appendSet("notes", patch.Notes.Set, nullString(patch.Notes.Value))
	appendSet("category", patch.Category.Set, string(patch.Category.Value))
	appendSet("recurrence", patch.Recurrence.Set, string(patch.Recurrence.Value))
	appendSet("recurrence_until", patch.RecurrenceUntil.Set, nullString(patch.RecurrenceUntil.Value))
	if patch.UpdatedAt.Set {
		appendSet("updated_at", true, timeutil.Format(patch.UpdatedAt.Value))
	}

	if len(assignments) == 0 {
		return s.GetEvent(ctx, id)
	}
	values = append(values, id)
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE calendar_events SET %s WHERE id = ?", strings.Join(assignments, ", ")),
		values...); err != nil {
		return nil, fmt.Errorf("failed to update calendar event: %w", err)
	}
	return s.GetEvent(ctx, id)
}

func (s *Store) SoftDeleteEvent(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE calendar_events SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		timeutil.Format(deletedAt), timeutil.Format(updatedAt), id)
	if err != nil {
		return false, fmt.Errorf("failed to soft-delete calendar event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
