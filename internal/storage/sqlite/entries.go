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

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const entryColumns = `id, tenant, kind, occurred_at, client_event_id, notes,
	volume_ml, expressed_ml, formula_ml, duration_min, caregiver_id,
	created_at, updated_at, deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*domain.Entry, error) {
	var (
		e           domain.Entry
		occurredAt  sql.NullString
		notes       sql.NullString
		volume      sql.NullFloat64
		expressed   sql.NullFloat64
		formula     sql.NullFloat64
		duration    sql.NullFloat64
		caregiverID sql.NullInt64
		createdAt   sql.NullString
		updatedAt   sql.NullString
		deletedAt   sql.NullString
	)
	err := row.Scan(&e.ID, &e.Tenant, &e.Kind, &occurredAt, &e.ClientEventID, &notes,
		&volume, &expressed, &formula, &duration, &caregiverID,
		&createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	if e.Timestamp, err = scanTime(occurredAt); err != nil {
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
	e.Notes = stringPtr(notes)
	e.VolumeML = floatPtr(volume)
	e.ExpressedML = floatPtr(expressed)
	e.FormulaML = floatPtr(formula)
	e.DurationMin = floatPtr(duration)
	e.CaregiverID = intPtr(caregiverID)
	return &e, nil
}

func isUniqueViolation(err error) bool {
	var serr *sqlitedrv.Error
	if errors.As(err, &serr) {
		code := serr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// CreateEntry relies on the UNIQUE constraint on client_event_id: a violation
// is converted into a lookup of the existing row, making retried creates safe.
func (s *Store) CreateEntry(ctx context.Context, entry *domain.Entry) (*domain.Entry, bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (tenant, kind, occurred_at, client_event_id, notes,
			volume_ml, expressed_ml, formula_ml, duration_min, caregiver_id,
			created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Tenant, entry.Kind, timeutil.Format(entry.Timestamp), entry.ClientEventID,
		nullString(entry.Notes), nullFloat(entry.VolumeML), nullFloat(entry.ExpressedML),
		nullFloat(entry.FormulaML), nullFloat(entry.DurationMin), nullInt(entry.CaregiverID),
		timeutil.Format(entry.CreatedAt), timeutil.Format(entry.UpdatedAt), nullTime(entry.DeletedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := s.GetEntryByClientEventID(ctx, entry.ClientEventID)
			if lookupErr != nil {
				return nil, false, fmt.Errorf("failed to load duplicate entry: %w", lookupErr)
			}
			return existing, true, nil
		}
		return nil, false, fmt.Errorf("failed to create entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, err
	}
	created, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return created, false, nil
}

func (s *Store) GetEntry(ctx context.Context, id int64) (*domain.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

func (s *Store) GetEntryByClientEventID(ctx context.Context, clientEventID string) (*domain.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries WHERE client_event_id = ?`, clientEventID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry by client event id: %w", err)
	}
	return entry, nil
}

func (s *Store) ListEntries(ctx context.Context, filter domain.EntryFilter) ([]*domain.Entry, error) {
	clauses := []string{}
	params := []any{}
	if filter.Tenant != "" {
		clauses = append(clauses, "tenant = ?")
		params = append(params, filter.Tenant)
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		params = append(params, filter.Kind)
	}
	if filter.Since != nil {
		clauses = append(clauses, "occurred_at >= ?")
		params = append(params, timeutil.Format(*filter.Since))
	}
	if filter.Until != nil {
		clauses = append(clauses, "occurred_at <= ?")
		params = append(params, timeutil.Format(*filter.Until))
	}
	if !filter.IncludeDeleted {
		clauses = append(clauses, "deleted_at IS NULL")
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	params = append(params, limit)

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM entries %s ORDER BY occurred_at DESC LIMIT ?`,
		entryColumns, where), params...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (s *Store) ListEntriesForExport(ctx context.Context, tenant string) ([]*domain.Entry, error) {
	clauses := []string{"deleted_at IS NULL"}
	params := []any{}
	if tenant != "" {
		clauses = append(clauses, "tenant = ?")
		params = append(params, tenant)
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM entries WHERE %s ORDER BY occurred_at ASC`,
		entryColumns, strings.Join(clauses, " AND ")), params...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for export: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func (s *Store) ListEntriesUpdatedSince(ctx context.Context, cursor time.Time, limit int) ([]*domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM entries WHERE updated_at >= ? ORDER BY updated_at ASC LIMIT ?`,
		entryColumns), timeutil.Format(cursor), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries updated since cursor: %w", err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]*domain.Entry, error) {
	entries := []*domain.Entry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *Store) UpdateEntry(ctx context.Context, id int64, patch domain.EntryPatch) (*domain.Entry, error) {
	assignments := []string{}
	values := []any{}
	appendSet := func(column string, set bool, value any) {
		if set {
			assignments = append(assignments, column+" = ?")
			values = append(values, value)
		}
	}
	appendSet("kind", patch.Kind.Set, patch.Kind.Value)
	if patch.Timestamp.Set {
		appendSet("occurred_at", true, timeutil.Format(patch.Timestamp.Value))
	}
	appendSet("notes", patch.Notes.Set, nullString(patch.Notes.Value))
	appendSet("volume_ml", patch.VolumeML.Set, nullFloat(patch.VolumeML.Value))
	appendSet("expressed_ml", patch.ExpressedML.Set, nullFloat(patch.ExpressedML.Value))
	appendSet("formula_ml", patch.FormulaML.Set, nullFloat(patch.FormulaML.Value))
	appendSet("duration_min", patch.DurationMin.Set, nullFloat(patch.DurationMin.Value))
	appendSet("caregiver_id", patch.CaregiverID.Set, nullInt(patch.CaregiverID.Value))
	if patch.UpdatedAt.Set {
		appendSet("updated_at", true, timeutil.Format(patch.UpdatedAt.Value))
	}
	appendSet("deleted_at", patch.DeletedAt.Set, nullTime(patch.DeletedAt.Value))

	if len(assignments) == 0 {
		return s.GetEntry(ctx, id)
	}
	values = append(values, id)
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE entries SET %s WHERE id = ?", strings.Join(assignments, ", ")),
		values...); err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}
	return s.GetEntry(ctx, id)
}

func (s *Store) SoftDeleteEntry(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE entries SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		timeutil.Format(deletedAt), timeutil.Format(updatedAt), id)
	if err != nil {
		return false, fmt.Errorf("failed to soft-delete entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UpsertEntryByClientEventID creates the entry or unconditionally overwrites
// the mutable fields of the existing one. Last write wins: there is no
// per-field merge.
func (s *Store) UpsertEntryByClientEventID(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	existing, err := s.GetEntryByClientEventID(ctx, entry.ClientEventID)
	if errors.Is(err, storage.ErrNotFound) {
		created, _, createErr := s.CreateEntry(ctx, entry)
		return created, createErr
	}
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE entries SET tenant = ?, kind = ?, occurred_at = ?, notes = ?,
			volume_ml = ?, expressed_ml = ?, formula_ml = ?, duration_min = ?,
			caregiver_id = ?, updated_at = ?, deleted_at = ?
		WHERE id = ?`,
		entry.Tenant, entry.Kind, timeutil.Format(entry.Timestamp), nullString(entry.Notes),
		nullFloat(entry.VolumeML), nullFloat(entry.ExpressedML), nullFloat(entry.FormulaML),
		nullFloat(entry.DurationMin), nullInt(entry.CaregiverID),
		timeutil.Format(entry.UpdatedAt), nullTime(entry.DeletedAt), existing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert entry: %w", err)
	}
	return s.GetEntry(ctx, existing.ID)
}
