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

const bottleColumns = `id, name, empty_weight_g, created_at, updated_at, deleted_at`

func scanBottle(row rowScanner) (*domain.Bottle, error) {
	var (
		b         domain.Bottle
		createdAt sql.NullString
		updatedAt sql.NullString
		deletedAt sql.NullString
	)
	if err := row.Scan(&b.ID, &b.Name, &b.EmptyWeightG, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}
	var err error
	if b.CreatedAt, err = scanTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = scanTime(updatedAt); err != nil {
		return nil, err
	}
	if b.DeletedAt, err = scanTimePtr(deletedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) CreateBottle(ctx context.Context, bottle *domain.Bottle) (*domain.Bottle, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO bottles (name, empty_weight_g, created_at, updated_at, deleted_at)
		VALUES (?, ?, ?, ?, ?)`,
		bottle.Name, bottle.EmptyWeightG,
		timeutil.Format(bottle.CreatedAt), timeutil.Format(bottle.UpdatedAt), nullTime(bottle.DeletedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create bottle: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetBottle(ctx, id)
}

func (s *Store) GetBottle(ctx context.Context, id int64) (*domain.Bottle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bottleColumns+` FROM bottles WHERE id = ?`, id)
	bottle, err := scanBottle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bottle: %w", err)
	}
	return bottle, nil
}

func (s *Store) ListBottles(ctx context.Context, includeDeleted bool) ([]*domain.Bottle, error) {
	where := ""
	if !includeDeleted {
		where = "WHERE deleted_at IS NULL"
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s FROM bottles %s ORDER BY updated_at DESC, id DESC`, bottleColumns, where))
	if err != nil {
		return nil, fmt.Errorf("failed to list bottles: %w", err)
	}
	defer rows.Close()

	bottles := []*domain.Bottle{}
	for rows.Next() {
		bottle, err := scanBottle(rows)
		if err != nil {
			return nil, err
		}
		bottles = append(bottles, bottle)
	}
	return bottles, rows.Err()
}

func (s *Store) UpdateBottle(ctx context.Context, id int64, patch domain.BottlePatch) (*domain.Bottle, error) {
	assignments := []string{}
	values := []any{}
	if patch.Name.Set {
		assignments = append(assignments, "name = ?")
		values = append(values, patch.Name.Value)
	}
	if patch.EmptyWeightG.Set {
		assignments = append(assignments, "empty_weight_g = ?")
		values = append(values, patch.EmptyWeightG.Value)
	}
	if patch.UpdatedAt.Set {
		assignments = append(assignments, "updated_at = ?")
		values = append(values, timeutil.Format(patch.UpdatedAt.Value))
	}
	if len(assignments) == 0 {
		return s.GetBottle(ctx, id)
	}
	values = append(values, id)
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE bottles SET %s WHERE id = ?", strings.Join(assignments, ", ")),
		values...); err != nil {
		return nil, fmt.Errorf("failed to update bottle: %w", err)
	}
	return s.GetBottle(ctx, id)
}

func (s *Store) SoftDeleteBottle(ctx context.Context, id int64, deletedAt, updatedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bottles SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		timeutil.Format(deletedAt), timeutil.Format(updatedAt), id)
	if err != nil {
		return false, fmt.Errorf("failed to soft-delete bottle: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
