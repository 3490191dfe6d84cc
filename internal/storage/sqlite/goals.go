package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/storage"
	"babylog-sync-server/pkg/timeutil"
)

const goalColumns = `id, target_ml, start_date, created_at`

func scanGoal(row rowScanner) (*domain.FeedingGoal, error) {
	var (
		g         domain.FeedingGoal
		createdAt sql.NullString
	)
	if err := row.Scan(&g.ID, &g.TargetML, &g.StartDate, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if g.CreatedAt, err = scanTime(createdAt); err != nil {
		return nil, err
	}
	return &g, nil
}

func (s *Store) CreateGoal(ctx context.Context, goal *domain.FeedingGoal) (*domain.FeedingGoal, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO feeding_goals (target_ml, start_date, created_at)
		VALUES (?, ?, ?)`,
		goal.TargetML, goal.StartDate, timeutil.Format(goal.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create feeding goal: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetGoal(ctx, id)
}

func (s *Store) GetGoal(ctx context.Context, id int64) (*domain.FeedingGoal, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM feeding_goals WHERE id = ?`, id)
	goal, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feeding goal: %w", err)
	}
	return goal, nil
}

func (s *Store) ListGoals(ctx context.Context, limit int) ([]*domain.FeedingGoal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+goalColumns+` FROM feeding_goals
		ORDER BY start_date DESC, created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeding goals: %w", err)
	}
	defer rows.Close()

	goals := []*domain.FeedingGoal{}
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	return goals, rows.Err()
}

// CurrentGoal picks the most recently created goal regardless of start_date.
// The divergence from list order is part of the external contract.
func (s *Store) CurrentGoal(ctx context.Context) (*domain.FeedingGoal, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+goalColumns+` FROM feeding_goals
		ORDER BY created_at DESC, id DESC
		LIMIT 1`)
	goal, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current feeding goal: %w", err)
	}
	return goal, nil
}

func (s *Store) UpdateGoal(ctx context.Context, id int64, patch domain.GoalPatch) (*domain.FeedingGoal, error) {
	assignments := []string{}
	values := []any{}
	if patch.TargetML.Set {
		assignments = append(assignments, "target_ml = ?")
		values = append(values, patch.TargetML.Value)
	}
	if patch.StartDate.Set {
		assignments = append(assignments, "start_date = ?")
		values = append(values, patch.StartDate.Value)
	}
	if len(assignments) == 0 {
		return s.GetGoal(ctx, id)
	}
	values = append(values, id)
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE feeding_goals SET %s WHERE id = ?", strings.Join(assignments, ", ")),
		values...); err != nil {
		return nil, fmt.Errorf("failed to update feeding goal: %w", err)
	}
	return s.GetGoal(ctx, id)
}

func (s *Store) DeleteGoal(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM feeding_goals WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete feeding goal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
