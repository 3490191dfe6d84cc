package service

import (
	"context"
	"errors"
	"math"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/storage"
	"babylog-sync-server/pkg/timeutil"
)

type GoalService struct {
	store storage.GoalStore
}

func NewGoalService(store storage.GoalStore) *GoalService {
	return &GoalService{store: store}
}

func validateGoalTarget(target float64) error {
	if math.IsNaN(target) || math.IsInf(target, 0) {
		return validationErrorf("target_ml must be a finite number")
	}
	if target <= 0 {
		return validationErrorf("target_ml must be greater than zero")
	}
	return nil
}

func (s *GoalService) Create(ctx context.Context, req *domain.CreateGoalRequest) (*domain.FeedingGoal, error) {
	if err := validateGoalTarget(req.TargetML); err != nil {
		return nil, err
	}
	now := timeutil.Now()
	startDate := req.StartDate
	if startDate == "" {
		startDate = now.Format(timeutil.DateLayout)
	} else if _, err := timeutil.ParseDate(startDate); err != nil {
		return nil, validationErrorf("start_date %q is not a valid date", startDate)
	}

	return s.store.CreateGoal(ctx, &domain.FeedingGoal{
		TargetML:  req.TargetML,
		StartDate: startDate,
		CreatedAt: now,
	})
}

func (s *GoalService) Get(ctx context.Context, id int64) (*domain.FeedingGoal, error) {
	goal, err := s.store.GetGoal(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Entity: "goal", ID: id}
		}
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) List(ctx context.Context, limit int) ([]*domain.FeedingGoal, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return s.store.ListGoals(ctx, limit)
}

// Current returns the most recently created goal, or nil when none exist.
func (s *GoalService) Current(ctx context.Context) (*domain.FeedingGoal, error) {
	goal, err := s.store.CurrentGoal(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return goal, nil
}

func (s *GoalService) Update(ctx context.Context, id int64, req *domain.UpdateGoalRequest) (*domain.FeedingGoal, error) {
	patch := domain.GoalPatch{}
	if req.TargetML.Set {
		if err := validateGoalTarget(req.TargetML.Value); err != nil {
			return nil, err
		}
		patch.TargetML = req.TargetML
	}
	if req.StartDate.Set {
		if _, err := timeutil.ParseDate(req.StartDate.Value); err != nil {
			return nil, validationErrorf("start_date %q is not a valid date", req.StartDate.Value)
		}
		patch.StartDate = req.StartDate
	}

	updated, err := s.store.UpdateGoal(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Entity: "goal", ID: id}
		}
		return nil, err
	}
	return updated, nil
}

func (s *GoalService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteGoal(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return &NotFoundError{Entity: "goal", ID: id}
	}
	return nil
}
