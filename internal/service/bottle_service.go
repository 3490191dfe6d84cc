package service

import (
	"context"
	"errors"
	"math"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/internal/storage"
	"babylog-sync-server/pkg/timeutil"
)

type BottleService struct {
	store storage.BottleStore
}

func NewBottleService(store storage.BottleStore) *BottleService {
	return &BottleService{store: store}
}

func validateBottleWeight(weight float64) error {
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return validationErrorf("empty_weight_g must be a finite number")
	}
	if weight <= 0 {
		return validationErrorf("empty_weight_g must be greater than zero")
	}
	return nil
}

func (s *BottleService) Create(ctx context.Context, req *domain.CreateBottleRequest) (*domain.Bottle, error) {
	if err := validateBottleName(req.Name); err != nil {
		return nil, err
	}
	if err := validateBottleWeight(req.EmptyWeightG); err != nil {
		return nil, err
	}

	now := timeutil.Now()
	return s.store.CreateBottle(ctx, &domain.Bottle{
		Name:         req.Name,
		EmptyWeightG: req.EmptyWeightG,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *BottleService) Get(ctx context.Context, id int64) (*domain.Bottle, error) {
	bottle, err := s.store.GetBottle(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Entity: "bottle", ID: id}
		}
		return nil, err
	}
	return bottle, nil
}

func (s *BottleService) List(ctx context.Context, includeDeleted bool) ([]*domain.Bottle, error) {
	return s.store.ListBottles(ctx, includeDeleted)
}

func (s *BottleService) Update(ctx context.Context, id int64, req *domain.UpdateBottleRequest) (*domain.Bottle, error) {
	patch := domain.BottlePatch{}
	if req.Name.Set {
		if err := validateBottleName(req.Name.Value); err != nil {
			return nil, err
		}
		patch.Name = req.Name
	}
	if req.EmptyWeightG.Set {
		if err := validateBottleWeight(req.EmptyWeightG.Value); err != nil {
			return nil, err
		}
		patch.EmptyWeightG = req.EmptyWeightG
	}
	patch.UpdatedAt = domain.SetField(timeutil.Now())

	updated, err := s.store.UpdateBottle(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &NotFoundError{Entity: "bottle", ID: id}
		}
		return nil, err
	}
	return updated, nil
}

func (s *BottleService) Delete(ctx context.Context, id int64) error {
	now := timeutil.Now()
	deleted, err := s.store.SoftDeleteBottle(ctx, id, now, now)
	if err != nil {
		return err
	}
	if !deleted {
		return &NotFoundError{Entity: "bottle", ID: id}
	}
	return nil
}
