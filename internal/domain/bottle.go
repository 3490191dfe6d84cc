package domain

import "time"

// Bottle is a reusable container definition used when weighing feeds.
type Bottle struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	EmptyWeightG float64    `json:"empty_weight_g"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at"`
}

type CreateBottleRequest struct {
	Name         string  `json:"name" validate:"required"`
	EmptyWeightG float64 `json:"empty_weight_g" validate:"required,gt=0"`
}

type UpdateBottleRequest struct {
	Name         Field[string]  `json:"name"`
	EmptyWeightG Field[float64] `json:"empty_weight_g"`
}

type BottlePatch struct {
	Name         Field[string]
	EmptyWeightG Field[float64]
	UpdatedAt    Field[time.Time]
}
