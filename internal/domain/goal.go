package domain

import "time"

// FeedingGoal is a daily target volume effective from a start date. Goals are
// hard-deleted; there is no soft-delete lifecycle here.
type FeedingGoal struct {
	ID        int64     `json:"id"`
	TargetML  float64   `json:"target_ml"`
	StartDate string    `json:"start_date"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateGoalRequest struct {
	TargetML  float64 `json:"target_ml" validate:"required,gt=0"`
	StartDate string  `json:"start_date"`
}

type UpdateGoalRequest struct {
	TargetML  Field[float64] `json:"target_ml"`
	StartDate Field[string]  `json:"start_date"`
}

type GoalPatch struct {
	TargetML  Field[float64]
	StartDate Field[string]
}
