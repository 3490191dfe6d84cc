package domain

import "time"

// Entry is a single timestamped caregiving event (a feed, a nappy change, an
// expression session, ...). The client_event_id is the idempotency key: it is
// unique across every entry ever created, soft-deleted ones included.
type Entry struct {
	ID            int64      `json:"id"`
	Tenant        string     `json:"tenant"`
	Kind          string     `json:"kind"`
	Timestamp     time.Time  `json:"timestamp"`
	ClientEventID string     `json:"client_event_id"`
	Notes         *string    `json:"notes"`
	VolumeML      *float64   `json:"volume_ml"`
	ExpressedML   *float64   `json:"expressed_ml"`
	FormulaML     *float64   `json:"formula_ml"`
	DurationMin   *float64   `json:"duration_min"`
	CaregiverID   *int64     `json:"caregiver_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at"`
}

type CreateEntryRequest struct {
	Tenant        string   `json:"tenant"`
	Kind          string   `json:"kind" validate:"required,eventkind"`
	Timestamp     string   `json:"timestamp"`
	ClientEventID string   `json:"client_event_id"`
	Notes         *string  `json:"notes"`
	VolumeML      *float64 `json:"volume_ml"`
	ExpressedML   *float64 `json:"expressed_ml"`
	FormulaML     *float64 `json:"formula_ml"`
	DurationMin   *float64 `json:"duration_min"`
	CaregiverID   *int64   `json:"caregiver_id"`
}

type UpdateEntryRequest struct {
	Kind        Field[string]   `json:"kind"`
	Timestamp   Field[string]   `json:"timestamp"`
	Notes       Field[*string]  `json:"notes"`
	VolumeML    Field[*float64] `json:"volume_ml"`
	ExpressedML Field[*float64] `json:"expressed_ml"`
	FormulaML   Field[*float64] `json:"formula_ml"`
	DurationMin Field[*float64] `json:"duration_min"`
	CaregiverID Field[*int64]   `json:"caregiver_id"`
}

// EntryPatch carries only the fields a partial update supplies; unset cells
// leave the stored value untouched.
type EntryPatch struct {
	Kind        Field[string]
	Timestamp   Field[time.Time]
	Notes       Field[*string]
	VolumeML    Field[*float64]
	ExpressedML Field[*float64]
	FormulaML   Field[*float64]
	DurationMin Field[*float64]
	CaregiverID Field[*int64]
	UpdatedAt   Field[time.Time]
	DeletedAt   Field[*time.Time]
}

// EntryFilter narrows a listing; nil members mean no constraint on that
// dimension. Since/Until bound the event timestamp inclusively.
type EntryFilter struct {
	Tenant         string
	Kind           string
	Since          *time.Time
	Until          *time.Time
	IncludeDeleted bool
	Limit          int
}
