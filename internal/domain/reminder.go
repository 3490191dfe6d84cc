package domain

import "time"

// Reminder is a periodic nudge. NextDueAt advances by IntervalMin each time the
// reminder is dispatched.
type Reminder struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	IntervalMin int        `json:"interval_min"`
	Message     string     `json:"message"`
	Active      bool       `json:"active"`
	LastSentAt  *time.Time `json:"last_sent_at"`
	NextDueAt   time.Time  `json:"next_due_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CreateReminderRequest struct {
	Name        string `json:"name" validate:"required"`
	Kind        string `json:"kind" validate:"required,eventkind"`
	IntervalMin int    `json:"interval_min" validate:"required,gt=0"`
	Message     string `json:"message" validate:"required"`
	Active      *bool  `json:"active"`
}

type UpdateReminderRequest struct {
	Name        Field[string] `json:"name"`
	Kind        Field[string] `json:"kind"`
	IntervalMin Field[int]    `json:"interval_min"`
	Message     Field[string] `json:"message"`
	Active      Field[bool]   `json:"active"`
}

type ReminderPatch struct {
	Name        Field[string]
	Kind        Field[string]
	IntervalMin Field[int]
	Message     Field[string]
	Active      Field[bool]
	LastSentAt  Field[*time.Time]
	NextDueAt   Field[time.Time]
	UpdatedAt   Field[time.Time]
}
