package domain

import "time"

// Settings is the single global configuration record. It always exists: the
// stores auto-create it with all-null values on first read.
type Settings struct {
	DOB                  *string   `json:"dob"`
	FeedIntervalMin      *int      `json:"feed_interval_min"`
	CustomEventKinds     []string  `json:"custom_event_kinds"`
	FeedGoalMin          *int      `json:"feed_goal_min"`
	FeedGoalMax          *int      `json:"feed_goal_max"`
	OvernightGapMinHours *float64  `json:"overnight_gap_min_hours"`
	OvernightGapMaxHours *float64  `json:"overnight_gap_max_hours"`
	BehindTargetMode     *string   `json:"behind_target_mode"`
	EntryWebhookURL      *string   `json:"entry_webhook_url"`
	DefaultTenant        *string   `json:"default_tenant"`
	FeedDuePushURL       *string   `json:"feed_due_push_url"`
	ScheduleAnchorTime   *string   `json:"schedule_anchor_time"`
	UpdatedAt            time.Time `json:"updated_at"`
}

type UpdateSettingsRequest struct {
	DOB                  Field[*string]  `json:"dob"`
	FeedIntervalMin      Field[*int]     `json:"feed_interval_min"`
	CustomEventKinds     Field[[]string] `json:"custom_event_kinds"`
	FeedGoalMin          Field[*int]     `json:"feed_goal_min"`
	FeedGoalMax          Field[*int]     `json:"feed_goal_max"`
	OvernightGapMinHours Field[*float64] `json:"overnight_gap_min_hours"`
	OvernightGapMaxHours Field[*float64] `json:"overnight_gap_max_hours"`
	BehindTargetMode     Field[*string]  `json:"behind_target_mode"`
	EntryWebhookURL      Field[*string]  `json:"entry_webhook_url"`
	DefaultTenant        Field[*string]  `json:"default_tenant"`
	FeedDuePushURL       Field[*string]  `json:"feed_due_push_url"`
	ScheduleAnchorTime   Field[*string]  `json:"schedule_anchor_time"`
}

type SettingsPatch struct {
	DOB                  Field[*string]
	FeedIntervalMin      Field[*int]
	CustomEventKinds     Field[[]string]
	FeedGoalMin          Field[*int]
	FeedGoalMax          Field[*int]
	OvernightGapMinHours Field[*float64]
	OvernightGapMaxHours Field[*float64]
	BehindTargetMode     Field[*string]
	EntryWebhookURL      Field[*string]
	DefaultTenant        Field[*string]
	FeedDuePushURL       Field[*string]
	ScheduleAnchorTime   Field[*string]
	UpdatedAt            Field[time.Time]
}
