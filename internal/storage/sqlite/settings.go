package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"babylog-sync-server/internal/domain"
	"babylog-sync-server/pkg/timeutil"
)

const settingsColumns = `dob, feed_interval_min, custom_event_kinds, feed_goal_min,
	feed_goal_max, overnight_gap_min_hours, overnight_gap_max_hours,
	behind_target_mode, entry_webhook_url, default_tenant, feed_due_push_url,
	schedule_anchor_time, updated_at`

func (s *Store) GetSettings(ctx context.Context) (*domain.Settings, error) {
	if err := s.ensureSettingsRow(); err != nil {
		return nil, fmt.Errorf("failed to ensure settings row: %w", err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM settings WHERE id = 1`)

	var (
		out              domain.Settings
		dob              sql.NullString
		feedInterval     sql.NullInt64
		customKinds      sql.NullString
		goalMin, goalMax sql.NullInt64
		gapMin, gapMax   sql.NullFloat64
		behindMode       sql.NullString
		entryWebhook     sql.NullString
		defaultTenant    sql.NullString
		feedDuePush      sql.NullString
		anchorTime       sql.NullString
		updatedAt        sql.NullString
	)
	err := row.Scan(&dob, &feedInterval, &customKinds, &goalMin, &goalMax,
		&gapMin, &gapMax, &behindMode, &entryWebhook, &defaultTenant,
		&feedDuePush, &anchorTime, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	out.DOB = stringPtr(dob)
	out.FeedIntervalMin = intValPtr(feedInterval)
	out.CustomEventKinds = parseCustomKinds(customKinds)
	out.FeedGoalMin = intValPtr(goalMin)
	out.FeedGoalMax = intValPtr(goalMax)
	out.OvernightGapMinHours = floatPtr(gapMin)
	out.OvernightGapMaxHours = floatPtr(gapMax)
	out.BehindTargetMode = stringPtr(behindMode)
	out.EntryWebhookURL = stringPtr(entryWebhook)
	out.DefaultTenant = stringPtr(defaultTenant)
	out.FeedDuePushURL = stringPtr(feedDuePush)
	out.ScheduleAnchorTime = stringPtr(anchorTime)
	if out.UpdatedAt, err = scanTime(updatedAt); err != nil {
		return nil, err
	}
	return &out, nil
}

// Malformed stored JSON degrades to an empty list rather than failing reads.
func parseCustomKinds(v sql.NullString) []string {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return []string{}
	}
	var kinds []string
	if err := json.Unmarshal([]byte(v.String), &kinds); err != nil {
		return []string{}
	}
	out := []string{}
	for _, k := range kinds {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func (s *Store) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (*domain.Settings, error) {
	if err := s.ensureSettingsRow(); err != nil {
		return nil, fmt.Errorf("failed to ensure settings row: %w", err)
	}

	assignments := []string{}
	values := []any{}
	appendSet := func(column string, set bool, value any) {
		if set {
			assignments = append(assignments, column+" = ?")
			values = append(values, value)
		}
	}
	appendSet("dob", patch.DOB.Set, nullString(patch.DOB.Value))
	if patch.FeedIntervalMin.Set {
		appendSet("feed_interval_min", true, nullIntVal(patch.FeedIntervalMin.Value))
	}
	if patch.CustomEventKinds.Set {
		encoded, err := json.Marshal(patch.CustomEventKinds.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode custom event kinds: %w", err)
		}
		appendSet("custom_event_kinds", true, string(encoded))
	}
	if patch.FeedGoalMin.Set {
		appendSet("feed_goal_min", true, nullIntVal(patch.FeedGoalMin.Value))
	}
	if patch.FeedGoalMax.Set {
		appendSet("feed_goal_max", true, nullIntVal(patch.FeedGoalMax.Value))
	}
	appendSet("overnight_gap_min_hours", patch.OvernightGapMinHours.Set, nullFloat(patch.OvernightGapMinHours.Value))
	appendSet("overnight_gap_max_hours", patch.OvernightGapMaxHours.Set, nullFloat(patch.OvernightGapMaxHours.Value))
	appendSet("behind_target_mode", patch.BehindTargetMode.Set, nullString(patch.BehindTargetMode.Value))
	appendSet("entry_webhook_url", patch.EntryWebhookURL.Set, nullString(patch.EntryWebhookURL.Value))
	appendSet("default_tenant", patch.DefaultTenant.Set, nullString(patch.DefaultTenant.Value))
	appendSet("feed_due_push_url", patch.FeedDuePushURL.Set, nullString(patch.FeedDuePushURL.Value))
	appendSet("schedule_anchor_time", patch.ScheduleAnchorTime.Set, nullString(patch.ScheduleAnchorTime.Value))
	if patch.UpdatedAt.Set {
		appendSet("updated_at", true, timeutil.Format(patch.UpdatedAt.Value))
	}

	if len(assignments) > 0 {
		values = append(values, 1)
		if _, err := s.db.ExecContext(ctx,
			fmt.Sprintf("UPDATE settings SET %s WHERE id = ?", strings.Join(assignments, ", ")),
			values...); err != nil {
			return nil, fmt.Errorf("failed to update settings: %w", err)
		}
	}
	return s.GetSettings(ctx)
}

func nullIntVal(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}
