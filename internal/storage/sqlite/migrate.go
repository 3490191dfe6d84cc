package sqlite

import (
	"fmt"
	"time"

	"babylog-sync-server/pkg/timeutil"
)

// The base tables match the earliest deployed schema; ensureColumn appends the
// columns later releases introduced. Older database files are upgraded in
// place on open, and nothing is ever dropped.
const baseSchema = `
CREATE TABLE IF NOT EXISTS entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant TEXT NOT NULL DEFAULT 'default',
	kind TEXT NOT NULL,
	occurred_at TEXT NOT NULL,
	client_event_id TEXT NOT NULL UNIQUE,
	notes TEXT,
	volume_ml REAL,
	caregiver_id INTEGER,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_entries_occurred_at ON entries (occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_entries_tenant ON entries (tenant);
CREATE INDEX IF NOT EXISTS idx_entries_updated_at ON entries (updated_at);

CREATE TABLE IF NOT EXISTS bottles (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	empty_weight_g REAL NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	deleted_at TEXT
);

CREATE TABLE IF NOT EXISTS feeding_goals (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	target_ml REAL NOT NULL,
	start_date TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feeding_goals_start_date
	ON feeding_goals (start_date DESC, created_at DESC);

CREATE TABLE IF NOT EXISTS calendar_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	event_date TEXT NOT NULL,
	start_time TEXT NOT NULL,
	end_time TEXT,
	location TEXT,
	notes TEXT,
	category TEXT NOT NULL,
	recurrence TEXT NOT NULL DEFAULT 'none',
	recurrence_until TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	deleted_at TEXT
);
CREATE INDEX IF NOT EXISTS idx_calendar_events_date ON calendar_events (event_date);

CREATE TABLE IF NOT EXISTS reminders (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	kind TEXT NOT NULL,
	interval_min INTEGER NOT NULL CHECK (interval_min > 0),
	message TEXT NOT NULL,
	active INTEGER NOT NULL DEFAULT 1,
	last_sent_at TEXT,
	next_due_at TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reminders_next_due_at ON reminders (next_due_at);

CREATE TABLE IF NOT EXISTS settings (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	dob TEXT,
	feed_interval_min INTEGER,
	updated_at TEXT NOT NULL
);
`

func (s *Store) migrate() error {
	if _, err := s.db.Exec(baseSchema); err != nil {
		return fmt.Errorf("base schema: %w", err)
	}

	added := []struct {
		table, column, ddl string
	}{
		{"entries", "expressed_ml", "REAL"},
		{"entries", "formula_ml", "REAL"},
		{"entries", "duration_min", "REAL"},
		{"entries", "deleted_at", "TEXT"},
		{"settings", "custom_event_kinds", "TEXT"},
		{"settings", "feed_goal_min", "INTEGER"},
		{"settings", "feed_goal_max", "INTEGER"},
		{"settings", "overnight_gap_min_hours", "REAL"},
		{"settings", "overnight_gap_max_hours", "REAL"},
		{"settings", "behind_target_mode", "TEXT"},
		{"settings", "entry_webhook_url", "TEXT"},
		{"settings", "default_tenant", "TEXT"},
		{"settings", "feed_due_push_url", "TEXT"},
		{"settings", "schedule_anchor_time", "TEXT"},
	}
	for _, col := range added {
		if err := s.ensureColumn(col.table, col.column, col.ddl); err != nil {
			return err
		}
	}

	if err := s.ensureSettingsRow(); err != nil {
		return err
	}
	return s.ensureDefaultReminders()
}

func (s *Store) ensureColumn(table, column, ddl string) error {
	rows, err := s.db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return fmt.Errorf("table_info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := s.db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, ddl)); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	s.log.Info().Str("table", table).Str("column", column).Msg("schema upgraded")
	return nil
}

func (s *Store) ensureSettingsRow() error {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM settings WHERE id = 1`).Scan(&id)
	if err == nil {
		return nil
	}
	now := timeutil.Format(timeutil.Now())
	_, err = s.db.Exec(`INSERT INTO settings (id, updated_at) VALUES (1, ?)`, now)
	return err
}

func (s *Store) ensureDefaultReminders() error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM reminders`).Scan(&count); err != nil {
		return err
	}
	if count >= 2 {
		return nil
	}

	now := timeutil.Now()
	createdAt := timeutil.Format(now)
	nextDueAt := timeutil.Format(now.Add(180 * time.Minute))
	defaults := []struct {
		name, kind, message string
	}{
		{"Nappy check", "nappy", "Time for a nappy check."},
		{"Feed", "food", "Time for a feed."},
	}
	for _, def := range defaults[count:] {
		_, err := s.db.Exec(`
			INSERT INTO reminders (name, kind, interval_min, message, active, last_sent_at, next_due_at, created_at, updated_at)
			VALUES (?, ?, 180, ?, 1, NULL, ?, ?, ?)`,
			def.name, def.kind, def.message, nextDueAt, createdAt, createdAt,
		)
		if err != nil {
			return fmt.Errorf("seed reminder %q: %w", def.name, err)
		}
	}
	return nil
}
