package timeutil

import (
	"fmt"
	"strings"
	"time"
)

// Layout is the canonical stored form for all timestamps: UTC with a fixed
// six-digit fraction so lexicographic order matches chronological order.
const Layout = "2006-01-02T15:04:05.000000Z07:00"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

func Now() time.Time {
	return time.Now().UTC()
}

// Format renders t in the canonical stored form.
func Format(t time.Time) string {
	return t.UTC().Format(Layout)
}

func FormatPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := Format(*t)
	return &s
}

// Parse accepts the ISO-8601 shapes clients actually send: a trailing "Z",
// an explicit offset, a space instead of "T", or no zone at all (read as UTC).
func Parse(value string) (time.Time, error) {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("timestamp is required")
	}
	if !strings.Contains(cleaned, "T") && strings.Contains(cleaned, " ") {
		cleaned = strings.Replace(cleaned, " ", "T", 1)
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp must be ISO-8601")
}

// ParseCursor is Parse with the lenient handling sync clients need: a "+00:00"
// offset that arrived URL-decoded as a space is repaired before parsing.
func ParseCursor(value string) (time.Time, error) {
	cleaned := strings.TrimSpace(value)
	if strings.Count(cleaned, " ") == 1 && strings.Contains(cleaned, "T") {
		cleaned = strings.Replace(cleaned, " ", "+", 1)
	}
	t, err := Parse(cleaned)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp filter")
	}
	return t, nil
}

// ParseStored reads a timestamp previously written with Format.
func ParseStored(value string) (time.Time, error) {
	t, err := Parse(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed stored timestamp %q: %w", value, err)
	}
	return t, nil
}

func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD")
	}
	return t, nil
}
