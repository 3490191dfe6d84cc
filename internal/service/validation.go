package service

import (
	"math"
	"regexp"

	"babylog-sync-server/internal/domain"
)

// Entry kinds and bottle names share a deliberately small charset so they stay
// safe in file names, CSV cells and URLs.
var (
	kindPattern       = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 /-]*$`)
	bottleNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 /-]{0,47}$`)
)

const (
	maxKindLen          = 40
	maxEventTitleLen    = 80
	maxEventLocationLen = 120
	maxEventNotesLen    = 400
)

func validateKind(kind string) error {
	if kind == "" {
		return validationErrorf("kind is required")
	}
	if len(kind) > maxKindLen {
		return validationErrorf("kind must be at most %d characters", maxKindLen)
	}
	if !kindPattern.MatchString(kind) {
		return validationErrorf("kind %q contains invalid characters", kind)
	}
	return nil
}

func validateBottleName(name string) error {
	if name == "" {
		return validationErrorf("name is required")
	}
	if !bottleNamePattern.MatchString(name) {
		return validationErrorf("name %q contains invalid characters or is too long", name)
	}
	return nil
}

// validateAmount rejects negative, NaN and infinite values; nil means the
// field was not supplied and passes.
func validateAmount(field string, value *float64) error {
	if value == nil {
		return nil
	}
	if math.IsNaN(*value) || math.IsInf(*value, 0) {
		return validationErrorf("%s must be a finite number", field)
	}
	if *value < 0 {
		return validationErrorf("%s must not be negative", field)
	}
	return nil
}

func validateEntryAmounts(volumeML, expressedML, formulaML, durationMin *float64) error {
	if err := validateAmount("volume_ml", volumeML); err != nil {
		return err
	}
	if err := validateAmount("expressed_ml", expressedML); err != nil {
		return err
	}
	if err := validateAmount("formula_ml", formulaML); err != nil {
		return err
	}
	return validateAmount("duration_min", durationMin)
}

func validateEventCategory(category string) error {
	switch domain.EventCategory(category) {
	case domain.CategoryGroup, domain.CategoryMeetup, domain.CategoryHub, domain.CategoryOther:
		return nil
	}
	return validationErrorf("category %q is not one of group, meetup, hub, other", category)
}

func validateRecurrence(recurrence string) error {
	switch domain.Recurrence(recurrence) {
	case domain.RecurrenceNone, domain.RecurrenceWeekly:
		return nil
	}
	return validationErrorf("recurrence %q is not one of none, weekly", recurrence)
}

func validateEventText(title string, location, notes *string) error {
	if title == "" {
		return validationErrorf("title is required")
	}
	if len(title) > maxEventTitleLen {
		return validationErrorf("title must be at most %d characters", maxEventTitleLen)
	}
	if location != nil && len(*location) > maxEventLocationLen {
		return validationErrorf("location must be at most %d characters", maxEventLocationLen)
	}
	if notes != nil && len(*notes) > maxEventNotesLen {
		return validationErrorf("notes must be at most %d characters", maxEventNotesLen)
	}
	return nil
}
