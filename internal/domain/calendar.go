package domain

import "time"

type EventCategory string

const (
	CategoryGroup  EventCategory = "group"
	CategoryMeetup EventCategory = "meetup"
	CategoryHub    EventCategory = "hub"
	CategoryOther  EventCategory = "other"
)

type Recurrence string

const (
	RecurrenceNone   Recurrence = "none"
	RecurrenceWeekly Recurrence = "weekly"
)

// CalendarEvent is a scheduled occurrence, possibly repeating weekly. Date and
// time fields are local civil values ("2006-01-02", "15:04"), not instants.
type CalendarEvent struct {
	ID              int64         `json:"id"`
	Title           string        `json:"title"`
	Date            string        `json:"date"`
	StartTime       string        `json:"start_time"`
	EndTime         *string       `json:"end_time"`
	Location        *string       `json:"location"`
	Notes           *string       `json:"notes"`
	Category        EventCategory `json:"category"`
	Recurrence      Recurrence    `json:"recurrence"`
	RecurrenceUntil *string       `json:"recurrence_until"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	DeletedAt       *time.Time    `json:"deleted_at"`
}

// Occurrence is one concrete date produced by expanding an event over a range.
type Occurrence struct {
	CalendarEvent
	OccurrenceDate string `json:"occurrence_date"`
}

type CreateCalendarEventRequest struct {
	Title           string  `json:"title" validate:"required"`
	Date            string  `json:"date" validate:"required,civildate"`
	StartTime       string  `json:"start_time" validate:"required,clocktime"`
	EndTime         *string `json:"end_time"`
	Location        *string `json:"location"`
	Notes           *string `json:"notes"`
	Category        string  `json:"category" validate:"required"`
	Recurrence      string  `json:"recurrence" validate:"required"`
	RecurrenceUntil *string `json:"recurrence_until"`
}

type UpdateCalendarEventRequest struct {
	Title           Field[string]  `json:"title"`
	Date            Field[string]  `json:"date"`
	StartTime       Field[string]  `json:"start_time"`
	EndTime         Field[*string] `json:"end_time"`
	Location        Field[*string] `json:"location"`
	Notes           Field[*string] `json:"notes"`
	Category        Field[string]  `json:"category"`
	Recurrence      Field[string]  `json:"recurrence"`
	RecurrenceUntil Field[*string] `json:"recurrence_until"`
}

type CalendarEventPatch struct {
	Title           Field[string]
	Date            Field[string]
	StartTime       Field[string]
	EndTime         Field[*string]
	Location        Field[*string]
	Notes           Field[*string]
	Category        Field[EventCategory]
	Recurrence      Field[Recurrence]
	RecurrenceUntil Field[*string]
	UpdatedAt       Field[time.Time]
}
