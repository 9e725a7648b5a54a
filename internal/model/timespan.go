package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/Tiliavir/timebook/internal/timecalc"
)

// Timespan is a single recorded interval of time with a description.
// Start and end are wall-clock timestamps; duration and times of day are
// always derived from them, never stored.
type Timespan struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	IsArchived  bool      `json:"is_archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// New builds an unsaved, non-archived Timespan. It does not validate; call
// Validate before persisting.
func New(description string, startAt, endAt time.Time) Timespan {
	return Timespan{
		Description: description,
		StartAt:     timecalc.Wall(startAt),
		EndAt:       timecalc.Wall(endAt),
	}
}

// Duration returns EndAt - StartAt.
func (t Timespan) Duration() time.Duration {
	return t.EndAt.Sub(t.StartAt)
}

// StartTime returns the start time of day as HH:MM.
func (t Timespan) StartTime() string {
	return t.StartAt.Format(timecalc.ClockLayout)
}

// EndTime returns the end time of day as HH:MM.
func (t Timespan) EndTime() string {
	return t.EndAt.Format(timecalc.ClockLayout)
}

// Day returns the calendar day the timespan starts on, at midnight.
func (t Timespan) Day() time.Time {
	return timecalc.StartOfDay(t.StartAt)
}

// String renders the one-line listing used by the CLI, e.g.
// "2024-01-01 from 09:00 to 10:30 for 1:30:00: Writing [id=1]".
func (t Timespan) String() string {
	return fmt.Sprintf("%s from %s to %s for %s: %s [id=%d]",
		t.StartAt.Format(timecalc.DateLayout),
		t.StartTime(),
		t.EndTime(),
		timecalc.FormatTimedelta(t.Duration()),
		t.Description,
		t.ID,
	)
}

// Validate checks the invariants every stored Timespan must hold.
func (t Timespan) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if t.StartAt.IsZero() {
		return &ValidationError{Field: "start_at", Reason: "is required"}
	}
	if t.EndAt.IsZero() {
		return &ValidationError{Field: "end_at", Reason: "is required"}
	}
	if t.EndAt.Before(t.StartAt) {
		return &ValidationError{Field: "end_at", Reason: "must not be before start_at"}
	}
	return nil
}

// Patch is a partial update; nil fields keep their current value.
type Patch struct {
	Description *string
	StartAt     *time.Time
	EndAt       *time.Time
	IsArchived  *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Description == nil && p.StartAt == nil && p.EndAt == nil && p.IsArchived == nil
}

// Apply copies every non-nil field of p onto t.
func (t *Timespan) Apply(p Patch) {
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.StartAt != nil {
		t.StartAt = timecalc.Wall(*p.StartAt)
	}
	if p.EndAt != nil {
		t.EndAt = timecalc.Wall(*p.EndAt)
	}
	if p.IsArchived != nil {
		t.IsArchived = *p.IsArchived
	}
}

// Reschedule returns the bounds t would have after moving it to day and
// setting new times of day. A zero day keeps the stored day; an empty clock
// keeps the stored time. The end keeps its distance in days from the start,
// so a span that runs past midnight still does after the move.
func (t Timespan) Reschedule(day time.Time, startClock, endClock string) (time.Time, time.Time, error) {
	from := t.Day()
	to := from
	if !day.IsZero() {
		to = timecalc.StartOfDay(timecalc.Wall(day))
	}
	shift := int(to.Sub(from) / (24 * time.Hour))

	start := t.StartAt.AddDate(0, 0, shift)
	if startClock != "" && startClock != t.StartTime() {
		var err error
		if start, err = timecalc.At(to, startClock); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	end := t.EndAt.AddDate(0, 0, shift)
	if endClock != "" && endClock != t.EndTime() {
		var err error
		if end, err = timecalc.At(end, endClock); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return start, end, nil
}
