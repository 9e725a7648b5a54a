// Package legacy adapts the retired fractional-hour "timesheet" schema
// (day + end time + duration, both in hours) to canonical timespans.
package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Tiliavir/timebook/internal/model"
	"github.com/Tiliavir/timebook/internal/timecalc"
)

// Timesheet is a row of the retired schema. EndTime and Duration are
// fractional hours, e.g. 14.5 is 14:30.
type Timesheet struct {
	ID          int64
	Description string
	Day         time.Time
	EndTime     float64
	Duration    float64
	IsChecked   bool
}

// NewTimesheet parses the string inputs the old web form submitted.
func NewTimesheet(description, day, endTime, duration string) (Timesheet, error) {
	d, err := timecalc.ParseDate(day)
	if err != nil {
		return Timesheet{}, err
	}
	end, err := timecalc.ParseClockTime(endTime)
	if err != nil {
		return Timesheet{}, err
	}
	dur, err := timecalc.ParseClockTime(duration)
	if err != nil {
		return Timesheet{}, err
	}
	return Timesheet{Description: description, Day: d, EndTime: end, Duration: dur}, nil
}

// StartTime is EndTime - Duration in fractional hours.
func (t Timesheet) StartTime() float64 {
	return t.EndTime - t.Duration
}

// String mirrors the old listing: "day start-end (duration) description".
func (t Timesheet) String() string {
	return fmt.Sprintf("%s %s-%s (%s) %s",
		t.Day.Format(timecalc.DateLayout),
		timecalc.FormatFractionalHours(t.StartTime()),
		timecalc.FormatFractionalHours(t.EndTime),
		timecalc.FormatFractionalHours(t.Duration),
		t.Description,
	)
}

// ToTimespan converts the row into a canonical, unsaved timespan. The checked
// flag becomes the archived flag.
func (t Timesheet) ToTimespan() model.Timespan {
	day := timecalc.StartOfDay(timecalc.Wall(t.Day))
	ts := model.New(t.Description,
		day.Add(timecalc.HoursToDuration(t.StartTime())),
		day.Add(timecalc.HoursToDuration(t.EndTime)),
	)
	ts.IsArchived = t.IsChecked
	return ts
}

// FromTimespan converts a canonical timespan into the retired shape. An end
// on a later day yields an EndTime past 24.
func FromTimespan(ts model.Timespan) Timesheet {
	day := ts.Day()
	return Timesheet{
		ID:          ts.ID,
		Description: ts.Description,
		Day:         day,
		EndTime:     timecalc.DurationToHours(ts.EndAt.Sub(day)),
		Duration:    timecalc.DurationToHours(ts.Duration()),
		IsChecked:   ts.IsArchived,
	}
}

// ReadAll loads every row of the retired "timesheet" table, ordered by day,
// end time and id.
func ReadAll(ctx context.Context, db *sql.DB) ([]Timesheet, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, description, day, end_time, duration, is_checked
		FROM timesheet
		ORDER BY day, end_time, id
	`)
	if err != nil {
		return nil, fmt.Errorf("reading timesheet table: %w", err)
	}
	defer rows.Close()

	var sheets []Timesheet
	for rows.Next() {
		var (
			t   Timesheet
			day string
		)
		if err := rows.Scan(&t.ID, &t.Description, &day, &t.EndTime, &t.Duration, &t.IsChecked); err != nil {
			return nil, fmt.Errorf("scanning timesheet row: %w", err)
		}
		// The date column may carry a time suffix depending on the writer.
		if len(day) > len(timecalc.DateLayout) {
			day = day[:len(timecalc.DateLayout)]
		}
		t.Day, err = timecalc.ParseDate(strings.TrimSpace(day))
		if err != nil {
			return nil, fmt.Errorf("timesheet %d: %w", t.ID, err)
		}
		sheets = append(sheets, t)
	}
	return sheets, rows.Err()
}
