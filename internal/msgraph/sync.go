package msgraph

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Tiliavir/timebook/internal/model"
	"github.com/Tiliavir/timebook/internal/report"
	"github.com/Tiliavir/timebook/internal/service"
	"github.com/Tiliavir/timebook/internal/timecalc"
)

// TimespanStore is the subset of the timespan service the importer writes
// through. *service.Service satisfies it.
type TimespanStore interface {
	ListRange(ctx context.Context, from, to time.Time) ([]model.Timespan, error)
	Create(ctx context.Context, in service.CreateInput) (model.Timespan, error)
	Update(ctx context.Context, id int64, patch model.Patch) (model.Timespan, error)
}

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int
	Skipped  int
	Updated  int
	Errors   int
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	DryRun bool
	// Timezone is the IANA zone event times are expressed in. Empty = UTC.
	Timezone string
	// DefaultDescription replaces an empty event subject.
	DefaultDescription string
	// Out receives one progress line per event.
	Out io.Writer
}

// LoadLocation resolves an IANA timezone name; "" means UTC.
func LoadLocation(tz string) (*time.Location, error) {
	if tz == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, &timecalc.FormatError{Field: "timezone", Value: tz, Err: err}
	}
	return loc, nil
}

// Window converts a wall-clock range of days into absolute instants in loc,
// suitable for the calendarView query.
func Window(from, to time.Time, loc *time.Location) (time.Time, time.Time) {
	at := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, loc)
	}
	return at(from), at(to)
}

// parseGraphTime parses a Graph API dateTime string in the given location.
// Graph returns times like "2026-02-27T09:00:00.0000000" without a zone suffix
// when a Prefer: outlook.timezone header is set.
func parseGraphTime(dt string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, dt); err == nil {
			return t.In(loc), nil
		}
	}
	// Graph returns fractional seconds: "2026-02-27T09:00:00.0000000"
	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &timecalc.FormatError{Field: "graph time", Value: dt}
}

// shouldSkip returns true if the event should not be imported.
func shouldSkip(event CalendarEvent) bool {
	if event.IsCancelled {
		return true
	}
	if event.IsAllDay {
		return true
	}
	if event.Sensitivity == "private" {
		return true
	}
	if event.ShowAs == "free" {
		return true
	}
	if event.Start.DateTime == "" || event.End.DateTime == "" {
		return true
	}
	return false
}

// MapEvent converts a Graph CalendarEvent into an unsaved timespan whose
// bounds are wall-clock times in loc.
func MapEvent(event CalendarEvent, loc *time.Location, defaultDescription string) (model.Timespan, error) {
	start, err := parseGraphTime(event.Start.DateTime, loc)
	if err != nil {
		return model.Timespan{}, fmt.Errorf("parsing start time: %w", err)
	}
	end, err := parseGraphTime(event.End.DateTime, loc)
	if err != nil {
		return model.Timespan{}, fmt.Errorf("parsing end time: %w", err)
	}

	desc := strings.TrimSpace(event.Subject)
	if desc == "" {
		desc = defaultDescription
	}
	ts := model.New(desc, start, end)
	return ts, ts.Validate()
}

// findMatch returns the stored timespan an event was imported as: same
// description, same start.
func findMatch(existing []model.Timespan, ts model.Timespan) *model.Timespan {
	for i := range existing {
		if existing[i].Description == ts.Description && existing[i].StartAt.Equal(ts.StartAt) {
			return &existing[i]
		}
	}
	return nil
}

// SyncEvents writes events into store. An event already imported with the
// same end is skipped; one whose end moved is updated. Records not created
// by the importer are never touched.
func SyncEvents(ctx context.Context, store TimespanStore, events []CalendarEvent, opts SyncOptions) (SyncResult, error) {
	var result SyncResult
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	loc, err := LoadLocation(opts.Timezone)
	if err != nil {
		return result, err
	}

	type mapped struct {
		ts  model.Timespan
		dur string
	}
	var todo []mapped
	for _, event := range events {
		if shouldSkip(event) {
			continue
		}
		ts, err := MapEvent(event, loc, opts.DefaultDescription)
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			result.Errors++
			continue
		}
		todo = append(todo, mapped{ts: ts, dur: timecalc.FormatDuration(ts.Duration(), false)})
	}
	if len(todo) == 0 {
		return result, nil
	}

	from, to := todo[0].ts.StartAt, todo[0].ts.StartAt
	for _, m := range todo[1:] {
		if m.ts.StartAt.Before(from) {
			from = m.ts.StartAt
		}
		if m.ts.StartAt.After(to) {
			to = m.ts.StartAt
		}
	}
	known, err := store.ListRange(ctx, timecalc.StartOfDay(from), timecalc.NextDay(to))
	if err != nil {
		return result, fmt.Errorf("loading existing timespans: %w", err)
	}

	for _, m := range todo {
		ts, dur := m.ts, m.dur
		found := findMatch(report.FilterByDay(known, ts.StartAt), ts)
		switch {
		case found != nil && found.EndAt.Equal(ts.EndAt):
			fmt.Fprintf(out, "  – Skipped:  %s (already exists)\n", ts.Description)
			result.Skipped++

		case found != nil:
			if !opts.DryRun {
				end := ts.EndAt
				updated, err := store.Update(ctx, found.ID, model.Patch{EndAt: &end})
				if err != nil {
					fmt.Fprintf(out, "  ! Error updating %q: %v\n", ts.Description, err)
					result.Errors++
					continue
				}
				replace(known, updated)
			}
			fmt.Fprintf(out, "  ↑ Updated:  %s (%s)\n", ts.Description, dur)
			result.Updated++

		default:
			if !opts.DryRun {
				created, err := store.Create(ctx, service.CreateInput{
					Description: ts.Description,
					StartAt:     ts.StartAt,
					EndAt:       ts.EndAt,
				})
				if err != nil {
					fmt.Fprintf(out, "  ! Error saving %q: %v\n", ts.Description, err)
					result.Errors++
					continue
				}
				known = append(known, created)
			}
			fmt.Fprintf(out, "  ✓ Imported: %s (%s)\n", ts.Description, dur)
			result.Imported++
		}
	}

	return result, nil
}

func replace(items []model.Timespan, ts model.Timespan) {
	for i := range items {
		if items[i].ID == ts.ID {
			items[i] = ts
			return
		}
	}
}
