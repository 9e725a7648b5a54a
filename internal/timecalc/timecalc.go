package timecalc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the ISO calendar date accepted and printed everywhere.
	DateLayout = "2006-01-02"
	// ClockLayout is the minute-precision time of day.
	ClockLayout = "15:04"
)

// FormatError reports a malformed date, time or number string.
type FormatError struct {
	Field string
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ParseClockTime converts "HH:MM" into fractional hours, e.g. "01:30" -> 1.5.
func ParseClockTime(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, &FormatError{Field: "clock time", Value: s, Err: fmt.Errorf("want HH:MM")}
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, &FormatError{Field: "clock time", Value: s, Err: err}
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, &FormatError{Field: "clock time", Value: s, Err: err}
	}
	return float64(hour) + float64(minute)/60.0, nil
}

// FormatFractionalHours converts fractional hours into "HH:MM", e.g. 2.75 -> "02:45".
// Hours are never wrapped at 24, so durations longer than a day stay readable.
func FormatFractionalHours(f float64) string {
	total := int64(math.Round(f * 60))
	h, m := floorDivMod(total, 60)
	return fmt.Sprintf("%02d:%02d", h, m)
}

// HoursToDuration converts fractional hours into a minute-rounded duration.
func HoursToDuration(f float64) time.Duration {
	return time.Duration(math.Round(f*60)) * time.Minute
}

// DurationToHours converts a duration into fractional hours.
func DurationToHours(d time.Duration) float64 {
	return d.Hours()
}

// FormatDuration renders a duration for humans, dropping seconds.
// With forceFull it always spells out "H hour(s) M minute(s)"; otherwise it
// picks "M minutes", "H hours" or the compact "Hh Mm".
func FormatDuration(d time.Duration, forceFull bool) string {
	total := int64(d / time.Second)
	h, rem := floorDivMod(total, 3600)
	m, _ := floorDivMod(rem, 60)

	switch {
	case forceFull:
		return fmt.Sprintf("%d %s %d %s", h, plural(h, "hour"), m, plural(m, "minute"))
	case h == 0 && m != 0:
		return fmt.Sprintf("%d %s", m, plural(m, "minute"))
	case h != 0 && m == 0:
		return fmt.Sprintf("%d %s", h, plural(h, "hour"))
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// FormatTimedelta renders a duration as "H:MM:SS", prefixed with a day count
// for spans of a day or more and for negative spans ("-1 day, 23:30:00").
func FormatTimedelta(d time.Duration) string {
	micros := int64(d / time.Microsecond)
	days, rem := floorDivMod(micros, int64(24*time.Hour/time.Microsecond))
	secs, frac := floorDivMod(rem, 1_000_000)
	h, secs := floorDivMod(secs, 3600)
	m, s := floorDivMod(secs, 60)

	out := fmt.Sprintf("%d:%02d:%02d", h, m, s)
	if frac != 0 {
		out += fmt.Sprintf(".%06d", frac)
	}
	if days != 0 {
		word := "days"
		if days == 1 || days == -1 {
			word = "day"
		}
		out = fmt.Sprintf("%d %s, %s", days, word, out)
	}
	return out
}

// ParseDate parses a YYYY-MM-DD date at midnight UTC.
func ParseDate(value string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &FormatError{Field: "date", Value: value, Err: err}
	}
	return d, nil
}

// ParseClock parses an HH:MM time of day.
func ParseClock(value string) (hour, minute int, err error) {
	t, perr := time.Parse(ClockLayout, strings.TrimSpace(value))
	if perr != nil {
		return 0, 0, &FormatError{Field: "time", Value: value, Err: perr}
	}
	return t.Hour(), t.Minute(), nil
}

// At combines a calendar day with an HH:MM time of day.
func At(day time.Time, clock string) (time.Time, error) {
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	y, mo, d := day.Date()
	return time.Date(y, mo, d, h, m, 0, 0, time.UTC), nil
}

// Wall drops the location of t, keeping its wall clock reading, and truncates
// to whole seconds. Stored timestamps are always wall clock in UTC.
func Wall(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, mo, d := t.Date()
	return time.Date(y, mo, d, t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}

// Today returns the current local date as a wall-clock midnight.
func Today() time.Time {
	return StartOfDay(Wall(time.Now()))
}

// WeekRange returns the Monday 00:00 and the following Monday 00:00 of the
// ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := StartOfDay(t.AddDate(0, 0, -(wd - 1)))
	return monday, monday.AddDate(0, 0, 7)
}

// ISOWeekLabel returns a label like "2026-W09".
func ISOWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NextDay returns 00:00:00 of the following day, the exclusive end of t's day.
func NextDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func floorDivMod(a, b int64) (int64, int64) {
	q, r := a/b, a%b
	if r != 0 && (r < 0) != (b < 0) {
		q--
		r += b
	}
	return q, r
}

func plural(n int64, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
