// Package report aggregates timespans for daily and full listings.
package report

import (
	"sort"
	"time"

	"github.com/Tiliavir/timebook/internal/model"
	"github.com/Tiliavir/timebook/internal/timecalc"
)

// Day is one bucket of a report: every timespan starting on Date.
type Day struct {
	Date      time.Time
	Timespans []model.Timespan
}

// Total sums the durations of the bucket.
func (d Day) Total() time.Duration {
	return SumDurations(d.Timespans)
}

// SumDurations adds up the duration of every record, starting from zero.
func SumDurations(records []model.Timespan) time.Duration {
	var total time.Duration
	for _, r := range records {
		total += r.Duration()
	}
	return total
}

// FilterByDay keeps the records whose start falls in [day 00:00, day+1 00:00),
// ordered by start then id.
func FilterByDay(records []model.Timespan, day time.Time) []model.Timespan {
	from := timecalc.StartOfDay(day)
	to := timecalc.NextDay(day)
	out := make([]model.Timespan, 0, len(records))
	for _, r := range records {
		if !r.StartAt.Before(from) && r.StartAt.Before(to) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SortForReport orders records by day descending, then start, end and id
// ascending.
func SortForReport(records []model.Timespan) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if da, db := a.Day(), b.Day(); !da.Equal(db) {
			return da.After(db)
		}
		if !a.StartAt.Equal(b.StartAt) {
			return a.StartAt.Before(b.StartAt)
		}
		if !a.EndAt.Equal(b.EndAt) {
			return a.EndAt.Before(b.EndAt)
		}
		return a.ID < b.ID
	})
}

// GroupByDay buckets records by the date of their start. Buckets appear in
// order of first occurrence and keep the input order of their records.
func GroupByDay(records []model.Timespan) []Day {
	var days []Day
	index := map[string]int{}
	for _, r := range records {
		key := r.StartAt.Format(timecalc.DateLayout)
		i, ok := index[key]
		if !ok {
			i = len(days)
			index[key] = i
			days = append(days, Day{Date: r.Day()})
		}
		days[i].Timespans = append(days[i].Timespans, r)
	}
	return days
}

// Build sorts a copy of records for display and groups it by day.
func Build(records []model.Timespan) []Day {
	sorted := make([]model.Timespan, len(records))
	copy(sorted, records)
	SortForReport(sorted)
	return GroupByDay(sorted)
}
