package report_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/timebook/internal/model"
	"github.com/Tiliavir/timebook/internal/report"
)

func span(id int64, day, startH, startM, endH, endM int) model.Timespan {
	ts := model.New("task", time.Date(2024, 1, day, startH, startM, 0, 0, time.UTC),
		time.Date(2024, 1, day, endH, endM, 0, 0, time.UTC))
	ts.ID = id
	return ts
}

func fixture() []model.Timespan {
	return []model.Timespan{
		span(1, 1, 9, 0, 10, 30),
		span(2, 2, 8, 0, 8, 45),
		span(3, 1, 13, 0, 14, 0),
		span(4, 3, 23, 0, 23, 59),
		span(5, 1, 9, 0, 9, 15),
		span(6, 2, 8, 0, 8, 45),
	}
}

func TestSumDurations(t *testing.T) {
	require.Equal(t, time.Duration(0), report.SumDurations(nil))
	require.Equal(t, time.Duration(0), report.SumDurations([]model.Timespan{}))

	total := report.SumDurations(fixture())
	want := 90*time.Minute + 45*time.Minute + time.Hour + 59*time.Minute + 15*time.Minute + 45*time.Minute
	require.Equal(t, want, total)
}

func TestFilterByDayMatchesStartDate(t *testing.T) {
	records := fixture()
	day := time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC)

	got := report.FilterByDay(records, day)
	ids := make([]int64, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	// 09:00 (id 1) and 09:00 (id 5) tie on start and are ordered by id.
	require.Equal(t, []int64{1, 5, 3}, ids)

	var want time.Duration
	for _, r := range records {
		if r.StartAt.Day() == 1 {
			want += r.EndAt.Sub(r.StartAt)
		}
	}
	require.Equal(t, want, report.SumDurations(got))
}

func TestGroupByDayKeepsEveryRecordOnce(t *testing.T) {
	records := fixture()
	days := report.GroupByDay(records)

	seen := map[int64]int{}
	for _, d := range days {
		for _, r := range d.Timespans {
			seen[r.ID]++
			require.True(t, r.Day().Equal(d.Date), "record %d in bucket %s", r.ID, d.Date)
		}
	}
	require.Len(t, seen, len(records))
	for id, n := range seen {
		require.Equal(t, 1, n, "record %d seen %d times", id, n)
	}

	// Bucket order is first appearance, record order is input order.
	require.Len(t, days, 3)
	require.Equal(t, 1, days[0].Date.Day())
	require.Equal(t, []int64{1, 3, 5}, idsOf(days[0].Timespans))
}

func TestBuildOrdersForReport(t *testing.T) {
	days := report.Build(fixture())

	require.Len(t, days, 3)
	require.Equal(t, 3, days[0].Date.Day())
	require.Equal(t, 2, days[1].Date.Day())
	require.Equal(t, 1, days[2].Date.Day())

	require.Equal(t, []int64{2, 6}, idsOf(days[1].Timespans))
	// Same start: shorter end first.
	require.Equal(t, []int64{5, 1, 3}, idsOf(days[2].Timespans))
	require.Equal(t, 2*time.Hour+45*time.Minute, days[2].Total())
}

func TestBuildDoesNotReorderInput(t *testing.T) {
	records := fixture()
	_ = report.Build(records)
	require.Equal(t, []int64{1, 2, 3, 4, 5, 6}, idsOf(records))
}

func idsOf(records []model.Timespan) []int64 {
	out := make([]int64, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
