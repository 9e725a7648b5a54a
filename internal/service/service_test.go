package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/timebook/internal/model"
	"github.com/Tiliavir/timebook/internal/report"
	"github.com/Tiliavir/timebook/internal/service"
	"github.com/Tiliavir/timebook/internal/storage"
)

func newService(t *testing.T) *service.Service {
	t.Helper()
	store, err := storage.Open(context.Background(), storage.Options{DSN: filepath.Join(t.TempDir(), "timebook.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return service.New(store, nil)
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 1, day, hour, minute, 0, 0, time.UTC)
}

func create(t *testing.T, svc *service.Service, desc string, start, end time.Time) model.Timespan {
	t.Helper()
	ts, err := svc.Create(context.Background(), service.CreateInput{Description: desc, StartAt: start, EndAt: end})
	require.NoError(t, err)
	return ts
}

func TestCreateScenario(t *testing.T) {
	svc := newService(t)
	ts := create(t, svc, "Writing", at(1, 9, 0), at(1, 10, 30))

	require.False(t, ts.IsArchived)
	require.Equal(t, 90*time.Minute, ts.Duration())

	got, err := svc.Get(context.Background(), ts.ID)
	require.NoError(t, err)
	require.Equal(t, ts.String(), got.String())
}

func TestCreateRejectsBeforeWriting(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Create(ctx, service.CreateInput{Description: " ", StartAt: at(1, 9, 0), EndAt: at(1, 10, 0)})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, "description", ve.Field)

	items, err := svc.ListByDay(ctx, at(1, 0, 0))
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestDayTotalMatchesRecords(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	create(t, svc, "a", at(1, 9, 0), at(1, 10, 0))
	create(t, svc, "b", at(1, 13, 0), at(1, 13, 45))
	create(t, svc, "other day", at(2, 9, 0), at(2, 12, 0))

	items, err := svc.ListByDay(ctx, at(1, 0, 0))
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 105*time.Minute, report.SumDurations(items))
}

func TestUpdateOnlyDescription(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	ts := create(t, svc, "before", at(1, 9, 0), at(1, 10, 0))

	desc := "after"
	updated, err := svc.Update(ctx, ts.ID, model.Patch{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, "after", updated.Description)
	require.True(t, updated.StartAt.Equal(ts.StartAt))
	require.True(t, updated.EndAt.Equal(ts.EndAt))
	require.Equal(t, ts.IsArchived, updated.IsArchived)
}

func TestUpdateEmptyPatchIsNoop(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	ts := create(t, svc, "same", at(1, 9, 0), at(1, 10, 0))

	got, err := svc.Update(ctx, ts.ID, model.Patch{})
	require.NoError(t, err)
	require.Equal(t, ts, got)

	_, err = svc.Update(ctx, 404, model.Patch{})
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdateRejectsInvertedBounds(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	ts := create(t, svc, "x", at(1, 9, 0), at(1, 10, 0))

	end := at(1, 8, 0)
	_, err := svc.Update(ctx, ts.ID, model.Patch{EndAt: &end})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)

	got, err := svc.Get(ctx, ts.ID)
	require.NoError(t, err)
	require.True(t, got.EndAt.Equal(ts.EndAt))
}

func TestToggleTwiceRestores(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	ts := create(t, svc, "x", at(1, 9, 0), at(1, 10, 0))

	once, err := svc.ToggleArchived(ctx, ts.ID)
	require.NoError(t, err)
	require.True(t, once.IsArchived)

	twice, err := svc.ToggleArchived(ctx, ts.ID)
	require.NoError(t, err)
	require.False(t, twice.IsArchived)

	_, err = svc.ToggleArchived(ctx, 404)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	ts := create(t, svc, "gone", at(1, 9, 0), at(1, 10, 0))

	deleted, err := svc.Delete(ctx, ts.ID)
	require.NoError(t, err)
	require.Equal(t, ts.ID, deleted.ID)

	_, err = svc.Get(ctx, ts.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestPruneArchived(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	keep := create(t, svc, "keep", at(1, 9, 0), at(1, 10, 0))
	a := create(t, svc, "a", at(1, 10, 0), at(1, 11, 0))
	b := create(t, svc, "b", at(2, 10, 0), at(2, 11, 0))
	for _, id := range []int64{a.ID, b.ID} {
		_, err := svc.ToggleArchived(ctx, id)
		require.NoError(t, err)
	}

	preview, err := svc.PruneArchived(ctx, false)
	require.NoError(t, err)
	require.True(t, preview.DryRun)
	require.Len(t, preview.Items, 2)

	days, err := svc.Report(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, countRecords(days))

	pruned, err := svc.PruneArchived(ctx, true)
	require.NoError(t, err)
	require.False(t, pruned.DryRun)
	require.ElementsMatch(t, []int64{a.ID, b.ID}, []int64{pruned.Items[0].ID, pruned.Items[1].ID})

	days, err = svc.Report(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, countRecords(days))
	require.Equal(t, keep.ID, days[0].Timespans[0].ID)
}

func TestReportOrdersNewestDayFirst(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	create(t, svc, "old", at(1, 9, 0), at(1, 10, 0))
	create(t, svc, "new late", at(3, 14, 0), at(3, 15, 0))
	create(t, svc, "new early", at(3, 8, 0), at(3, 8, 30))

	days, err := svc.Report(ctx)
	require.NoError(t, err)
	require.Len(t, days, 2)
	require.True(t, days[0].Date.Equal(at(3, 0, 0)))
	require.Equal(t, "new early", days[0].Timespans[0].Description)
	require.Equal(t, 90*time.Minute, days[0].Total())
}

func TestImport(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	empty, err := svc.Import(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, empty)

	done := model.New("done", at(1, 9, 0), at(1, 10, 0))
	done.IsArchived = true
	out, err := svc.Import(ctx, []model.Timespan{done})
	require.NoError(t, err)
	require.Len(t, out, 1)

	archived, err := svc.ListArchived(ctx)
	require.NoError(t, err)
	require.Len(t, archived, 1)
}

func countRecords(days []report.Day) int {
	n := 0
	for _, d := range days {
		n += len(d.Timespans)
	}
	return n
}
