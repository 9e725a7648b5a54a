package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/timebook/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{DSN: filepath.Join(t.TempDir(), "timebook.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 1, day, hour, minute, 0, 0, time.UTC)
}

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	s.now = func() time.Time { return at(5, 12, 0) }

	first, err := s.Create(ctx, model.New("Writing", at(1, 9, 0), at(1, 10, 30)))
	require.NoError(t, err)
	second, err := s.Create(ctx, model.New("Reading", at(1, 11, 0), at(1, 12, 0)))
	require.NoError(t, err)

	require.Positive(t, first.ID)
	require.NotEqual(t, first.ID, second.ID)
	require.False(t, first.IsArchived)
	require.True(t, first.CreatedAt.Equal(at(5, 12, 0)))

	got, err := s.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first, got)
	require.Equal(t, 90*time.Minute, got.Duration())
}

func TestCreateRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Create(ctx, model.New("", at(1, 9, 0), at(1, 10, 0)))
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = s.Create(ctx, model.New("x", at(1, 10, 0), at(1, 9, 0)))
	require.ErrorAs(t, err, &ve)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestListByDayIsHalfOpen(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	late, err := s.Create(ctx, model.New("late", at(1, 23, 30), at(2, 0, 30)))
	require.NoError(t, err)
	early, err := s.Create(ctx, model.New("early", at(1, 0, 0), at(1, 1, 0)))
	require.NoError(t, err)
	next, err := s.Create(ctx, model.New("midnight", at(2, 0, 0), at(2, 1, 0)))
	require.NoError(t, err)

	day1, err := s.ListByDay(ctx, at(1, 15, 0))
	require.NoError(t, err)
	require.Equal(t, []int64{early.ID, late.ID}, ids(day1))

	day2, err := s.ListByDay(ctx, at(2, 0, 0))
	require.NoError(t, err)
	require.Equal(t, []int64{next.ID}, ids(day2))

	empty, err := s.ListByDay(ctx, at(3, 0, 0))
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestListByDayIncludesArchived(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ts, err := s.Create(ctx, model.New("done", at(1, 9, 0), at(1, 10, 0)))
	require.NoError(t, err)
	_, err = s.Update(ctx, ts.ID, func(t *model.Timespan) error {
		t.IsArchived = true
		return nil
	})
	require.NoError(t, err)

	items, err := s.ListByDay(ctx, at(1, 0, 0))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.True(t, items[0].IsArchived)
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), 42)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ts, err := s.Create(ctx, model.New("before", at(1, 9, 0), at(1, 10, 0)))
	require.NoError(t, err)
	s.now = func() time.Time { return at(9, 9, 9) }

	updated, err := s.Update(ctx, ts.ID, func(t *model.Timespan) error {
		t.Description = "after"
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "after", updated.Description)
	require.True(t, updated.StartAt.Equal(ts.StartAt))
	require.True(t, updated.EndAt.Equal(ts.EndAt))
	require.True(t, updated.UpdatedAt.Equal(at(9, 9, 9)))
	require.True(t, updated.CreatedAt.Equal(ts.CreatedAt))

	got, err := s.Get(ctx, ts.ID)
	require.NoError(t, err)
	require.Equal(t, updated, got)
}

func TestUpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ts, err := s.Create(ctx, model.New("keep", at(1, 9, 0), at(1, 10, 0)))
	require.NoError(t, err)

	_, err = s.Update(ctx, ts.ID, func(t *model.Timespan) error {
		t.EndAt = at(1, 8, 0)
		return nil
	})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)

	boom := errors.New("boom")
	_, err = s.Update(ctx, ts.ID, func(t *model.Timespan) error {
		t.Description = "changed"
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, ts.ID)
	require.NoError(t, err)
	require.Equal(t, ts, got)

	_, err = s.Update(ctx, 999, func(*model.Timespan) error { return nil })
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	ts, err := s.Create(ctx, model.New("gone", at(1, 9, 0), at(1, 10, 0)))
	require.NoError(t, err)

	deleted, err := s.Delete(ctx, ts.ID)
	require.NoError(t, err)
	require.Equal(t, ts, deleted)

	_, err = s.Get(ctx, ts.ID)
	require.ErrorIs(t, err, model.ErrNotFound)

	_, err = s.Delete(ctx, ts.ID)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteArchived(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var archivedIDs []int64
	for i, desc := range []string{"a", "b", "c", "d"} {
		ts, err := s.Create(ctx, model.New(desc, at(1, 9+i, 0), at(1, 10+i, 0)))
		require.NoError(t, err)
		if i%2 == 0 {
			_, err = s.Update(ctx, ts.ID, func(t *model.Timespan) error {
				t.IsArchived = true
				return nil
			})
			require.NoError(t, err)
			archivedIDs = append(archivedIDs, ts.ID)
		}
	}

	archived, err := s.ListArchived(ctx)
	require.NoError(t, err)
	require.Equal(t, archivedIDs, ids(archived))

	deleted, err := s.DeleteArchived(ctx)
	require.NoError(t, err)
	require.Equal(t, archivedIDs, ids(deleted))

	rest, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	for _, ts := range rest {
		require.False(t, ts.IsArchived)
	}

	deleted, err = s.DeleteArchived(ctx)
	require.NoError(t, err)
	require.Empty(t, deleted)
}

func TestImportKeepsArchivedFlag(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	done := model.New("done", at(1, 9, 0), at(1, 10, 0))
	done.IsArchived = true
	open := model.New("open", at(2, 9, 0), at(2, 10, 0))

	out, err := s.Import(ctx, []model.Timespan{done, open})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.True(t, out[0].IsArchived)
	require.False(t, out[1].IsArchived)

	_, err = s.Import(ctx, []model.Timespan{open, model.New("", at(3, 9, 0), at(3, 10, 0))})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "timebook.db")

	s, err := Open(ctx, Options{DSN: path})
	require.NoError(t, err)
	ts, err := s.Create(ctx, model.New("persisted", at(1, 9, 0), at(1, 10, 0)))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, Options{Driver: DriverSQLite, DSN: path})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, ts.ID)
	require.NoError(t, err)
	require.Equal(t, "persisted", got.Description)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "oracle"})
	require.Error(t, err)
}

func TestRebind(t *testing.T) {
	sqlite := &Store{dialect: dialects[DriverSQLite]}
	pg := &Store{dialect: dialects[DriverPostgres]}

	q := `UPDATE t SET a = ?, b = ? WHERE id = ?`
	require.Equal(t, q, sqlite.rebind(q))
	require.Equal(t, `UPDATE t SET a = $1, b = $2 WHERE id = $3`, pg.rebind(q))
}

func TestListOrderBreaksTiesOnStart(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	long, err := s.Create(ctx, model.New("long", at(1, 10, 0), at(1, 12, 0)))
	require.NoError(t, err)
	short, err := s.Create(ctx, model.New("short", at(1, 10, 0), at(1, 11, 0)))
	require.NoError(t, err)
	early, err := s.Create(ctx, model.New("early", at(1, 9, 0), at(1, 9, 30)))
	require.NoError(t, err)

	day, err := s.ListByDay(ctx, at(1, 0, 0))
	require.NoError(t, err)
	require.Equal(t, []int64{early.ID, long.ID, short.ID}, ids(day))

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{early.ID, short.ID, long.ID}, ids(all))

	archivedLong := model.New("archived long", at(2, 8, 0), at(2, 10, 0))
	archivedLong.IsArchived = true
	archivedShort := model.New("archived short", at(2, 8, 0), at(2, 9, 0))
	archivedShort.IsArchived = true
	imported, err := s.Import(ctx, []model.Timespan{archivedLong, archivedShort})
	require.NoError(t, err)
	require.Len(t, imported, 2)

	archived, err := s.ListArchived(ctx)
	require.NoError(t, err)
	require.Equal(t, ids(imported), ids(archived))
}

func ids(items []model.Timespan) []int64 {
	out := make([]int64, 0, len(items))
	for _, ts := range items {
		out = append(out, ts.ID)
	}
	return out
}
