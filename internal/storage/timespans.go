package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Tiliavir/timebook/internal/model"
	"github.com/Tiliavir/timebook/internal/timecalc"
)

const timespanColumns = `id, description, start_at, end_at, is_archived, created_at, updated_at`

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTimespan(s scanner) (model.Timespan, error) {
	var ts model.Timespan
	err := s.Scan(&ts.ID, &ts.Description, &ts.StartAt, &ts.EndAt, &ts.IsArchived, &ts.CreatedAt, &ts.UpdatedAt)
	if err != nil {
		return model.Timespan{}, err
	}
	ts.StartAt = timecalc.Wall(ts.StartAt)
	ts.EndAt = timecalc.Wall(ts.EndAt)
	ts.CreatedAt = timecalc.Wall(ts.CreatedAt)
	ts.UpdatedAt = timecalc.Wall(ts.UpdatedAt)
	return ts, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const (
	byStart        = `start_at, id`
	byStartThenEnd = `start_at, end_at, id`
)

func (s *Store) list(ctx context.Context, q querier, order, where string, args ...any) ([]model.Timespan, error) {
	query := `SELECT ` + timespanColumns + ` FROM timespans`
	if where != "" {
		query += ` WHERE ` + where
	}
	query += ` ORDER BY ` + order

	rows, err := q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query timespans: %w", err)
	}
	defer rows.Close()

	items := []model.Timespan{}
	for rows.Next() {
		ts, err := scanTimespan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan timespan: %w", err)
		}
		items = append(items, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timespans: %w", err)
	}
	return items, nil
}

// ListByDay returns every timespan that starts on day, archived or not,
// ordered by start time.
func (s *Store) ListByDay(ctx context.Context, day time.Time) ([]model.Timespan, error) {
	from := timecalc.StartOfDay(timecalc.Wall(day))
	return s.list(ctx, s.db, byStart, `start_at >= ? AND start_at < ?`, from, timecalc.NextDay(from))
}

// ListRange returns the timespans starting in [from, to).
func (s *Store) ListRange(ctx context.Context, from, to time.Time) ([]model.Timespan, error) {
	return s.list(ctx, s.db, byStartThenEnd, `start_at >= ? AND start_at < ?`, timecalc.Wall(from), timecalc.Wall(to))
}

// ListArchived returns all archived timespans.
func (s *Store) ListArchived(ctx context.Context) ([]model.Timespan, error) {
	return s.list(ctx, s.db, byStart, `is_archived = ?`, true)
}

// ListAll returns every stored timespan.
func (s *Store) ListAll(ctx context.Context) ([]model.Timespan, error) {
	return s.list(ctx, s.db, byStartThenEnd, "")
}

// Get returns the timespan with the given id, or an error wrapping
// model.ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (model.Timespan, error) {
	return s.get(ctx, s.db, id)
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) get(ctx context.Context, q rowQuerier, id int64) (model.Timespan, error) {
	row := q.QueryRowContext(ctx, s.rebind(`SELECT `+timespanColumns+` FROM timespans WHERE id = ?`), id)
	ts, err := scanTimespan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Timespan{}, fmt.Errorf("timespan %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.Timespan{}, fmt.Errorf("get timespan %d: %w", id, err)
	}
	return ts, nil
}

// Create validates and inserts ts, returning it with its assigned id and
// timestamps. The incoming ID is ignored.
func (s *Store) Create(ctx context.Context, ts model.Timespan) (model.Timespan, error) {
	ts = model.New(ts.Description, ts.StartAt, ts.EndAt)
	if err := ts.Validate(); err != nil {
		return model.Timespan{}, err
	}
	now := s.now()
	ts.CreatedAt, ts.UpdatedAt = now, now

	err := s.transaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, s.rebind(`
			INSERT INTO timespans (description, start_at, end_at, is_archived, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`),
			ts.Description, ts.StartAt, ts.EndAt, false, ts.CreatedAt, ts.UpdatedAt)
		return row.Scan(&ts.ID)
	})
	if err != nil {
		return model.Timespan{}, fmt.Errorf("insert timespan: %w", err)
	}
	return ts, nil
}

// Import inserts a batch of already-built timespans in one transaction,
// keeping their archived flag. Either all rows are written or none.
func (s *Store) Import(ctx context.Context, items []model.Timespan) ([]model.Timespan, error) {
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	now := s.now()
	out := make([]model.Timespan, 0, len(items))
	err := s.transaction(ctx, func(tx *sql.Tx) error {
		for _, it := range items {
			ts := model.New(it.Description, it.StartAt, it.EndAt)
			ts.IsArchived = it.IsArchived
			ts.CreatedAt, ts.UpdatedAt = now, now
			row := tx.QueryRowContext(ctx, s.rebind(`
				INSERT INTO timespans (description, start_at, end_at, is_archived, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)
				RETURNING id`),
				ts.Description, ts.StartAt, ts.EndAt, ts.IsArchived, ts.CreatedAt, ts.UpdatedAt)
			if err := row.Scan(&ts.ID); err != nil {
				return err
			}
			out = append(out, ts)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("import timespans: %w", err)
	}
	return out, nil
}

// Update loads the timespan, lets fn modify it, validates the result and
// saves it, all in one transaction. If fn or validation fails nothing is
// written.
func (s *Store) Update(ctx context.Context, id int64, fn func(*model.Timespan) error) (model.Timespan, error) {
	var updated model.Timespan
	err := s.transaction(ctx, func(tx *sql.Tx) error {
		ts, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(&ts); err != nil {
			return err
		}
		ts.StartAt = timecalc.Wall(ts.StartAt)
		ts.EndAt = timecalc.Wall(ts.EndAt)
		if err := ts.Validate(); err != nil {
			return err
		}
		ts.UpdatedAt = s.now()

		_, err = tx.ExecContext(ctx, s.rebind(`
			UPDATE timespans
			SET description = ?, start_at = ?, end_at = ?, is_archived = ?, updated_at = ?
			WHERE id = ?`),
			ts.Description, ts.StartAt, ts.EndAt, ts.IsArchived, ts.UpdatedAt, id)
		if err != nil {
			return fmt.Errorf("update timespan %d: %w", id, err)
		}
		updated = ts
		return nil
	})
	if err != nil {
		return model.Timespan{}, err
	}
	return updated, nil
}

// Delete removes the timespan and returns it as it was.
func (s *Store) Delete(ctx context.Context, id int64) (model.Timespan, error) {
	var deleted model.Timespan
	err := s.transaction(ctx, func(tx *sql.Tx) error {
		ts, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM timespans WHERE id = ?`), id); err != nil {
			return fmt.Errorf("delete timespan %d: %w", id, err)
		}
		deleted = ts
		return nil
	})
	if err != nil {
		return model.Timespan{}, err
	}
	return deleted, nil
}

// DeleteArchived removes every archived timespan and returns the removed
// records. Non-archived rows are untouched.
func (s *Store) DeleteArchived(ctx context.Context) ([]model.Timespan, error) {
	var deleted []model.Timespan
	err := s.transaction(ctx, func(tx *sql.Tx) error {
		items, err := s.list(ctx, tx, byStart, `is_archived = ?`, true)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM timespans WHERE is_archived = ?`), true); err != nil {
			return fmt.Errorf("delete archived timespans: %w", err)
		}
		deleted = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}
