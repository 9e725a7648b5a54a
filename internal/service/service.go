// Package service exposes the timespan operations shared by the CLI and the
// HTTP API. Every mutation is delegated to a single store transaction.
package service

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/Tiliavir/timebook/internal/model"
	"github.com/Tiliavir/timebook/internal/observability"
	"github.com/Tiliavir/timebook/internal/report"
	"github.com/Tiliavir/timebook/internal/timecalc"
)

// Repository is the persistence contract the service needs.
type Repository interface {
	ListByDay(ctx context.Context, day time.Time) ([]model.Timespan, error)
	ListRange(ctx context.Context, from, to time.Time) ([]model.Timespan, error)
	ListArchived(ctx context.Context) ([]model.Timespan, error)
	ListAll(ctx context.Context) ([]model.Timespan, error)
	Get(ctx context.Context, id int64) (model.Timespan, error)
	Create(ctx context.Context, ts model.Timespan) (model.Timespan, error)
	Import(ctx context.Context, items []model.Timespan) ([]model.Timespan, error)
	Update(ctx context.Context, id int64, fn func(*model.Timespan) error) (model.Timespan, error)
	Delete(ctx context.Context, id int64) (model.Timespan, error)
	DeleteArchived(ctx context.Context) ([]model.Timespan, error)
}

// Service implements the timespan use cases.
type Service struct {
	repo   Repository
	logger *log.Logger
	now    func() time.Time
}

// New constructs a Service. A nil logger discards output.
func New(repo Repository, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CreateInput carries the fields of a new timespan.
type CreateInput struct {
	Description string
	StartAt     time.Time
	EndAt       time.Time
}

// PruneResult describes the archived records a prune found and whether they
// were removed.
type PruneResult struct {
	DryRun bool
	Items  []model.Timespan
}

// ListByDay returns the records starting on day, archived ones included.
func (s *Service) ListByDay(ctx context.Context, day time.Time) ([]model.Timespan, error) {
	return s.repo.ListByDay(ctx, day)
}

// ListRange returns the records starting in [from, to).
func (s *Service) ListRange(ctx context.Context, from, to time.Time) ([]model.Timespan, error) {
	return s.repo.ListRange(ctx, from, to)
}

// ListArchived returns every archived record.
func (s *Service) ListArchived(ctx context.Context) ([]model.Timespan, error) {
	return s.repo.ListArchived(ctx)
}

// Get returns one record; the error wraps model.ErrNotFound when absent.
func (s *Service) Get(ctx context.Context, id int64) (model.Timespan, error) {
	return s.repo.Get(ctx, id)
}

// Report returns all records grouped by day, newest day first.
func (s *Service) Report(ctx context.Context) ([]report.Day, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return report.Build(items), nil
}

// Create validates and stores a new, non-archived timespan.
func (s *Service) Create(ctx context.Context, in CreateInput) (model.Timespan, error) {
	ts := model.New(in.Description, in.StartAt, in.EndAt)
	if err := ts.Validate(); err != nil {
		return model.Timespan{}, err
	}
	created, err := s.repo.Create(ctx, ts)
	if err != nil {
		return model.Timespan{}, err
	}
	s.logger.Printf("created timespan %d (%s)", created.ID, timecalc.FormatDuration(created.Duration(), false))
	observability.RecordMutation("create", 1, s.now())
	observability.RecordRecorded(created.Duration())
	return created, nil
}

// Import stores a batch of timespans atomically, keeping their archived
// flags.
func (s *Service) Import(ctx context.Context, items []model.Timespan) ([]model.Timespan, error) {
	if len(items) == 0 {
		return []model.Timespan{}, nil
	}
	out, err := s.repo.Import(ctx, items)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("imported %d timespans", len(out))
	observability.RecordMutation("import", len(out), s.now())
	return out, nil
}

// Update applies the non-nil fields of patch. An empty patch writes nothing
// and returns the current record.
func (s *Service) Update(ctx context.Context, id int64, patch model.Patch) (model.Timespan, error) {
	if patch.IsEmpty() {
		return s.repo.Get(ctx, id)
	}
	updated, err := s.repo.Update(ctx, id, func(ts *model.Timespan) error {
		ts.Apply(patch)
		return nil
	})
	if err != nil {
		return model.Timespan{}, err
	}
	s.logger.Printf("updated timespan %d", id)
	observability.RecordMutation("update", 1, s.now())
	return updated, nil
}

// ToggleArchived flips the archived flag of one record.
func (s *Service) ToggleArchived(ctx context.Context, id int64) (model.Timespan, error) {
	updated, err := s.repo.Update(ctx, id, func(ts *model.Timespan) error {
		ts.IsArchived = !ts.IsArchived
		return nil
	})
	if err != nil {
		return model.Timespan{}, err
	}
	s.logger.Printf("toggled timespan %d archived=%t", id, updated.IsArchived)
	observability.RecordMutation("toggle", 1, s.now())
	return updated, nil
}

// Delete removes one record and returns it.
func (s *Service) Delete(ctx context.Context, id int64) (model.Timespan, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return model.Timespan{}, err
	}
	s.logger.Printf("deleted timespan %d", id)
	observability.RecordMutation("delete", 1, s.now())
	return deleted, nil
}

// PruneArchived lists the archived records and, only when confirm is true,
// deletes them. Without confirmation it is a dry run.
func (s *Service) PruneArchived(ctx context.Context, confirm bool) (PruneResult, error) {
	if !confirm {
		items, err := s.repo.ListArchived(ctx)
		if err != nil {
			return PruneResult{}, err
		}
		return PruneResult{DryRun: true, Items: items}, nil
	}
	items, err := s.repo.DeleteArchived(ctx)
	if err != nil {
		return PruneResult{}, err
	}
	s.logger.Printf("pruned %d archived timespans", len(items))
	observability.RecordMutation("prune", len(items), s.now())
	return PruneResult{Items: items}, nil
}
