package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/news-harvester/internal/entity"
	"github.com/user/news-harvester/internal/repository"
)

// RunRepoImpl provides a concrete implementation for the RunRepository interface using PostgreSQL.
type RunRepoImpl struct {
	db *pgxpool.Pool
}

// NewRunRepo creates a new instance of RunRepoImpl.
func NewRunRepo(db *pgxpool.Pool) *RunRepoImpl {
	return &RunRepoImpl{db: db}
}

// Create inserts a new run record.
func (r *RunRepoImpl) Create(ctx context.Context, run *entity.HarvestRun) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO harvest_runs (id, source, status, interval_hours, max_count, incremental, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		run.ID,
		run.Source,
		run.Status,
		run.IntervalHours,
		run.MaxCount,
		run.Incremental,
		run.SubmittedAt,
	)
	return err
}

// Update writes the mutable progress fields of a run.
func (r *RunRepoImpl) Update(ctx context.Context, run *entity.HarvestRun) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE harvest_runs SET
		   status = $2,
		   outcome = $3,
		   document_count = $4,
		   skipped_count = $5,
		   failure_reason = $6,
		   started_at = $7,
		   finished_at = $8
		 WHERE id = $1`,
		run.ID,
		run.Status,
		string(run.Outcome),
		run.DocumentCount,
		run.SkippedCount,
		run.FailureReason,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// FindByID retrieves a run by its id.
func (r *RunRepoImpl) FindByID(ctx context.Context, id string) (*entity.HarvestRun, error) {
	var run entity.HarvestRun
	var outcome string
	err := r.db.QueryRow(ctx,
		`SELECT id, source, status, interval_hours, max_count, incremental, outcome,
		        document_count, skipped_count, failure_reason, submitted_at, started_at, finished_at
		 FROM harvest_runs
		 WHERE id = $1`,
		id,
	).Scan(
		&run.ID,
		&run.Source,
		&run.Status,
		&run.IntervalHours,
		&run.MaxCount,
		&run.Incremental,
		&outcome,
		&run.DocumentCount,
		&run.SkippedCount,
		&run.FailureReason,
		&run.SubmittedAt,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	run.Outcome = entity.Outcome(outcome)
	return &run, nil
}
