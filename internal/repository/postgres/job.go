package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"hypewatch/internal/domain/job"
	pkgerrors "hypewatch/pkg/errors"
)

// Postgres error code for unique constraint violations
const uniqueViolation = "23505"

// Compile-time check
var _ job.Repository = (*JobRepository)(nil)

// JobRepository implements job.Repository using sqlx
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository creates a new import job repository
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new import job
func (r *JobRepository) Create(ctx context.Context, j *job.ImportJob) error {
	query := `
		INSERT INTO import_jobs (
			id, run_id, source_url, filter_params,
			batch_size, max_items, concurrency,
			status, last_error,
			scanned_count, queued_count, analyzed_count, inserted_count,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)`

	_, err := r.db.ExecContext(ctx, query,
		j.ID, j.RunID, j.SourceURL, j.FilterParams,
		j.BatchSize, j.MaxItems, j.Concurrency,
		j.Status, j.LastError,
		j.ScannedCount, j.QueuedCount, j.AnalyzedCount, j.InsertedCount,
		j.CreatedAt, j.UpdatedAt,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return pkgerrors.Wrapf(pkgerrors.ErrAlreadyExists, "import job %s", j.RunID)
		}
		return pkgerrors.Wrap(err, "failed to create import job")
	}

	return nil
}

// ClaimNextPending claims the oldest pending job and moves it to processing.
// SKIP LOCKED keeps concurrent cycles from claiming the same row.
func (r *JobRepository) ClaimNextPending(ctx context.Context) (*job.ImportJob, error) {
	query := `
		UPDATE import_jobs
		SET status = 'processing',
			started_at = NOW(),
			updated_at = NOW()
		WHERE id = (
			SELECT id FROM import_jobs
			WHERE status = 'pending'
			ORDER BY created_at
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, run_id, source_url, filter_params,
			batch_size, max_items, concurrency,
			status, last_error,
			scanned_count, queued_count, analyzed_count, inserted_count,
			created_at, updated_at, started_at, finished_at`

	var claimed job.ImportJob
	err := r.db.GetContext(ctx, &claimed, query)
	if err == sql.ErrNoRows {
		return nil, pkgerrors.Wrap(pkgerrors.ErrNotFound, "no pending import jobs")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to claim pending job")
	}

	return &claimed, nil
}

// MarkDone finalizes a processing job with its counters
func (r *JobRepository) MarkDone(ctx context.Context, id uuid.UUID, counters job.Counters) error {
	query := `
		UPDATE import_jobs
		SET status = 'done',
			scanned_count = $2,
			queued_count = $3,
			analyzed_count = $4,
			inserted_count = $5,
			finished_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`

	result, err := r.db.ExecContext(ctx, query,
		id, counters.Scanned, counters.Queued, counters.Analyzed, counters.Inserted,
	)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to mark job done")
	}

	return r.requireRow(result)
}

// MarkError finalizes a processing job with a failure message
func (r *JobRepository) MarkError(ctx context.Context, id uuid.UUID, message string) error {
	query := `
		UPDATE import_jobs
		SET status = 'error',
			last_error = $2,
			finished_at = NOW(),
			updated_at = NOW()
		WHERE id = $1 AND status = 'processing'`

	result, err := r.db.ExecContext(ctx, query, id, message)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to mark job errored")
	}

	return r.requireRow(result)
}

// GetByRunID retrieves a job by its unique run id
func (r *JobRepository) GetByRunID(ctx context.Context, runID string) (*job.ImportJob, error) {
	query := `
		SELECT id, run_id, source_url, filter_params,
			batch_size, max_items, concurrency,
			status, last_error,
			scanned_count, queued_count, analyzed_count, inserted_count,
			created_at, updated_at, started_at, finished_at
		FROM import_jobs
		WHERE run_id = $1`

	var found job.ImportJob
	err := r.db.GetContext(ctx, &found, query, runID)
	if err == sql.ErrNoRows {
		return nil, pkgerrors.Wrapf(pkgerrors.ErrNotFound, "import job %s", runID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get import job")
	}

	return &found, nil
}

// requireRow guards terminal-state transitions: a zero-row update means the
// job was not in processing state
func (r *JobRepository) requireRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return pkgerrors.Wrap(pkgerrors.ErrJobTerminal, "job not in processing state")
	}
	return nil
}
