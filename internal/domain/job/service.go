package job

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hypewatch/pkg/errors"
	"hypewatch/pkg/logger"
)

// EnqueueParams describes a new import job
type EnqueueParams struct {
	RunID        string
	SourceURL    string
	FilterParams string
	BatchSize    int
	MaxItems     int
	Concurrency  int
}

func (p EnqueueParams) validate() error {
	if p.RunID == "" {
		return errors.Wrap(errors.ErrInvalidInput, "enqueue: run id is required")
	}
	if p.SourceURL == "" {
		return errors.Wrap(errors.ErrInvalidInput, "enqueue: source url is required")
	}
	if p.BatchSize < 0 || p.MaxItems < 0 || p.Concurrency < 0 {
		return errors.Wrap(errors.ErrInvalidInput, "enqueue: negative batch parameters")
	}
	return nil
}

// Queue decouples enqueueing import jobs from executing them. Enqueue is a
// durability handoff: nothing is processed synchronously.
type Queue struct {
	repo Repository
	proc Processor
	log  *logger.Logger
}

// NewQueue constructs a job queue
func NewQueue(repo Repository, proc Processor) *Queue {
	return &Queue{repo: repo, proc: proc, log: logger.Get().With("component", "job_queue")}
}

// Enqueue writes an ImportJob in pending state and returns immediately
func (q *Queue) Enqueue(ctx context.Context, params EnqueueParams) (*ImportJob, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	j := &ImportJob{
		ID:           uuid.New(),
		RunID:        params.RunID,
		SourceURL:    params.SourceURL,
		FilterParams: params.FilterParams,
		BatchSize:    params.BatchSize,
		MaxItems:     params.MaxItems,
		Concurrency:  params.Concurrency,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := q.repo.Create(ctx, j); err != nil {
		return nil, errors.Wrap(err, "enqueue import job")
	}

	q.log.Info("Import job enqueued", "run_id", j.RunID, "source_url", j.SourceURL)
	return j, nil
}

// RunCycle claims and executes at most maxJobs pending jobs, one at a time.
// The first failing claim, processor invocation, or job-reported processing
// error stops the cycle: remaining budget is abandoned, not skipped over.
// Outcomes for every job attempted before the stop are returned.
func (q *Queue) RunCycle(ctx context.Context, maxJobs int) ([]Outcome, error) {
	if maxJobs <= 0 {
		return nil, errors.Wrap(errors.ErrInvalidInput, "run cycle: max jobs must be positive")
	}

	var outcomes []Outcome

	for i := 0; i < maxJobs; i++ {
		claimed, err := q.repo.ClaimNextPending(ctx)
		if errors.Is(err, errors.ErrNotFound) {
			// Queue exhausted: a valid terminal state for the cycle
			break
		}
		if err != nil {
			return outcomes, errors.Wrap(err, "claim pending job")
		}

		counters, procErr := q.proc.Process(ctx, claimed)
		if procErr != nil {
			if markErr := q.repo.MarkError(ctx, claimed.ID, procErr.Error()); markErr != nil {
				q.log.Error("Failed to mark job as errored",
					"run_id", claimed.RunID, "error", markErr,
				)
			}
			claimed.Status = StatusError
			claimed.LastError = procErr.Error()
			outcomes = append(outcomes, Outcome{Job: claimed, Err: procErr})

			q.log.Error("Job failed, stopping cycle",
				"run_id", claimed.RunID,
				"jobs_attempted", len(outcomes),
				"error", procErr,
			)
			return outcomes, errors.Wrapf(errors.ErrJobFailed, "run %s: %v", claimed.RunID, procErr)
		}

		if err := q.repo.MarkDone(ctx, claimed.ID, counters); err != nil {
			outcomes = append(outcomes, Outcome{Job: claimed, Err: err})
			return outcomes, errors.Wrap(err, "mark job done")
		}

		claimed.Status = StatusDone
		claimed.ScannedCount = counters.Scanned
		claimed.QueuedCount = counters.Queued
		claimed.AnalyzedCount = counters.Analyzed
		claimed.InsertedCount = counters.Inserted
		outcomes = append(outcomes, Outcome{Job: claimed})

		q.log.Info("Job completed",
			"run_id", claimed.RunID,
			"inserted", counters.Inserted,
		)
	}

	return outcomes, nil
}
