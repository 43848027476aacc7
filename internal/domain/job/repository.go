package job

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists import jobs. The storage layer is the single writer
// per job row; claim moves exactly one pending job to processing.
type Repository interface {
	Create(ctx context.Context, job *ImportJob) error

	// ClaimNextPending atomically claims the oldest pending job and moves it
	// to processing; returns ErrNotFound when the queue is exhausted
	ClaimNextPending(ctx context.Context) (*ImportJob, error)

	// MarkDone finalizes a processing job with its counters
	MarkDone(ctx context.Context, id uuid.UUID, counters Counters) error

	// MarkError finalizes a processing job with a failure message
	MarkError(ctx context.Context, id uuid.UUID, message string) error

	GetByRunID(ctx context.Context, runID string) (*ImportJob, error)
}

// Processor executes one claimed job. Counter updates are reported back via
// the returned Counters even when processing fails partway.
type Processor interface {
	Process(ctx context.Context, job *ImportJob) (Counters, error)
}
