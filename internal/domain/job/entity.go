package job

import (
	"time"

	"github.com/google/uuid"
)

// Status defines the import job lifecycle state
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Valid checks if the status is known
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusDone, StatusError:
		return true
	}
	return false
}

// Terminal reports whether the status ends the job's lifecycle. Terminal
// jobs are never mutated or re-run automatically; re-enqueueing is an
// external concern.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// String returns string representation
func (s Status) String() string {
	return string(s)
}

// Counters tracks per-job processing progress
type Counters struct {
	Scanned  int `db:"scanned_count" json:"scanned"`
	Queued   int `db:"queued_count" json:"queued"`
	Analyzed int `db:"analyzed_count" json:"analyzed"`
	Inserted int `db:"inserted_count" json:"inserted"`
}

// ImportJob is one queued ingestion run. Created by Enqueue in pending
// state; mutated only by the worker.
type ImportJob struct {
	ID    uuid.UUID `db:"id"`
	RunID string    `db:"run_id"` // unique key

	SourceURL    string `db:"source_url"`
	FilterParams string `db:"filter_params"` // JSON-encoded source filters

	BatchSize   int `db:"batch_size"`
	MaxItems    int `db:"max_items"`
	Concurrency int `db:"concurrency"`

	Status    Status `db:"status"`
	LastError string `db:"last_error"`

	ScannedCount  int `db:"scanned_count"`
	QueuedCount   int `db:"queued_count"`
	AnalyzedCount int `db:"analyzed_count"`
	InsertedCount int `db:"inserted_count"`

	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	StartedAt  *time.Time `db:"started_at"`
	FinishedAt *time.Time `db:"finished_at"`
}

// Counters returns the job's progress counters
func (j *ImportJob) JobCounters() Counters {
	return Counters{
		Scanned:  j.ScannedCount,
		Queued:   j.QueuedCount,
		Analyzed: j.AnalyzedCount,
		Inserted: j.InsertedCount,
	}
}

// Outcome is the result of one claimed job within a cycle
type Outcome struct {
	Job *ImportJob
	Err error
}
