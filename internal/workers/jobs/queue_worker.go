package jobs

import (
	"context"
	"time"

	"hypewatch/internal/domain/job"
	"hypewatch/internal/events"
	"hypewatch/internal/metrics"
	"hypewatch/internal/workers"
)

// QueueWorker drains the import job queue one cycle at a time. A failing job
// ends the cycle; the next tick starts fresh against whatever is still
// pending.
type QueueWorker struct {
	*workers.BaseWorker
	queue     *job.Queue
	publisher *events.Publisher
	maxJobs   int
}

// NewQueueWorker creates the job queue worker. publisher may be nil.
func NewQueueWorker(queue *job.Queue, publisher *events.Publisher, maxJobs int, interval time.Duration) *QueueWorker {
	if maxJobs <= 0 {
		maxJobs = 5
	}
	return &QueueWorker{
		BaseWorker: workers.NewBaseWorker("job_queue", interval, true),
		queue:      queue,
		publisher:  publisher,
		maxJobs:    maxJobs,
	}
}

// Run executes one queue cycle
func (w *QueueWorker) Run(ctx context.Context) error {
	start := time.Now()

	outcomes, err := w.queue.RunCycle(ctx, w.maxJobs)
	w.report(ctx, outcomes)

	if err != nil {
		w.RecordError(err, time.Since(start))
		return err
	}

	if len(outcomes) > 0 {
		w.Log().Info("Queue cycle finished", "jobs", len(outcomes))
	}

	w.RecordRun(time.Since(start))
	return nil
}

// report records metrics and publishes a finished event per attempted job
func (w *QueueWorker) report(ctx context.Context, outcomes []job.Outcome) {
	for _, outcome := range outcomes {
		metrics.JobOutcomes.WithLabelValues(outcome.Job.Status.String()).Inc()

		if w.publisher == nil {
			continue
		}

		event := events.JobFinishedEvent{
			RunID:      outcome.Job.RunID,
			Status:     outcome.Job.Status.String(),
			Scanned:    outcome.Job.ScannedCount,
			Queued:     outcome.Job.QueuedCount,
			Analyzed:   outcome.Job.AnalyzedCount,
			Inserted:   outcome.Job.InsertedCount,
			OccurredAt: time.Now().UTC(),
		}
		if outcome.Err != nil {
			event.Error = outcome.Err.Error()
		}

		if err := w.publisher.PublishJobFinished(ctx, event); err != nil {
			w.Log().Warn("Job finished event not published",
				"run_id", outcome.Job.RunID,
				"error", err,
			)
		}
	}
}
