package mentions

import (
	"context"
	"time"

	"hypewatch/internal/domain/mention"
	"hypewatch/internal/events"
	"hypewatch/internal/metrics"
	"hypewatch/internal/workers"
	"hypewatch/pkg/errors"
)

// RefreshWorker periodically re-derives mention rows over a trailing lookback
// window. The refresh is idempotent, so overlapping runs converge on the same
// rows.
type RefreshWorker struct {
	*workers.BaseWorker
	refresher *mention.Refresher
	publisher *events.Publisher
	lookback  time.Duration
}

// NewRefreshWorker creates the mention refresh worker. publisher may be nil.
func NewRefreshWorker(refresher *mention.Refresher, publisher *events.Publisher, lookback, interval time.Duration) *RefreshWorker {
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}
	return &RefreshWorker{
		BaseWorker: workers.NewBaseWorker("mention_refresh", interval, true),
		refresher:  refresher,
		publisher:  publisher,
		lookback:   lookback,
	}
}

// Run refreshes [now-lookback, now)
func (w *RefreshWorker) Run(ctx context.Context) error {
	start := time.Now()

	end := time.Now().UTC().Truncate(time.Minute)
	windowStart := end.Add(-w.lookback)

	summary, err := w.refresher.Refresh(ctx, windowStart, end)
	if err != nil {
		// A concurrent refresh holding the lock is not a failure of this
		// worker
		if errors.Is(err, errors.ErrAlreadyExists) {
			w.Log().Debug("Refresh already in progress, skipping cycle")
			w.RecordRun(time.Since(start))
			return nil
		}
		if summary != nil && summary.Failed != nil {
			metrics.MentionChunkFailures.Inc()
		}
		w.RecordError(err, time.Since(start))
		return err
	}

	metrics.MentionRows.WithLabelValues("cashtag").Add(float64(summary.Result.CashtagRows))
	metrics.MentionRows.WithLabelValues("keyword").Add(float64(summary.Result.KeywordRows))

	if w.publisher != nil {
		event := events.MentionsRefreshedEvent{
			WindowStart:     windowStart,
			WindowEnd:       end,
			CashtagRows:     summary.Result.CashtagRows,
			KeywordRows:     summary.Result.KeywordRows,
			TotalRows:       summary.Result.TotalRows,
			ChunksCompleted: summary.ChunksCompleted,
			ChunksTotal:     summary.ChunksTotal,
			OccurredAt:      time.Now().UTC(),
		}
		if err := w.publisher.PublishMentionsRefreshed(ctx, event); err != nil {
			w.Log().Warn("Mentions refreshed event not published", "error", err)
		}
	}

	w.RecordRun(time.Since(start))
	return nil
}
