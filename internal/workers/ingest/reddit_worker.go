package ingest

import (
	"context"
	"time"

	"hypewatch/internal/services/ingest"
	"hypewatch/internal/workers"
)

// RedditWorker periodically ingests the previous UTC day for every configured
// subreddit. Each window failure is absorbed so one throttled or broken forum
// cannot block the others.
type RedditWorker struct {
	*workers.BaseWorker
	svc    *ingest.Service
	forums []string
}

// NewRedditWorker creates the reddit ingestion worker
func NewRedditWorker(svc *ingest.Service, forums []string, interval time.Duration) *RedditWorker {
	return &RedditWorker{
		BaseWorker: workers.NewBaseWorker("reddit_ingest", interval, true),
		svc:        svc,
		forums:     forums,
	}
}

// Run ingests yesterday's window for each forum
func (w *RedditWorker) Run(ctx context.Context) error {
	start := time.Now()

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	succeeded, err := w.svc.IngestRange(ctx, w.forums, yesterday, today)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return err
	}

	w.Log().Info("Ingest cycle finished",
		"day", yesterday.Format("2006-01-02"),
		"forums", len(w.forums),
		"windows_ok", succeeded,
	)

	w.RecordRun(time.Since(start))
	return nil
}
