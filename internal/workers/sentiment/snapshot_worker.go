package sentiment

import (
	"context"
	"time"

	domain "hypewatch/internal/domain/sentiment"
	"hypewatch/internal/events"
	"hypewatch/internal/workers"
	"hypewatch/pkg/errors"
)

// SnapshotWorker periodically normalizes each active symbol's raw samples,
// blends reddit and stocktwits, and stores the snapshot. Symbols below the
// quality threshold are skipped: insufficient data is never written as a
// neutral score.
type SnapshotWorker struct {
	*workers.BaseWorker
	source     domain.SampleSource
	normalizer *domain.Normalizer
	blender    *domain.Blender
	snapshots  domain.SnapshotRepository
	publisher  *events.Publisher
	window     time.Duration
}

// NewSnapshotWorker creates the sentiment snapshot worker. publisher may be
// nil.
func NewSnapshotWorker(
	source domain.SampleSource,
	normalizer *domain.Normalizer,
	blender *domain.Blender,
	snapshots domain.SnapshotRepository,
	publisher *events.Publisher,
	window, interval time.Duration,
) *SnapshotWorker {
	if window <= 0 {
		window = time.Hour
	}
	return &SnapshotWorker{
		BaseWorker: workers.NewBaseWorker("sentiment_snapshot", interval, true),
		source:     source,
		normalizer: normalizer,
		blender:    blender,
		snapshots:  snapshots,
		publisher:  publisher,
		window:     window,
	}
}

// Run snapshots every symbol with recent sample activity
func (w *SnapshotWorker) Run(ctx context.Context) error {
	start := time.Now()

	// Pick up any weight edits made since the last cycle
	_ = w.blender.Reload(ctx)

	end := time.Now().UTC()
	windowStart := end.Add(-w.window)

	symbols, err := w.source.Symbols(ctx, windowStart, end)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return errors.Wrap(err, "list active symbols")
	}

	written := 0
	skipped := 0
	var firstErr error

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			break
		}

		ok, err := w.snapshotSymbol(ctx, symbol, windowStart, end)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			w.Log().Error("Symbol snapshot failed", "symbol", symbol, "error", err)
			continue
		}
		if ok {
			written++
		} else {
			skipped++
		}
	}

	w.Log().Info("Snapshot cycle finished",
		"symbols", len(symbols),
		"written", written,
		"skipped", skipped,
	)

	if firstErr != nil {
		w.RecordError(firstErr, time.Since(start))
		return firstErr
	}

	w.RecordRun(time.Since(start))
	return nil
}

// snapshotSymbol normalizes and stores one symbol; returns false when the
// quality gate rejected the snapshot
func (w *SnapshotWorker) snapshotSymbol(ctx context.Context, symbol string, windowStart, end time.Time) (bool, error) {
	samples, err := w.source.Samples(ctx, symbol, windowStart, end)
	if err != nil {
		return false, errors.Wrap(err, "load samples")
	}

	previous, err := w.snapshots.GetLatest(ctx, symbol)
	if err != nil {
		return false, errors.Wrap(err, "load previous snapshot")
	}

	snapshot := w.normalizer.NormalizeAll(symbol, samples, previous)
	snapshot.Timestamp = end

	if !w.normalizer.MeetsQualityThreshold(snapshot) {
		w.Log().Debug("Snapshot below quality threshold",
			"symbol", symbol,
			"active_sources", snapshot.ActiveSources(),
			"total_weight", snapshot.TotalWeight(),
		)
		return false, nil
	}

	snapshot.Blended = w.blender.Blend(
		sourceScore(snapshot, domain.SourceReddit),
		sourceScore(snapshot, domain.SourceStocktwits),
	)

	if err := w.snapshots.Insert(ctx, snapshot); err != nil {
		return false, errors.Wrap(err, "store snapshot")
	}

	if w.publisher != nil {
		event := events.SnapshotWrittenEvent{
			Symbol:        symbol,
			ActiveSources: snapshot.ActiveSources(),
			Velocity:      snapshot.Velocity,
			OccurredAt:    time.Now().UTC(),
		}
		if snapshot.Blended != nil {
			score := snapshot.Blended.Score
			event.BlendedScore = &score
		}
		if err := w.publisher.PublishSnapshotWritten(ctx, event); err != nil {
			w.Log().Warn("Snapshot written event not published", "symbol", symbol, "error", err)
		}
	}

	return true, nil
}

// sourceScore extracts one source's (score, weight) pair, nil when inactive
func sourceScore(s *domain.NormalizedSentiment, source domain.Source) *domain.SourceScore {
	score, ok := s.Scores[source]
	if !ok {
		return nil
	}
	return &domain.SourceScore{Score: score, Confidence: s.Weights[source]}
}
