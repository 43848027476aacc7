package mention

import (
	"context"
	"fmt"
	"time"

	"hypewatch/pkg/errors"
	"hypewatch/pkg/logger"
)

// DefaultChunkSize bounds how much of a window a single refresh call covers
const DefaultChunkSize = 6 * time.Hour

const lockTTL = 15 * time.Minute

// Refresher re-derives mention rows for a time window in fixed-size chunks.
// Chunks run sequentially, not in parallel, so a failure on chunk k aborts
// chunks k+1..n without leaving them partially applied relative to k.
type Refresher struct {
	repo      Repository
	locker    Locker
	chunkSize time.Duration
	log       *logger.Logger
}

// NewRefresher creates a window refresher. locker may be nil when window
// isolation is guaranteed by the caller.
func NewRefresher(repo Repository, locker Locker, chunkSize time.Duration) *Refresher {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Refresher{
		repo:      repo,
		locker:    locker,
		chunkSize: chunkSize,
		log:       logger.Get().With("component", "mention_refresher"),
	}
}

// SplitWindow slices [start, end) into sequential chunks of at most
// chunkSize; the final chunk absorbs any remainder shorter than a full chunk
func SplitWindow(start, end time.Time, chunkSize time.Duration) []Chunk {
	if !end.After(start) || chunkSize <= 0 {
		return nil
	}

	var chunks []Chunk
	for cursor := start; cursor.Before(end); {
		next := cursor.Add(chunkSize)
		if next.After(end) {
			next = end
		}
		chunks = append(chunks, Chunk{Start: cursor, End: next})
		cursor = next
	}
	return chunks
}

// Refresh re-derives mentions for [start, end). Idempotent: the storage
// layer's upsert keeps re-runs from duplicating rows. On a chunk failure the
// run stops, returning totals for completed chunks plus the failure marker;
// the error wraps ErrChunkFailed.
func (r *Refresher) Refresh(ctx context.Context, start, end time.Time) (*RefreshSummary, error) {
	if !end.After(start) {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "refresh window end %s not after start %s", end, start)
	}

	if r.locker != nil {
		key := windowLockKey(start, end)
		acquired, err := r.locker.AcquireLock(ctx, key, lockTTL)
		if err != nil {
			return nil, errors.Wrap(err, "acquire refresh lock")
		}
		if !acquired {
			return nil, errors.Wrapf(errors.ErrAlreadyExists, "refresh already running for window %s", key)
		}
		defer func() {
			if err := r.locker.ReleaseLock(context.WithoutCancel(ctx), key); err != nil {
				r.log.Warn("Failed to release refresh lock", "key", key, "error", err)
			}
		}()
	}

	chunks := SplitWindow(start, end, r.chunkSize)
	summary := &RefreshSummary{ChunksTotal: len(chunks)}

	for i, chunk := range chunks {
		result, err := r.repo.RefreshWindow(ctx, chunk.Start, chunk.End)
		if err != nil {
			// Fail fast: completed chunks stay applied, later chunks are
			// not attempted
			summary.Failed = &ChunkError{Chunk: chunk, Err: err}
			r.log.Error("Mention refresh chunk failed, aborting run",
				"chunk", i+1,
				"chunks_total", len(chunks),
				"start", chunk.Start,
				"end", chunk.End,
				"error", err,
			)
			return summary, errors.Wrapf(errors.ErrChunkFailed,
				"chunk %d/%d [%s, %s): %v", i+1, len(chunks), chunk.Start.Format(time.RFC3339), chunk.End.Format(time.RFC3339), err)
		}

		summary.Result.add(result)
		summary.ChunksCompleted++
	}

	r.log.Info("Mention window refreshed",
		"start", start,
		"end", end,
		"chunks", summary.ChunksCompleted,
		"cashtag_rows", summary.Result.CashtagRows,
		"keyword_rows", summary.Result.KeywordRows,
		"total_rows", summary.Result.TotalRows,
	)

	return summary, nil
}

func windowLockKey(start, end time.Time) string {
	return fmt.Sprintf("mention_refresh:%d:%d", start.Unix(), end.Unix())
}
