package ingest

import (
	"context"
	"time"

	"hypewatch/internal/domain/listing"
	"hypewatch/internal/events"
	"hypewatch/pkg/errors"
	"hypewatch/pkg/logger"
)

// TokenSource supplies the bearer token for upstream API calls
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Result summarizes one ingested window
type Result struct {
	Items int
	// Partial marks a window that hit the page cap before the listing was
	// exhausted; the partition still holds everything collected
	Partial bool
}

// Service ingests one daily window end to end: fetch, partition file, durable
// raw-post rows, event
type Service struct {
	tokens     TokenSource
	fetcher    *listing.Fetcher
	partitions listing.PartitionStore
	posts      listing.RawPostRepository
	publisher  *events.Publisher
	log        *logger.Logger
}

// NewService creates an ingest service. posts and publisher may be nil for
// file-only runs.
func NewService(
	tokens TokenSource,
	fetcher *listing.Fetcher,
	partitions listing.PartitionStore,
	posts listing.RawPostRepository,
	publisher *events.Publisher,
) *Service {
	return &Service{
		tokens:     tokens,
		fetcher:    fetcher,
		partitions: partitions,
		posts:      posts,
		publisher:  publisher,
		log:        logger.Get().With("component", "ingest_service"),
	}
}

// IngestWindow fetches a window and persists it. Hitting the page cap is a
// partial success: the window is written with what was collected and flagged
// in the result. Auth failures and exhausted rate-limit retries fail the
// window without writing anything.
func (s *Service) IngestWindow(ctx context.Context, window listing.Window) (*Result, error) {
	return s.IngestWindowLimit(ctx, window, 0)
}

// IngestWindowLimit is IngestWindow with an item cap; maxItems of zero means
// unlimited. A capped window is marked partial.
func (s *Service) IngestWindowLimit(ctx context.Context, window listing.Window, maxItems int) (*Result, error) {
	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "obtain api token")
	}

	items, err := s.fetcher.FetchWindow(ctx, window, token)
	partial := false
	if err != nil {
		if !errors.Is(err, errors.ErrPageCapReached) {
			return nil, err
		}
		partial = true
		s.log.Warn("Window truncated at page cap",
			"source_forum", window.SourceForum,
			"day", window.Day.Format("2006-01-02"),
			"items", len(items),
		)
	}

	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
		partial = true
	}

	if err := s.partitions.WritePartition(ctx, window, items); err != nil {
		return nil, errors.Wrap(err, "write window partition")
	}

	if s.posts != nil {
		if err := s.posts.UpsertPosts(ctx, items); err != nil {
			return nil, errors.Wrap(err, "persist raw posts")
		}
	}

	if s.publisher != nil {
		event := events.WindowIngestedEvent{
			SourceForum: window.SourceForum,
			Day:         window.Day.Format("2006-01-02"),
			Items:       len(items),
			Partial:     partial,
			OccurredAt:  time.Now().UTC(),
		}
		if err := s.publisher.PublishWindowIngested(ctx, event); err != nil {
			// Persisted data wins over the notification
			s.log.Warn("Window ingested event not published", "error", err)
		}
	}

	s.log.Info("Window ingested",
		"source_forum", window.SourceForum,
		"day", window.Day.Format("2006-01-02"),
		"items", len(items),
		"partial", partial,
	)

	return &Result{Items: len(items), Partial: partial}, nil
}

// IngestRange walks every (source forum, day) window in [start, end) across
// the given forums. A failing window is logged and skipped so one bad day
// cannot sink the rest of the range; only context cancellation aborts the
// walk. Returns how many windows succeeded.
func (s *Service) IngestRange(ctx context.Context, forums []string, start, end time.Time) (int, error) {
	succeeded := 0

	for day := start.UTC(); day.Before(end); day = day.AddDate(0, 0, 1) {
		for _, forum := range forums {
			window := listing.NewWindow(forum, day)

			if _, err := s.IngestWindow(ctx, window); err != nil {
				if ctx.Err() != nil {
					return succeeded, ctx.Err()
				}
				s.log.Error("Window ingest failed, continuing range",
					"source_forum", forum,
					"day", day.Format("2006-01-02"),
					"error", err,
				)
				continue
			}
			succeeded++
		}
	}

	return succeeded, nil
}
