package listing

import (
	"context"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"hypewatch/internal/metrics"
	"hypewatch/pkg/errors"
	"hypewatch/pkg/logger"
)

// RetryPolicy controls how rate-limit responses are retried. A fixed cooldown
// is slept between attempts; MaxAttempts of zero means unbounded retries,
// bounded only by the page budget.
type RetryPolicy struct {
	Cooldown    time.Duration
	MaxAttempts int
}

// FetcherConfig controls the paginated window fetcher
type FetcherConfig struct {
	PageCap   int
	PageDelay time.Duration
	Retry     RetryPolicy
}

// Fetcher walks a newest-first listing page by page and collects the items
// belonging to one daily window
type Fetcher struct {
	fetcher PageFetcher
	cfg     FetcherConfig
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewFetcher creates a window fetcher over a page source
func NewFetcher(fetcher PageFetcher, cfg FetcherConfig) *Fetcher {
	if cfg.PageCap <= 0 {
		cfg.PageCap = 100
	}
	if cfg.Retry.Cooldown <= 0 {
		cfg.Retry.Cooldown = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.PageDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.PageDelay), 1)
	}

	return &Fetcher{
		fetcher: fetcher,
		cfg:     cfg,
		limiter: limiter,
		log:     logger.Get().With("component", "listing_fetcher"),
	}
}

// FetchWindow pages through the listing and returns the window's items sorted
// ascending by creation time.
//
// Each rate-limit response consumes one unit of the page budget without
// advancing the cursor, so a persistently throttling upstream terminates at
// the page cap instead of looping forever. Any other upstream error ends the
// walk with the items collected so far; the caller decides whether partial
// coverage is acceptable.
func (f *Fetcher) FetchWindow(ctx context.Context, window Window, token string) ([]Item, error) {
	var items []Item
	after := ""
	retries := 0

	for page := 0; page < f.cfg.PageCap; page++ {
		if err := f.limiter.Wait(ctx); err != nil {
			return items, errors.Wrap(err, "fetch window")
		}

		p, err := f.fetcher.FetchPage(ctx, window.SourceForum, after, token)
		if errors.Is(err, errors.ErrRateLimited) {
			metrics.RecordFetchPage(window.SourceForum, "rate_limited")
			retries++
			if f.cfg.Retry.MaxAttempts > 0 && retries > f.cfg.Retry.MaxAttempts {
				return items, errors.Wrapf(errors.ErrRateLimited,
					"fetch window %s/%s: gave up after %d retries",
					window.SourceForum, window.Day.Format("2006-01-02"), f.cfg.Retry.MaxAttempts,
				)
			}

			f.log.Warn("Rate limited, backing off",
				"source_forum", window.SourceForum,
				"cooldown", f.cfg.Retry.Cooldown,
				"retry", retries,
			)
			if err := sleep(ctx, f.cfg.Retry.Cooldown); err != nil {
				return items, err
			}
			// Same cursor, one page of budget spent
			continue
		}
		if err != nil {
			metrics.RecordFetchPage(window.SourceForum, "error")
			f.log.Error("Page fetch failed, keeping partial window",
				"source_forum", window.SourceForum,
				"day", window.Day.Format("2006-01-02"),
				"page", page,
				"error", err,
			)
			sortItems(items)
			return items, nil
		}

		metrics.RecordFetchPage(window.SourceForum, "success")

		pastWindow := false
		for _, item := range p.Items {
			if window.Contains(item.CreatedAt) {
				items = append(items, item)
			}
			if item.CreatedAt < window.StartEpoch {
				pastWindow = true
			}
		}
		metrics.FetchItems.WithLabelValues(window.SourceForum).Add(float64(len(p.Items)))

		// Newest-first listing: once we see an item older than the window
		// start, everything after it is older too
		if pastWindow || p.After == "" || len(p.Items) == 0 {
			sortItems(items)
			return items, nil
		}

		after = p.After
	}

	sortItems(items)
	return items, errors.Wrapf(errors.ErrPageCapReached,
		"fetch window %s/%s: stopped at %d pages",
		window.SourceForum, window.Day.Format("2006-01-02"), f.cfg.PageCap,
	)
}

// sortItems orders items ascending by creation time with ID as a stable
// tiebreak, so re-runs produce identical output
func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt != items[j].CreatedAt {
			return items[i].CreatedAt < items[j].CreatedAt
		}
		return items[i].ID < items[j].ID
	})
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
