package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"hypewatch/internal/domain/sentiment"
	pkgerrors "hypewatch/pkg/errors"
)

// Compile-time check
var _ sentiment.SampleSource = (*SampleSource)(nil)

// SampleSource reads per-source sentiment aggregates written by the upstream
// scoring jobs. One row per (symbol, source, bucket); the queries here
// collapse the window into a single sample per source.
type SampleSource struct {
	db *sqlx.DB
}

// NewSampleSource creates a sample source over the aggregates table
func NewSampleSource(db *sqlx.DB) *SampleSource {
	return &SampleSource{db: db}
}

type sampleRow struct {
	Source           string   `db:"source"`
	Sentiment        *float64 `db:"sentiment"`
	Volume           int      `db:"volume"`
	Relevance        *float64 `db:"relevance"`
	FollowerWeighted *float64 `db:"follower_weighted"`
	Computed         *float64 `db:"computed"`
	BullRatio        *float64 `db:"bull_ratio"`
}

// Symbols lists symbols with sample activity inside [start, end)
func (s *SampleSource) Symbols(ctx context.Context, start, end time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT symbol
		FROM sentiment_samples
		WHERE bucket >= $1 AND bucket < $2
		ORDER BY symbol`

	var symbols []string
	if err := s.db.SelectContext(ctx, &symbols, query, start, end); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to list sample symbols")
	}

	return symbols, nil
}

// Samples collapses a symbol's window into one sample per source. Volumes sum
// across buckets; scores are volume-weighted means.
func (s *SampleSource) Samples(ctx context.Context, symbol string, start, end time.Time) ([]sentiment.RawSample, error) {
	query := `
		SELECT source,
			SUM(sentiment * volume) / NULLIF(SUM(volume), 0) AS sentiment,
			COALESCE(SUM(volume), 0) AS volume,
			SUM(relevance * volume) / NULLIF(SUM(volume), 0) AS relevance,
			SUM(follower_weighted * volume) / NULLIF(SUM(volume), 0) AS follower_weighted,
			SUM(computed * volume) / NULLIF(SUM(volume), 0) AS computed,
			SUM(bull_ratio * volume) / NULLIF(SUM(volume), 0) AS bull_ratio
		FROM sentiment_samples
		WHERE symbol = $1 AND bucket >= $2 AND bucket < $3
		GROUP BY source`

	var rows []sampleRow
	if err := s.db.SelectContext(ctx, &rows, query, symbol, start, end); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to load sentiment samples")
	}

	samples := make([]sentiment.RawSample, 0, len(rows))
	for _, row := range rows {
		if sample, ok := toSample(row); ok {
			samples = append(samples, sample)
		}
	}

	return samples, nil
}

// toSample maps a row to its source's sample variant. Unknown sources are
// skipped rather than guessed at.
func toSample(row sampleRow) (sentiment.RawSample, bool) {
	bipolar := 0.0
	if row.Sentiment != nil {
		bipolar = *row.Sentiment
	}

	switch sentiment.Source(row.Source) {
	case sentiment.SourceReddit:
		return sentiment.RedditSample{Sentiment: bipolar, Posts: row.Volume}, true
	case sentiment.SourceNews:
		relevance := 0.0
		if row.Relevance != nil {
			relevance = *row.Relevance
		}
		return sentiment.NewsSample{Sentiment: bipolar, Articles: row.Volume, Relevance: relevance}, true
	case sentiment.SourceYoutube:
		return sentiment.YoutubeSample{Sentiment: bipolar, Comments: row.Volume}, true
	case sentiment.SourceStocktwits:
		return sentiment.StocktwitsSample{
			Messages:         row.Volume,
			FollowerWeighted: row.FollowerWeighted,
			Computed:         row.Computed,
			BullRatio:        row.BullRatio,
		}, true
	}

	return nil, false
}
