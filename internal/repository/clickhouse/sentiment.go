package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"hypewatch/internal/domain/sentiment"
	pkgerrors "hypewatch/pkg/errors"
)

// Compile-time check
var _ sentiment.SnapshotRepository = (*SnapshotRepository)(nil)

// SnapshotRepository implements sentiment.SnapshotRepository using ClickHouse
type SnapshotRepository struct {
	conn driver.Conn
}

// NewSnapshotRepository creates a new sentiment snapshot repository
func NewSnapshotRepository(conn driver.Conn) *SnapshotRepository {
	return &SnapshotRepository{conn: conn}
}

// snapshotRow flattens the per-source maps onto nullable columns
type snapshotRow struct {
	Symbol    string    `ch:"symbol"`
	Timestamp time.Time `ch:"timestamp"`

	RedditScore      *float64 `ch:"reddit_score"`
	RedditWeight     *float64 `ch:"reddit_weight"`
	StocktwitsScore  *float64 `ch:"stocktwits_score"`
	StocktwitsWeight *float64 `ch:"stocktwits_weight"`
	NewsScore        *float64 `ch:"news_score"`
	NewsWeight       *float64 `ch:"news_weight"`
	YoutubeScore     *float64 `ch:"youtube_score"`
	YoutubeWeight    *float64 `ch:"youtube_weight"`

	BlendedScore      *float64 `ch:"blended_score"`
	BlendedConfidence *float64 `ch:"blended_confidence"`
	Velocity          *float64 `ch:"velocity"`

	ActiveSources uint8 `ch:"active_sources"`
}

// Insert stores one sentiment snapshot
func (r *SnapshotRepository) Insert(ctx context.Context, snapshot *sentiment.NormalizedSentiment) error {
	query := `
		INSERT INTO sentiment_snapshots (
			symbol, timestamp,
			reddit_score, reddit_weight,
			stocktwits_score, stocktwits_weight,
			news_score, news_weight,
			youtube_score, youtube_weight,
			blended_score, blended_confidence, velocity,
			active_sources
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)`

	row := toRow(snapshot)
	return r.conn.Exec(ctx, query,
		row.Symbol, row.Timestamp,
		row.RedditScore, row.RedditWeight,
		row.StocktwitsScore, row.StocktwitsWeight,
		row.NewsScore, row.NewsWeight,
		row.YoutubeScore, row.YoutubeWeight,
		row.BlendedScore, row.BlendedConfidence, row.Velocity,
		row.ActiveSources,
	)
}

// GetLatest retrieves the most recent snapshot for a symbol, or nil when no
// prior snapshot exists
func (r *SnapshotRepository) GetLatest(ctx context.Context, symbol string) (*sentiment.NormalizedSentiment, error) {
	query := `
		SELECT symbol, timestamp,
			reddit_score, reddit_weight,
			stocktwits_score, stocktwits_weight,
			news_score, news_weight,
			youtube_score, youtube_weight,
			blended_score, blended_confidence, velocity,
			active_sources
		FROM sentiment_snapshots
		WHERE symbol = $1
		ORDER BY timestamp DESC
		LIMIT 1`

	var rows []snapshotRow
	if err := r.conn.Select(ctx, &rows, query, symbol); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get latest snapshot")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	return fromRow(rows[0]), nil
}

func toRow(s *sentiment.NormalizedSentiment) snapshotRow {
	row := snapshotRow{
		Symbol:        s.Symbol,
		Timestamp:     s.Timestamp,
		Velocity:      s.Velocity,
		ActiveSources: uint8(s.ActiveSources()),
	}

	set := func(source sentiment.Source, score, weight **float64) {
		if v, ok := s.Scores[source]; ok {
			value := v
			*score = &value
			w := s.Weights[source]
			*weight = &w
		}
	}
	set(sentiment.SourceReddit, &row.RedditScore, &row.RedditWeight)
	set(sentiment.SourceStocktwits, &row.StocktwitsScore, &row.StocktwitsWeight)
	set(sentiment.SourceNews, &row.NewsScore, &row.NewsWeight)
	set(sentiment.SourceYoutube, &row.YoutubeScore, &row.YoutubeWeight)

	if s.Blended != nil {
		score := s.Blended.Score
		confidence := s.Blended.Confidence
		row.BlendedScore = &score
		row.BlendedConfidence = &confidence
	}

	return row
}

func fromRow(row snapshotRow) *sentiment.NormalizedSentiment {
	s := &sentiment.NormalizedSentiment{
		Symbol:    row.Symbol,
		Timestamp: row.Timestamp,
		Scores:    make(map[sentiment.Source]float64),
		Weights:   make(map[sentiment.Source]float64),
		Velocity:  row.Velocity,
	}

	set := func(source sentiment.Source, score, weight *float64) {
		if score != nil {
			s.Scores[source] = *score
			if weight != nil {
				s.Weights[source] = *weight
			}
		}
	}
	set(sentiment.SourceReddit, row.RedditScore, row.RedditWeight)
	set(sentiment.SourceStocktwits, row.StocktwitsScore, row.StocktwitsWeight)
	set(sentiment.SourceNews, row.NewsScore, row.NewsWeight)
	set(sentiment.SourceYoutube, row.YoutubeScore, row.YoutubeWeight)

	if row.BlendedScore != nil && row.BlendedConfidence != nil {
		s.Blended = &sentiment.BlendedSentiment{
			Score:      *row.BlendedScore,
			Confidence: *row.BlendedConfidence,
		}
	}

	return s
}
