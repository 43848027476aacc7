package sentiment

import (
	"context"
	"time"
)

// WeightsRepository persists blend-weight configuration records
type WeightsRepository interface {
	// GetActive returns the latest active configuration record, or nil when
	// none exists or the record is malformed
	GetActive(ctx context.Context) (*BlendWeights, error)

	// Save stores a new active configuration record
	Save(ctx context.Context, weights BlendWeights) error
}

// SampleSource supplies raw per-source sentiment samples for snapshotting
type SampleSource interface {
	// Symbols lists symbols with any sample activity inside [start, end)
	Symbols(ctx context.Context, start, end time.Time) ([]string, error)

	// Samples returns at most one sample per source for a symbol over
	// [start, end)
	Samples(ctx context.Context, symbol string, start, end time.Time) ([]RawSample, error)
}

// SnapshotRepository persists normalized sentiment snapshots (time series)
type SnapshotRepository interface {
	Insert(ctx context.Context, snapshot *NormalizedSentiment) error

	// GetLatest returns the most recent snapshot for a symbol, or nil when
	// no prior snapshot exists
	GetLatest(ctx context.Context, symbol string) (*NormalizedSentiment, error)
}
