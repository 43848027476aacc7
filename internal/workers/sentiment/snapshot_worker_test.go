package sentiment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "hypewatch/internal/domain/sentiment"
	"hypewatch/pkg/errors"
)

type fakeSource struct {
	symbols []string
	samples map[string][]domain.RawSample
	err     error
}

func (f *fakeSource) Symbols(ctx context.Context, start, end time.Time) ([]string, error) {
	return f.symbols, f.err
}

func (f *fakeSource) Samples(ctx context.Context, symbol string, start, end time.Time) ([]domain.RawSample, error) {
	return f.samples[symbol], nil
}

type fakeSnapshots struct {
	latest   map[string]*domain.NormalizedSentiment
	inserted []*domain.NormalizedSentiment
	insErr   error
}

func (f *fakeSnapshots) Insert(ctx context.Context, s *domain.NormalizedSentiment) error {
	if f.insErr != nil {
		return f.insErr
	}
	f.inserted = append(f.inserted, s)
	return nil
}

func (f *fakeSnapshots) GetLatest(ctx context.Context, symbol string) (*domain.NormalizedSentiment, error) {
	return f.latest[symbol], nil
}

func ptr(v float64) *float64 { return &v }

func newWorker(source *fakeSource, snapshots *fakeSnapshots) *SnapshotWorker {
	normalizer := domain.NewNormalizer(domain.DefaultNormalizerConfig())
	blender := domain.NewBlender(domain.DefaultBlendWeights, nil)
	return NewSnapshotWorker(source, normalizer, blender, snapshots, nil, time.Hour, time.Minute)
}

func TestSnapshotWorker_WritesQualifyingSymbols(t *testing.T) {
	source := &fakeSource{
		symbols: []string{"GME", "AMC"},
		samples: map[string][]domain.RawSample{
			// Two active sources: passes the quality gate
			"GME": {
				domain.RedditSample{Sentiment: 0.5, Posts: 100},
				domain.StocktwitsSample{Messages: 50, Computed: ptr(0.8)},
			},
			// One source only: skipped, not written as neutral
			"AMC": {
				domain.RedditSample{Sentiment: -0.2, Posts: 40},
			},
		},
	}
	snapshots := &fakeSnapshots{}

	worker := newWorker(source, snapshots)
	err := worker.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, snapshots.inserted, 1)
	written := snapshots.inserted[0]
	assert.Equal(t, "GME", written.Symbol)
	assert.Equal(t, 2, written.ActiveSources())

	require.NotNil(t, written.Blended)
	// Reddit 0.75 and stocktwits 0.8 blended with the 0.6/0.4 default split
	assert.InDelta(t, 0.75*0.6+0.8*0.4, written.Blended.Score, 1e-9)
}

func TestSnapshotWorker_VelocityFromPreviousSnapshot(t *testing.T) {
	previous := &domain.NormalizedSentiment{
		Symbol:  "GME",
		Scores:  map[domain.Source]float64{domain.SourceReddit: 0.5},
		Weights: map[domain.Source]float64{domain.SourceReddit: 0.7},
	}

	source := &fakeSource{
		symbols: []string{"GME"},
		samples: map[string][]domain.RawSample{
			"GME": {
				domain.RedditSample{Sentiment: 0.5, Posts: 100}, // maps to 0.75
				domain.StocktwitsSample{Messages: 50, Computed: ptr(0.75)},
			},
		},
	}
	snapshots := &fakeSnapshots{latest: map[string]*domain.NormalizedSentiment{"GME": previous}}

	worker := newWorker(source, snapshots)
	require.NoError(t, worker.Run(context.Background()))

	require.Len(t, snapshots.inserted, 1)
	velocity := snapshots.inserted[0].Velocity
	require.NotNil(t, velocity)
	assert.InDelta(t, 0.25, *velocity, 1e-9)
}

func TestSnapshotWorker_SymbolListFailure(t *testing.T) {
	source := &fakeSource{err: errors.ErrUnavailable}
	worker := newWorker(source, &fakeSnapshots{})

	err := worker.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
}

func TestSnapshotWorker_InsertFailureContinues(t *testing.T) {
	source := &fakeSource{
		symbols: []string{"GME"},
		samples: map[string][]domain.RawSample{
			"GME": {
				domain.RedditSample{Sentiment: 0.5, Posts: 100},
				domain.StocktwitsSample{Messages: 50, Computed: ptr(0.8)},
			},
		},
	}
	snapshots := &fakeSnapshots{insErr: errors.ErrUnavailable}

	worker := newWorker(source, snapshots)
	err := worker.Run(context.Background())
	require.Error(t, err)
}
