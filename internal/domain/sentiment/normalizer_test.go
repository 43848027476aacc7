package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestNormalize_BipolarMapping(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	tests := []struct {
		name     string
		raw      float64
		expected float64
	}{
		{"bearish extreme", -1, 0},
		{"neutral", 0, 0.5},
		{"bullish extreme", 1, 1},
		{"mildly bullish", 0.5, 0.75},
		{"out of range clamps", 1.5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _, ok := n.Normalize(RedditSample{Sentiment: tt.raw, Posts: 50})
			require.True(t, ok)
			assert.InDelta(t, tt.expected, score, 1e-9)
		})
	}
}

func TestNormalize_VolumeGate(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	// Below the reddit minimum of 3 the source is absent, not zero
	_, _, ok := n.Normalize(RedditSample{Sentiment: 0.9, Posts: 2})
	assert.False(t, ok)

	_, weight, ok := n.Normalize(RedditSample{Sentiment: 0.9, Posts: 3})
	require.True(t, ok)
	assert.Greater(t, weight, 0.0)
}

func TestNormalize_VolumeConfidenceSaturates(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	_, small, ok := n.Normalize(RedditSample{Sentiment: 0, Posts: 5})
	require.True(t, ok)
	_, large, ok := n.Normalize(RedditSample{Sentiment: 0, Posts: 50000})
	require.True(t, ok)

	assert.Greater(t, large, small)
	// Saturation: weight never exceeds the confidence base
	assert.LessOrEqual(t, large, 0.7+1e-9)
}

func TestNormalize_StocktwitsPriorityChain(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	// Follower-weighted beats computed beats bull ratio
	score, _, ok := n.Normalize(StocktwitsSample{
		Messages:         20,
		FollowerWeighted: f64(0.8),
		Computed:         f64(0.5),
		BullRatio:        f64(0.2),
	})
	require.True(t, ok)
	assert.InDelta(t, 0.8, score, 1e-9)

	score, _, ok = n.Normalize(StocktwitsSample{Messages: 20, Computed: f64(0.5), BullRatio: f64(0.2)})
	require.True(t, ok)
	assert.InDelta(t, 0.5, score, 1e-9)

	score, _, ok = n.Normalize(StocktwitsSample{Messages: 20, BullRatio: f64(0.2)})
	require.True(t, ok)
	assert.InDelta(t, 0.2, score, 1e-9)

	// No usable score at all: source absent even with volume
	_, _, ok = n.Normalize(StocktwitsSample{Messages: 20})
	assert.False(t, ok)
}

func TestNormalize_NewsRelevanceAsBase(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	_, defaultBase, ok := n.Normalize(NewsSample{Sentiment: 0, Articles: 10})
	require.True(t, ok)
	_, lowRelevance, ok := n.Normalize(NewsSample{Sentiment: 0, Articles: 10, Relevance: 0.2})
	require.True(t, ok)

	assert.Greater(t, defaultBase, lowRelevance)
}

func TestNormalizeAll_Velocity(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	previous := n.NormalizeAll("GME", []RawSample{
		RedditSample{Sentiment: 0, Posts: 100},
	}, nil)
	assert.Nil(t, previous.Velocity)

	current := n.NormalizeAll("GME", []RawSample{
		RedditSample{Sentiment: 0.5, Posts: 100},
	}, previous)

	require.NotNil(t, current.Velocity)
	assert.InDelta(t, 0.25, *current.Velocity, 1e-9)
}

func TestNormalizeAll_VelocityUndefinedWhenEmpty(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	previous := n.NormalizeAll("GME", nil, nil)
	current := n.NormalizeAll("GME", []RawSample{
		RedditSample{Sentiment: 0.5, Posts: 100},
	}, previous)

	// Previous snapshot has no usable average, so velocity stays undefined
	assert.Nil(t, current.Velocity)
}

func TestMeetsQualityThreshold(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	single := n.NormalizeAll("AMC", []RawSample{
		RedditSample{Sentiment: 0.5, Posts: 100},
	}, nil)
	assert.False(t, n.MeetsQualityThreshold(single), "one source is not enough")

	double := n.NormalizeAll("AMC", []RawSample{
		RedditSample{Sentiment: 0.5, Posts: 100},
		StocktwitsSample{Messages: 50, Computed: f64(0.6)},
	}, nil)
	assert.True(t, n.MeetsQualityThreshold(double))

	assert.False(t, n.MeetsQualityThreshold(nil))
}

func TestWeightedAverage(t *testing.T) {
	s := &NormalizedSentiment{
		Scores:  map[Source]float64{SourceReddit: 0.8, SourceNews: 0.4},
		Weights: map[Source]float64{SourceReddit: 0.6, SourceNews: 0.2},
	}

	avg, ok := WeightedAverage(s)
	require.True(t, ok)
	assert.InDelta(t, (0.8*0.6+0.4*0.2)/0.8, avg, 1e-9)

	_, ok = WeightedAverage(&NormalizedSentiment{})
	assert.False(t, ok)

	_, ok = WeightedAverage(nil)
	assert.False(t, ok)
}
