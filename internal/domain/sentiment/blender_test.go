package sentiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypewatch/pkg/errors"
)

// fakeWeightsRepo is an in-memory weights repository
type fakeWeightsRepo struct {
	active  *BlendWeights
	saved   []BlendWeights
	getErr  error
	saveErr error
}

func (r *fakeWeightsRepo) GetActive(ctx context.Context) (*BlendWeights, error) {
	return r.active, r.getErr
}

func (r *fakeWeightsRepo) Save(ctx context.Context, weights BlendWeights) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, weights)
	r.active = &weights
	return nil
}

func TestBlendWeights_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		input BlendWeights
		want  BlendWeights
	}{
		{"already normalized", BlendWeights{Reddit: 0.6, Stocktwits: 0.4}, BlendWeights{Reddit: 0.6, Stocktwits: 0.4}},
		{"renormalizes", BlendWeights{Reddit: 3, Stocktwits: 1}, BlendWeights{Reddit: 0.75, Stocktwits: 0.25}},
		{"clamps negatives", BlendWeights{Reddit: -1, Stocktwits: 0.5}, BlendWeights{Reddit: 0, Stocktwits: 1}},
		{"all zero falls back to default", BlendWeights{}, DefaultBlendWeights},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.input.Normalize()
			assert.InDelta(t, tt.want.Reddit, got.Reddit, 1e-9)
			assert.InDelta(t, tt.want.Stocktwits, got.Stocktwits, 1e-9)
			assert.InDelta(t, 1.0, got.Reddit+got.Stocktwits, 1e-9)
		})
	}
}

func TestBlender_Blend(t *testing.T) {
	b := NewBlender(BlendWeights{Reddit: 0.6, Stocktwits: 0.4}, nil)

	reddit := &SourceScore{Score: 0.8, Confidence: 0.7}
	stocktwits := &SourceScore{Score: 0.3, Confidence: 0.5}

	blended := b.Blend(reddit, stocktwits)
	require.NotNil(t, blended)
	assert.InDelta(t, 0.8*0.6+0.3*0.4, blended.Score, 1e-9)
	assert.InDelta(t, 0.7*0.6+0.5*0.4, blended.Confidence, 1e-9)
}

func TestBlender_SingleSourcePassthrough(t *testing.T) {
	b := NewBlender(BlendWeights{Reddit: 0.6, Stocktwits: 0.4}, nil)

	reddit := &SourceScore{Score: 0.8, Confidence: 0.7}

	blended := b.Blend(reddit, nil)
	require.NotNil(t, blended)
	assert.Equal(t, 0.8, blended.Score)
	assert.Equal(t, 0.7, blended.Confidence)

	blended = b.Blend(nil, &SourceScore{Score: 0.3, Confidence: 0.5})
	require.NotNil(t, blended)
	assert.Equal(t, 0.3, blended.Score)
}

func TestBlender_BothAbsent(t *testing.T) {
	b := NewBlender(DefaultBlendWeights, nil)
	assert.Nil(t, b.Blend(nil, nil))
}

func TestBlender_SetWeightsPersistsNormalized(t *testing.T) {
	repo := &fakeWeightsRepo{}
	b := NewBlender(DefaultBlendWeights, repo)

	err := b.SetWeights(context.Background(), BlendWeights{Reddit: 2, Stocktwits: 2})
	require.NoError(t, err)

	require.Len(t, repo.saved, 1)
	assert.InDelta(t, 0.5, repo.saved[0].Reddit, 1e-9)
	assert.InDelta(t, 0.5, repo.saved[0].Stocktwits, 1e-9)
	assert.InDelta(t, 0.5, b.Weights().Reddit, 1e-9)
}

func TestBlender_ReloadMissingRecordKeepsCurrent(t *testing.T) {
	repo := &fakeWeightsRepo{active: nil}
	b := NewBlender(BlendWeights{Reddit: 0.7, Stocktwits: 0.3}, repo)

	err := b.Reload(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.7, b.Weights().Reddit, 1e-9)
}

func TestBlender_ReloadErrorKeepsCurrent(t *testing.T) {
	repo := &fakeWeightsRepo{getErr: errors.ErrUnavailable}
	b := NewBlender(BlendWeights{Reddit: 0.7, Stocktwits: 0.3}, repo)

	err := b.Reload(context.Background())
	require.Error(t, err)
	assert.InDelta(t, 0.7, b.Weights().Reddit, 1e-9)
}

func TestBlender_ReloadAppliesStoredWeights(t *testing.T) {
	repo := &fakeWeightsRepo{active: &BlendWeights{Reddit: 1, Stocktwits: 3}}
	b := NewBlender(DefaultBlendWeights, repo)

	err := b.Reload(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.25, b.Weights().Reddit, 1e-9)
	assert.InDelta(t, 0.75, b.Weights().Stocktwits, 1e-9)
}
