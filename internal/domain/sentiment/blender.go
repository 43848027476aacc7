package sentiment

import (
	"context"
	"sync"

	"hypewatch/pkg/logger"
)

// BlendWeights splits the blend between reddit and stocktwits.
// Invariant: both weights are in [0,1] and sum to 1; Normalize enforces this
// on every update.
type BlendWeights struct {
	Reddit     float64 `json:"reddit_weight" db:"reddit_weight"`
	Stocktwits float64 `json:"stocktwits_weight" db:"stocktwits_weight"`
}

// DefaultBlendWeights is the preset used when no configuration record exists
var DefaultBlendWeights = BlendWeights{Reddit: 0.6, Stocktwits: 0.4}

// Normalize renormalizes the weights to sum to 1, clamping negatives to zero.
// A degenerate all-zero input falls back to the default preset.
func (w BlendWeights) Normalize() BlendWeights {
	r, s := w.Reddit, w.Stocktwits
	if r < 0 {
		r = 0
	}
	if s < 0 {
		s = 0
	}
	total := r + s
	if total == 0 {
		return DefaultBlendWeights
	}
	return BlendWeights{Reddit: r / total, Stocktwits: s / total}
}

// Blender combines two sources' normalized scores into one blended score and
// confidence. Weight state is explicit: loaded once at construction via
// Reload and replaced atomically on updates, never cached at module level.
type Blender struct {
	mu      sync.RWMutex
	weights BlendWeights
	repo    WeightsRepository
	log     *logger.Logger
}

// NewBlender creates a blender with the given starting weights.
// repo may be nil when persistence is not wired (tests).
func NewBlender(weights BlendWeights, repo WeightsRepository) *Blender {
	return &Blender{
		weights: weights.Normalize(),
		repo:    repo,
		log:     logger.Get().With("component", "sentiment_blender"),
	}
}

// Reload replaces the weights with the latest active configuration record.
// A missing or malformed record keeps the current weights.
func (b *Blender) Reload(ctx context.Context) error {
	if b.repo == nil {
		return nil
	}

	stored, err := b.repo.GetActive(ctx)
	if err != nil {
		b.log.Warn("Blend weight reload failed, keeping current weights", "error", err)
		return err
	}
	if stored == nil {
		return nil
	}

	b.mu.Lock()
	b.weights = stored.Normalize()
	b.mu.Unlock()

	b.log.Info("Blend weights reloaded",
		"reddit", b.Weights().Reddit,
		"stocktwits", b.Weights().Stocktwits,
	)
	return nil
}

// SetWeights applies a user-initiated weight edit. The pair is renormalized
// immediately and persisted; it takes effect on the next Blend call.
func (b *Blender) SetWeights(ctx context.Context, weights BlendWeights) error {
	normalized := weights.Normalize()

	b.mu.Lock()
	b.weights = normalized
	b.mu.Unlock()

	if b.repo != nil {
		if err := b.repo.Save(ctx, normalized); err != nil {
			return err
		}
	}
	return nil
}

// Weights returns the current weight split
func (b *Blender) Weights() BlendWeights {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.weights
}

// Blend combines the two sources. With both present the result is the
// weighted combination; with exactly one present that source passes through
// unchanged; with neither present the result is nil. Absence propagates, it
// never becomes a neutral score.
func (b *Blender) Blend(reddit, stocktwits *SourceScore) *BlendedSentiment {
	switch {
	case reddit == nil && stocktwits == nil:
		return nil
	case stocktwits == nil:
		return &BlendedSentiment{Score: reddit.Score, Confidence: reddit.Confidence}
	case reddit == nil:
		return &BlendedSentiment{Score: stocktwits.Score, Confidence: stocktwits.Confidence}
	}

	w := b.Weights()
	return &BlendedSentiment{
		Score:      reddit.Score*w.Reddit + stocktwits.Score*w.Stocktwits,
		Confidence: reddit.Confidence*w.Reddit + stocktwits.Confidence*w.Stocktwits,
	}
}
