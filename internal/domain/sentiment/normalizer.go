package sentiment

import (
	"math"
)

// NormalizerConfig holds normalization parameters. Volume minimums and
// quality thresholds are configuration, not constants baked into the code.
type NormalizerConfig struct {
	// MinVolume gates each source: below the threshold the source
	// contributes no score and no confidence
	MinVolume map[Source]int

	// BaseConfidence is used when a source has no explicit confidence hint
	BaseConfidence float64

	// Quality gate: a blend is usable only with at least QualityMinSources
	// active sources and a total confidence weight of QualityMinConfidence
	QualityMinSources    int
	QualityMinConfidence float64
}

// DefaultNormalizerConfig returns the standard thresholds
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		MinVolume: map[Source]int{
			SourceReddit:     3,
			SourceStocktwits: 5,
			SourceNews:       2,
			SourceYoutube:    10,
		},
		BaseConfidence:       0.7,
		QualityMinSources:    2,
		QualityMinConfidence: 0.3,
	}
}

// Normalizer maps heterogeneous raw sentiment payloads onto a uniform [0,1]
// scale with confidence weights
type Normalizer struct {
	cfg NormalizerConfig
}

// NewNormalizer creates a normalizer with the given thresholds
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	if cfg.BaseConfidence <= 0 {
		cfg.BaseConfidence = 0.7
	}
	return &Normalizer{cfg: cfg}
}

// Normalize maps one raw sample to (score, confidence weight). ok is false
// when the source is absent: below its minimum volume, or a stocktwits
// payload with no usable score in its priority chain.
func (n *Normalizer) Normalize(sample RawSample) (score, weight float64, ok bool) {
	minVolume := n.cfg.MinVolume[sample.Source()]
	if sample.Volume() < minVolume {
		return 0, 0, false
	}

	base := n.cfg.BaseConfidence

	switch s := sample.(type) {
	case RedditSample:
		score = bipolarToUnit(s.Sentiment)
	case NewsSample:
		score = bipolarToUnit(s.Sentiment)
		if s.Relevance > 0 {
			base = clamp01(s.Relevance)
		}
	case YoutubeSample:
		score = bipolarToUnit(s.Sentiment)
	case StocktwitsSample:
		raw, found := s.pick()
		if !found {
			return 0, 0, false
		}
		score = clamp01(raw)
	default:
		return 0, 0, false
	}

	weight = base * volumeConfidence(sample.Volume(), minVolume)
	return score, weight, true
}

// pick walks the stocktwits score priority chain
func (s StocktwitsSample) pick() (float64, bool) {
	switch {
	case s.FollowerWeighted != nil:
		return *s.FollowerWeighted, true
	case s.Computed != nil:
		return *s.Computed, true
	case s.BullRatio != nil:
		return *s.BullRatio, true
	}
	return 0, false
}

// NormalizeAll normalizes a set of per-source samples into one snapshot.
// When a previous snapshot is supplied, the sentiment velocity is derived
// from the two weighted averages.
func (n *Normalizer) NormalizeAll(symbol string, samples []RawSample, previous *NormalizedSentiment) *NormalizedSentiment {
	out := &NormalizedSentiment{
		Symbol:  symbol,
		Scores:  make(map[Source]float64),
		Weights: make(map[Source]float64),
	}

	for _, sample := range samples {
		score, weight, ok := n.Normalize(sample)
		if !ok {
			continue
		}
		out.Scores[sample.Source()] = score
		out.Weights[sample.Source()] = weight
	}

	if previous != nil {
		if current, ok := WeightedAverage(out); ok {
			if prev, ok := WeightedAverage(previous); ok {
				velocity := current - prev
				out.Velocity = &velocity
			}
		}
	}

	return out
}

// MeetsQualityThreshold reports whether a snapshot carries enough signal to
// be treated as data rather than noise. Callers must treat a failing
// snapshot as "insufficient data", not as zero sentiment.
func (n *Normalizer) MeetsQualityThreshold(s *NormalizedSentiment) bool {
	if s == nil {
		return false
	}
	return s.ActiveSources() >= n.cfg.QualityMinSources &&
		s.TotalWeight() >= n.cfg.QualityMinConfidence
}

// WeightedAverage computes the confidence-weighted mean score across active
// sources; ok is false when no source is active or all weights are zero.
func WeightedAverage(s *NormalizedSentiment) (float64, bool) {
	if s == nil || len(s.Scores) == 0 {
		return 0, false
	}

	var sum, total float64
	for source, score := range s.Scores {
		w := s.Weights[source]
		sum += score * w
		total += w
	}
	if total == 0 {
		return 0, false
	}
	return sum / total, true
}

// bipolarToUnit rescales [-1,1] onto [0,1]
func bipolarToUnit(raw float64) float64 {
	return clamp01((raw + 1) / 2)
}

// volumeConfidence is a logarithmic curve that saturates as volume grows far
// past the minimum, so one very large source cannot dominate unboundedly
// relative to a moderately sized one
func volumeConfidence(volume, minVolume int) float64 {
	if minVolume <= 0 {
		minVolume = 1
	}
	return math.Min(1, math.Log10(float64(volume)/float64(minVolume)+1))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
