package sentiment

import (
	"time"
)

// Source identifies a sentiment provider
type Source string

const (
	SourceReddit     Source = "reddit"
	SourceStocktwits Source = "stocktwits"
	SourceNews       Source = "news"
	SourceYoutube    Source = "youtube"
)

// Sources lists all known providers in a stable order
var Sources = []Source{SourceReddit, SourceStocktwits, SourceNews, SourceYoutube}

// Valid checks if the source is known
func (s Source) Valid() bool {
	switch s {
	case SourceReddit, SourceStocktwits, SourceNews, SourceYoutube:
		return true
	}
	return false
}

// String returns string representation
func (s Source) String() string {
	return string(s)
}

// RawSample is one provider's raw sentiment payload. Each provider has its
// own variant with an explicit, total mapping in the normalizer; shapes are
// never probed at runtime.
type RawSample interface {
	Source() Source
	Volume() int
}

// RedditSample carries bipolar [-1,1] sentiment aggregated from posts
type RedditSample struct {
	Sentiment float64 // [-1, 1]
	Posts     int
}

func (s RedditSample) Source() Source { return SourceReddit }
func (s RedditSample) Volume() int    { return s.Posts }

// NewsSample carries bipolar [-1,1] sentiment with an explicit relevance
// score used as the confidence base
type NewsSample struct {
	Sentiment float64 // [-1, 1]
	Articles  int
	Relevance float64 // [0, 1]
}

func (s NewsSample) Source() Source { return SourceNews }
func (s NewsSample) Volume() int    { return s.Articles }

// YoutubeSample carries bipolar [-1,1] sentiment aggregated from comments
type YoutubeSample struct {
	Sentiment float64 // [-1, 1]
	Comments  int
}

func (s YoutubeSample) Source() Source { return SourceYoutube }
func (s YoutubeSample) Volume() int    { return s.Comments }

// StocktwitsSample offers several pre-computed unipolar [0,1] scores.
// Selection follows a fixed priority chain: follower-weighted score, then the
// plain computed score, then the bull/bear ratio; with none set the source is
// treated as absent.
type StocktwitsSample struct {
	Messages         int
	FollowerWeighted *float64 // [0, 1]
	Computed         *float64 // [0, 1]
	BullRatio        *float64 // bullish / (bullish + bearish)
}

func (s StocktwitsSample) Source() Source { return SourceStocktwits }
func (s StocktwitsSample) Volume() int    { return s.Messages }

// NormalizedSentiment maps each active source to a uniform [0,1] score and a
// non-negative confidence weight. Sources gated out by minimum volume are
// absent from both maps, never present with a zero score.
type NormalizedSentiment struct {
	Symbol    string
	Timestamp time.Time
	Scores    map[Source]float64
	Weights   map[Source]float64

	// Velocity is the change of the weighted average versus the previous
	// snapshot; nil when either average is undefined
	Velocity *float64

	// Blended is the reddit+stocktwits blend for this snapshot; nil when
	// neither source is active
	Blended *BlendedSentiment
}

// ActiveSources returns how many sources contributed a score
func (n *NormalizedSentiment) ActiveSources() int {
	return len(n.Scores)
}

// TotalWeight sums the confidence weights of all active sources
func (n *NormalizedSentiment) TotalWeight() float64 {
	total := 0.0
	for _, w := range n.Weights {
		total += w
	}
	return total
}

// SourceScore is one source's normalized score and confidence, as consumed by
// the blender
type SourceScore struct {
	Score      float64
	Confidence float64
}

// BlendedSentiment is the weighted combination of two sources
type BlendedSentiment struct {
	Score      float64
	Confidence float64
}
