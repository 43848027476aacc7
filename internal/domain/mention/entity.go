package mention

import (
	"time"

	"github.com/google/uuid"
)

// MatchKind distinguishes how a symbol was detected in free text
type MatchKind string

const (
	MatchCashtag MatchKind = "cashtag" // $SYMBOL token
	MatchKeyword MatchKind = "keyword" // plain-name match
)

// Valid checks if the match kind is known
func (k MatchKind) Valid() bool {
	return k == MatchCashtag || k == MatchKeyword
}

// String returns string representation
func (k MatchKind) String() string {
	return string(k)
}

// Mention is a derived record tying a symbol to the post it was extracted
// from. Mentions are produced by the window refresher, never created
// directly; one post may yield several mentions.
type Mention struct {
	ID          uuid.UUID `db:"id"`
	Symbol      string    `db:"symbol"`
	SourceID    string    `db:"source_id"`
	MatchKind   MatchKind `db:"match_kind"`
	ExtractedAt time.Time `db:"extracted_at"`
}

// RefreshResult counts the mention rows derived for a window
type RefreshResult struct {
	CashtagRows int64 `json:"cashtag_rows" db:"cashtag_rows"`
	KeywordRows int64 `json:"keyword_rows" db:"keyword_rows"`
	TotalRows   int64 `json:"total_rows" db:"total_rows"`
}

// add accumulates chunk results into a window total
func (r *RefreshResult) add(other RefreshResult) {
	r.CashtagRows += other.CashtagRows
	r.KeywordRows += other.KeywordRows
	r.TotalRows += other.TotalRows
}

// Chunk is one sequential slice of a refresh window
type Chunk struct {
	Start time.Time
	End   time.Time
}

// ChunkError records which chunk failed and why
type ChunkError struct {
	Chunk Chunk
	Err   error
}

// RefreshSummary reports a refresh run: totals over completed chunks plus the
// failure marker for the chunk that aborted the run, if any
type RefreshSummary struct {
	Result          RefreshResult
	ChunksCompleted int
	ChunksTotal     int
	Failed          *ChunkError
}
