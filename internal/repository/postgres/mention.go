package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"hypewatch/internal/domain/mention"
	pkgerrors "hypewatch/pkg/errors"
)

// Compile-time check
var _ mention.Repository = (*MentionRepository)(nil)

// MentionRepository implements mention.Repository using sqlx.
// The actual cashtag/keyword extraction and upsert live in the
// refresh_mentions database function, so re-running a window replaces its
// rows instead of duplicating them.
type MentionRepository struct {
	db *sqlx.DB
}

// NewMentionRepository creates a new mention repository
func NewMentionRepository(db *sqlx.DB) *MentionRepository {
	return &MentionRepository{db: db}
}

// RefreshWindow re-derives mention rows for [start, end)
func (r *MentionRepository) RefreshWindow(ctx context.Context, start, end time.Time) (mention.RefreshResult, error) {
	query := `
		SELECT cashtag_rows, keyword_rows, total_rows
		FROM refresh_mentions($1, $2)`

	var result mention.RefreshResult
	err := r.db.GetContext(ctx, &result, query,
		start.UTC().Format(time.RFC3339),
		end.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mention.RefreshResult{}, pkgerrors.Wrap(err, "failed to refresh mention window")
	}

	return result, nil
}
