package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"hypewatch/internal/domain/listing"
	pkgerrors "hypewatch/pkg/errors"
)

// Compile-time check
var _ listing.RawPostRepository = (*RawPostRepository)(nil)

// RawPostRepository implements listing.RawPostRepository using sqlx
type RawPostRepository struct {
	db *sqlx.DB
}

// NewRawPostRepository creates a new raw post repository
func NewRawPostRepository(db *sqlx.DB) *RawPostRepository {
	return &RawPostRepository{db: db}
}

// UpsertPosts inserts fetched items, replacing mutable fields on conflict so
// window re-runs stay idempotent
func (r *RawPostRepository) UpsertPosts(ctx context.Context, items []listing.Item) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO raw_posts (
			id, source_forum, title, body, created_at,
			permalink, author, url, is_self_post, is_adult,
			comment_count, score, flair_text
		) VALUES (
			:id, :source_forum, :title, :body, :created_at,
			:permalink, :author, :url, :is_self_post, :is_adult,
			:comment_count, :score, :flair_text
		)
		ON CONFLICT (source_forum, id) DO UPDATE SET
			title = EXCLUDED.title,
			body = EXCLUDED.body,
			comment_count = EXCLUDED.comment_count,
			score = EXCLUDED.score,
			flair_text = EXCLUDED.flair_text`

	if _, err := r.db.NamedExecContext(ctx, query, items); err != nil {
		return pkgerrors.Wrap(err, "failed to upsert raw posts")
	}

	return nil
}

// GetByWindow retrieves posts for a source created inside [start, end)
func (r *RawPostRepository) GetByWindow(ctx context.Context, sourceForum string, start, end time.Time) ([]listing.Item, error) {
	query := `
		SELECT id, source_forum, title, body, created_at,
			permalink, author, url, is_self_post, is_adult,
			comment_count, score, flair_text
		FROM raw_posts
		WHERE source_forum = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at`

	var items []listing.Item
	err := r.db.SelectContext(ctx, &items, query, sourceForum, start.Unix(), end.Unix())
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get raw posts by window")
	}

	return items, nil
}
