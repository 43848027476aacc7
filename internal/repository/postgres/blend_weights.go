package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"hypewatch/internal/domain/sentiment"
	pkgerrors "hypewatch/pkg/errors"
)

// Compile-time check
var _ sentiment.WeightsRepository = (*BlendWeightsRepository)(nil)

// BlendWeightsRepository implements sentiment.WeightsRepository using sqlx
type BlendWeightsRepository struct {
	db *sqlx.DB
}

// NewBlendWeightsRepository creates a new blend weight config repository
func NewBlendWeightsRepository(db *sqlx.DB) *BlendWeightsRepository {
	return &BlendWeightsRepository{db: db}
}

// GetActive returns the latest active configuration record, or nil when none
// exists
func (r *BlendWeightsRepository) GetActive(ctx context.Context) (*sentiment.BlendWeights, error) {
	query := `
		SELECT reddit_weight, stocktwits_weight
		FROM blend_weight_configs
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT 1`

	var weights sentiment.BlendWeights
	err := r.db.GetContext(ctx, &weights, query)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get active blend weights")
	}

	return &weights, nil
}

// Save deactivates prior records and stores a new active configuration
func (r *BlendWeightsRepository) Save(ctx context.Context, weights sentiment.BlendWeights) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to begin weights transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE blend_weight_configs SET is_active = false WHERE is_active = true`,
	); err != nil {
		return pkgerrors.Wrap(err, "failed to deactivate blend weights")
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO blend_weight_configs (reddit_weight, stocktwits_weight, is_active, created_at)
		 VALUES ($1, $2, true, NOW())`,
		weights.Reddit, weights.Stocktwits,
	); err != nil {
		return pkgerrors.Wrap(err, "failed to insert blend weights")
	}

	if err := tx.Commit(); err != nil {
		return pkgerrors.Wrap(err, "failed to commit blend weights")
	}

	return nil
}
