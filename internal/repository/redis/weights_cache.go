package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"hypewatch/internal/domain/sentiment"
	"hypewatch/pkg/errors"
)

const weightsKey = "sentiment:blend_weights"

// WeightsCache caches the active blend-weight configuration in Redis so
// dashboard reads skip Postgres. It decorates the persistent repository:
// writes go through, reads prefer the cache.
type WeightsCache struct {
	client *redis.Client
	next   sentiment.WeightsRepository
	ttl    time.Duration
}

// Compile-time check
var _ sentiment.WeightsRepository = (*WeightsCache)(nil)

// NewWeightsCache wraps a weights repository with a Redis cache
func NewWeightsCache(client *redis.Client, next sentiment.WeightsRepository, ttl time.Duration) *WeightsCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &WeightsCache{client: client, next: next, ttl: ttl}
}

// GetActive returns cached weights when fresh, falling back to the
// underlying repository and repopulating the cache
func (c *WeightsCache) GetActive(ctx context.Context) (*sentiment.BlendWeights, error) {
	data, err := c.client.Get(ctx, weightsKey).Bytes()
	if err == nil {
		var weights sentiment.BlendWeights
		if err := json.Unmarshal(data, &weights); err == nil {
			return &weights, nil
		}
		// Corrupt cache entry: drop it and fall through
		_ = c.client.Del(ctx, weightsKey).Err()
	} else if err != redis.Nil {
		return nil, errors.Wrap(err, "failed to read weights cache")
	}

	weights, err := c.next.GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if weights != nil {
		c.populate(ctx, *weights)
	}
	return weights, nil
}

// Save persists the weights and refreshes the cache
func (c *WeightsCache) Save(ctx context.Context, weights sentiment.BlendWeights) error {
	if err := c.next.Save(ctx, weights); err != nil {
		return err
	}
	c.populate(ctx, weights)
	return nil
}

func (c *WeightsCache) populate(ctx context.Context, weights sentiment.BlendWeights) {
	data, err := json.Marshal(weights)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, weightsKey, data, c.ttl).Err()
}
