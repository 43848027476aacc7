package mention

import (
	"context"
	"time"
)

// Repository re-derives mention rows for a time window. Upsert/replace
// semantics are owned by the storage layer: re-running the same window must
// recompute mentions without duplicating them.
type Repository interface {
	RefreshWindow(ctx context.Context, start, end time.Time) (RefreshResult, error)
}

// Locker guards a refresh window against concurrent runs over overlapping
// ranges
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}
