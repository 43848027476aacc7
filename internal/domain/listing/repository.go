package listing

import (
	"context"
	"time"
)

// PageFetcher fetches one page of a source forum's newest-first listing
type PageFetcher interface {
	FetchPage(ctx context.Context, sourceForum, after, token string) (*Page, error)
}

// PartitionStore persists one window's worth of items as a file partition
type PartitionStore interface {
	WritePartition(ctx context.Context, window Window, items []Item) error
}

// RawPostRepository stores fetched items durably for the mention pipeline
type RawPostRepository interface {
	UpsertPosts(ctx context.Context, items []Item) error
	GetByWindow(ctx context.Context, sourceForum string, start, end time.Time) ([]Item, error)
}
