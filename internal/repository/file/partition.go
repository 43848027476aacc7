package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hypewatch/internal/domain/listing"
	pkgerrors "hypewatch/pkg/errors"
)

// Compile-time check
var _ listing.PartitionStore = (*PartitionStore)(nil)

// partitionRecord is one output line: the item plus an ISO timestamp for
// downstream convenience
type partitionRecord struct {
	listing.Item
	CreatedAtISO string `json:"created_at_iso"`
}

// PartitionStore writes one newline-delimited-JSON file per (source, day).
// Writes are atomic (temp file + rename) and deterministic, so re-running a
// window overwrites the partition with byte-identical content given
// identical input. Empty windows still produce an empty file as an explicit
// "attempted" marker.
type PartitionStore struct {
	baseDir string
}

// NewPartitionStore creates a partition store rooted at baseDir
func NewPartitionStore(baseDir string) *PartitionStore {
	return &PartitionStore{baseDir: baseDir}
}

// WritePartition persists a window's items
func (s *PartitionStore) WritePartition(ctx context.Context, window listing.Window, items []listing.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Join(s.baseDir, window.SourceForum)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return pkgerrors.Wrap(err, "create partition directory")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, item := range items {
		record := partitionRecord{
			Item:         item,
			CreatedAtISO: item.CreatedTime().Format(time.RFC3339),
		}
		if err := enc.Encode(record); err != nil {
			return pkgerrors.Wrap(err, "encode partition record")
		}
	}

	path := s.PartitionPath(window)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return pkgerrors.Wrap(err, "write partition file")
	}
	if err := os.Rename(tmp, path); err != nil {
		return pkgerrors.Wrap(err, "publish partition file")
	}

	return nil
}

// PartitionPath returns the output path for a window
func (s *PartitionStore) PartitionPath(window listing.Window) string {
	name := fmt.Sprintf("%s_%s.ndjson", window.SourceForum, window.Day.Format("2006-01-02"))
	return filepath.Join(s.baseDir, window.SourceForum, name)
}
