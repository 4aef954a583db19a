package ingest

import (
	"context"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/async"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	ContentID    string
	Deduplicated bool
	HashHex      string
	FileExt      string
	Status       constants.ProcessingStatus
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the CLI, daemon and watcher depend on.
type Ingestor interface {
	// IngestPath imports a single file as a capture.
	IngestPath(ctx context.Context, path string, source constants.Source) (IngestionResult, error)
	// IngestDirectory imports all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}

// HashLookup finds a previously imported record by content hash.
type HashLookup interface {
	FindByHash(ctx context.Context, hash string) (*entity.ContentItem, error)
}

// Submitter runs a capture job and waits for the stored record.
type Submitter interface {
	SubmitAndWait(ctx context.Context, job async.Job) (*entity.ContentItem, error)
}
