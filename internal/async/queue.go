package async

import (
	"context"
	"time"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/pipeline"
)

// Job is one capture waiting for a processing slot.
type Job struct {
	// Key identifies the work for duplicate detection: a content hash, a content id
	// being reprocessed, or empty for "always unique".
	Key         string
	Capture     entity.Capture
	Priority    int // higher runs first; defaults to Capture.Priority
	SubmittedAt time.Time
	TraceID     string
	Progress    pipeline.ProgressFunc
}

// Result is delivered once per submitted job.
type Result struct {
	Key  string
	Item *entity.ContentItem
	Err  error
}

type Queue interface {
	Submit(ctx context.Context, job Job) (<-chan Result, error)
	Shutdown(ctx context.Context) error
}
