package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/async"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

// MaxImportBytes caps the size of a single imported file.
const MaxImportBytes = 50 << 20

// FSIngestor turns local files into captures. Files whose sha256 matches a
// stored, non-failed record are skipped.
type FSIngestor struct {
	lookup HashLookup
	submit Submitter
	logger *slog.Logger
}

func NewFSIngestor(lookup HashLookup, submit Submitter, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{lookup: lookup, submit: submit, logger: logger}
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string, source constants.Source) (IngestionResult, error) {
	out := IngestionResult{SourcePath: path}

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	out.FileExt = ext
	format := constants.MapExtToFormat(ext)
	if ext == "" || !AllowedExt(ext) || format == "" {
		return out, fmt.Errorf("%w: unsupported or missing extension %q", common.ErrInvalidInput, ext)
	}

	st, err := os.Stat(abs)
	if err != nil {
		return out, fmt.Errorf("stat: %w", err)
	}
	if st.Size() > MaxImportBytes {
		return out, fmt.Errorf("%w: file is %d bytes, limit %d", common.ErrInvalidInput, st.Size(), MaxImportBytes)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return out, fmt.Errorf("read: %w", err)
	}
	out.HashHex = hashHex(data)

	if existing, err := i.lookup.FindByHash(ctx, out.HashHex); err == nil && existing.Status != constants.StatusFailed {
		out.ContentID = existing.ID.String()
		out.Deduplicated = true
		out.Status = existing.Status
		i.logger.Info("ingest.file.deduplicated", "path", abs, "content_id", existing.ID)
		return out, nil
	} else if err != nil && !errors.Is(err, common.ErrNotFound) {
		return out, fmt.Errorf("lookup hash: %w", err)
	}

	capture := entity.Capture{
		Source:      source,
		ContentHash: out.HashHex,
		CapturedAt:  st.ModTime().UTC(),
		Metadata:    map[string]string{"filename": filepath.Base(abs), "path": abs},
	}
	if format == constants.IMAGE {
		capture.ContentType = constants.ContentImage
		capture.ImageData = data
	} else {
		text, err := decodeText(data)
		if err != nil {
			return out, err
		}
		capture.ContentType = constants.ContentText
		capture.Text = text
	}

	start := time.Now()
	item, err := i.submit.SubmitAndWait(ctx, async.Job{Key: out.HashHex, Capture: capture, SubmittedAt: start})
	if errors.Is(err, common.ErrAlreadyProcessing) {
		out.Deduplicated = true
		out.Status = constants.StatusProcessing
		return out, nil
	}
	if item != nil {
		out.ContentID = item.ID.String()
		out.Status = item.Status
	}
	if err != nil {
		i.logger.Error("ingest.file.failed", "path", abs, "error", err)
		return out, err
	}
	i.logger.Info("ingest.file.ok",
		"path", abs,
		"content_id", item.ID,
		"tasks", len(item.Tasks),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
