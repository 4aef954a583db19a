package server

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/ingest"
)

// Ingestor is the file import behavior the service exposes.
type Ingestor interface {
	IngestPath(ctx context.Context, path string, source constants.Source) (ingest.IngestionResult, error)
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]ingest.IngestionResult, ingest.DirStats, error)
}

// IngestFile accepts {path} and imports one file from the daemon's filesystem.
func (s *CaptureService) IngestFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	path := str(req, "path")
	if path == "" {
		return nil, status.Error(codes.InvalidArgument, "path is required")
	}

	s.logger.Info("server.ingest.file", "path", path)
	r, err := s.ingest.IngestPath(ctx, path, constants.SourceFileImport)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return toStruct(resultView(r))
}

// IngestDirectory accepts {root_path, skip_hidden}. skip_hidden defaults to true.
func (s *CaptureService) IngestDirectory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	root := str(req, "root_path")
	if root == "" {
		return nil, status.Error(codes.InvalidArgument, "root_path is required")
	}
	skipHidden := flag(req, "skip_hidden", true)

	s.logger.Info("server.ingest.directory", "root", root, "skip_hidden", skipHidden)
	results, stats, err := s.ingest.IngestDirectory(ctx, root, skipHidden)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "ingest directory: %v", err)
	}

	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		out = append(out, resultView(r))
	}
	return toStruct(map[string]any{
		"scanned":      stats.Scanned,
		"matched":      stats.Matched,
		"succeeded":    stats.Succeeded,
		"deduplicated": stats.Deduplicated,
		"failed":       stats.Failed,
		"results":      out,
	})
}

func resultView(r ingest.IngestionResult) map[string]any {
	return map[string]any{
		"source_path":      r.SourcePath,
		"content_id":       r.ContentID,
		"deduplicated":     r.Deduplicated,
		"content_hash_hex": r.HashHex,
		"file_ext":         r.FileExt,
		"status":           string(r.Status),
		"error":            r.Err,
	}
}
