package server

import (
	"context"
	"encoding/base64"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/export"
)

// Exporter produces the XLSX workbook.
type Exporter interface {
	ExportXLSX(ctx context.Context, w export.Window) ([]byte, error)
}

// ExportXLSX accepts {from_date, to_date, favorite_only} with YYYY-MM-DD dates.
// Only from -> from..today, only to -> beginning..to, none -> everything.
func (s *CaptureService) ExportXLSX(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	from, err := optDate(req, "from_date")
	if err != nil {
		return nil, err
	}
	to, err := optDate(req, "to_date")
	if err != nil {
		return nil, err
	}

	xlsx, err := s.export.ExportXLSX(ctx, export.Window{From: from, To: to, FavoriteOnly: flag(req, "favorite_only", false)})
	if err != nil {
		s.logger.Error("export.xlsx.failed", "error", err)
		return nil, common.ToStatus(err)
	}
	return toStruct(map[string]any{
		"xlsx_base64": base64.StdEncoding.EncodeToString(xlsx),
		"bytes":       len(xlsx),
	})
}
