package extract

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/capture-tracker/internal/ocr"
)

type OCRAdapter struct {
	r      ocr.Recognizer
	logger *slog.Logger
}

func NewOCRAdapter(r ocr.Recognizer, logger *slog.Logger) *OCRAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &OCRAdapter{r: r, logger: logger}
}

func (a *OCRAdapter) Recognize(ctx context.Context, img []byte) (Recognition, error) {
	res, err := a.r.Recognize(ctx, img)
	if len(res.Warnings) > 0 {
		a.logger.Warn("extract.ocr.warnings", "count", len(res.Warnings), "first", res.Warnings[0])
	}
	return Recognition{
		Text:       res.Text,
		Elements:   res.Elements,
		Confidence: res.Confidence,
		Language:   res.Language,
		Duration:   res.Duration,
		Warnings:   res.Warnings,
	}, err
}
