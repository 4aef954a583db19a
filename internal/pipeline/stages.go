package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/extract"
)

// extracted is the text input gathered before OCR.
type extracted struct {
	text  string
	title string
	url   string
}

// extract resolves the capture's non-image text. URL captures are fetched.
func (p *Processor) extract(ctx context.Context, c entity.Capture) (extracted, error) {
	if c.ContentType != constants.ContentURL {
		return extracted{text: c.Text}, nil
	}
	if p.deps.Fetcher == nil {
		return extracted{}, fmt.Errorf("%w: no page fetcher configured", common.ErrExtractionFailed)
	}
	page, err := p.deps.Fetcher.Fetch(ctx, c.SourceURL)
	if err != nil {
		if !errors.Is(err, common.ErrExtractionFailed) {
			err = fmt.Errorf("%w: %w", common.ErrExtractionFailed, err)
		}
		return extracted{}, err
	}
	return extracted{text: combineText(c.Text, page.Text), title: page.Title, url: page.URL}, nil
}

// recognize runs OCR when the capture carries image bytes.
func (p *Processor) recognize(ctx context.Context, c entity.Capture) (extract.Recognition, error) {
	if !c.HasImage() {
		return extract.Recognition{}, nil
	}
	if p.deps.OCR == nil {
		return extract.Recognition{}, fmt.Errorf("%w: no recognizer configured", common.ErrOCRFailed)
	}
	rec, err := p.deps.OCR.Recognize(ctx, c.ImageData)
	if err != nil {
		if !errors.Is(err, common.ErrOCRFailed) {
			err = fmt.Errorf("%w: %w", common.ErrOCRFailed, err)
		}
		return extract.Recognition{}, err
	}
	common.LoggerFromContext(ctx, p.logger).Debug("processor.ocr.ok",
		"elements", len(rec.Elements),
		"confidence", rec.Confidence,
		"language", rec.Language,
		"elapsed_ms", rec.Duration.Milliseconds(),
	)
	return rec, nil
}
