package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

// TextRecognizer is the OCR collaborator: image bytes -> positioned text.
type TextRecognizer interface {
	Recognize(ctx context.Context, img []byte) (Recognition, error)
}

type Recognition struct {
	Text       string
	Elements   []entity.TextElement
	Confidence float64
	Language   string
	Duration   time.Duration
	Warnings   []string
}

// PageFetcher resolves a URL capture into readable text.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

type Page struct {
	URL   string
	Title string
	Text  string
}
