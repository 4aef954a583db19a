package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/capture-tracker/constants"
)

// ContentItem is the durable record produced by a pipeline run.
type ContentItem struct {
	ID          uuid.UUID                  `json:"id"`
	Title       string                     `json:"title"`
	Preview     string                     `json:"preview"`
	FullText    string                     `json:"full_text"`
	OCRText     string                     `json:"ocr_text"`
	ContentType constants.ContentType      `json:"content_type"`
	Source      constants.Source           `json:"source"`
	SourceURL   string                     `json:"source_url,omitempty"`
	Favorite    bool                       `json:"favorite"`
	Status      constants.ProcessingStatus `json:"status"`
	Confidence  float64                    `json:"confidence"`
	ContentHash string                     `json:"content_hash,omitempty"`
	Error       string                     `json:"error,omitempty"`
	Attachment  []byte                     `json:"-"`
	Metadata    []byte                     `json:"metadata,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   time.Time                  `json:"updated_at"`

	Tasks []GeneratedTask `json:"tasks,omitempty"`
}

// ContentFilter narrows content listings. Zero values mean "any".
type ContentFilter struct {
	ContentType  constants.ContentType
	Status       constants.ProcessingStatus
	FavoriteOnly bool
	Limit        int
	Offset       int
}

// ContentEdit carries user edits; nil fields are left unchanged.
type ContentEdit struct {
	Title    *string
	FullText *string
}
