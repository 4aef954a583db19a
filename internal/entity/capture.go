package entity

import (
	"net/url"
	"strings"
	"time"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/common"
)

// Capture is one unit of user-initiated content handed to the pipeline.
// Treat it as immutable once submitted.
type Capture struct {
	ContentType constants.ContentType `json:"content_type"`
	ImageData   []byte                `json:"image_data,omitempty"`
	Text        string                `json:"text,omitempty"`
	SourceURL   string                `json:"source_url,omitempty"`
	Source      constants.Source      `json:"source"`
	Metadata    map[string]string     `json:"metadata,omitempty"`
	CapturedAt  time.Time             `json:"captured_at"`

	// ContentHash is the hex sha256 of the originating file, set by file import.
	ContentHash string `json:"content_hash,omitempty"`
	// Priority orders queued captures; higher runs first.
	Priority int `json:"priority,omitempty"`
}

// HasImage reports whether the capture carries image bytes.
func (c Capture) HasImage() bool { return len(c.ImageData) > 0 }

// Validate rejects malformed captures before they reach the pipeline.
// Empty text is allowed for text and mixed captures and yields an empty record.
func (c Capture) Validate() error {
	v := common.NewValidator()
	v.Field("content_type", c.ContentType, contentTypeRule)
	switch c.ContentType {
	case constants.ContentImage:
		v.Field("image_data", c.ImageData, nonEmptyBytes)
	case constants.ContentURL:
		v.Field("source_url", c.SourceURL, common.Required, absoluteURL)
	}
	if c.SourceURL != "" && c.ContentType != constants.ContentURL {
		v.Field("source_url", c.SourceURL, absoluteURL)
	}
	if v.HasErrors() {
		return common.NewAppError("INVALID_CAPTURE", v.ErrorMessage(), common.ErrInvalidCapture)
	}
	return nil
}

func contentTypeRule(field string, value interface{}) *common.ValidationError {
	ct, _ := value.(constants.ContentType)
	if !ct.Valid() {
		return &common.ValidationError{Field: field, Value: value, Message: "must be one of image, text, url, mixed"}
	}
	return nil
}

func nonEmptyBytes(field string, value interface{}) *common.ValidationError {
	b, _ := value.([]byte)
	if len(b) == 0 {
		return &common.ValidationError{Field: field, Value: "<empty>", Message: "is required for image captures"}
	}
	return nil
}

func absoluteURL(field string, value interface{}) *common.ValidationError {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &common.ValidationError{Field: field, Value: value, Message: "must be an absolute http(s) URL"}
	}
	return nil
}
