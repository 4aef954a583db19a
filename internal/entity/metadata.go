package entity

import (
	"encoding/json"
	"fmt"
)

// Metadata is the serialized analysis blob stored on a content item.
type Metadata struct {
	Analysis      SemanticAnalysis      `json:"analysis"`
	Structured    StructuredContent     `json:"structured"`
	Connections   []KnowledgeConnection `json:"connections,omitempty"`
	OCRConfidence float64               `json:"ocr_confidence"`
	Warnings      []string              `json:"warnings,omitempty"`
	Extra         map[string]string     `json:"extra,omitempty"`
}

func (m Metadata) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}

// DecodeMetadata parses a stored blob; an empty blob yields a zero Metadata.
func DecodeMetadata(b []byte) (Metadata, error) {
	var m Metadata
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}
