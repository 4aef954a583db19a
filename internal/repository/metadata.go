package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/capture-tracker/internal/common"
)

// metadataSchema describes the analysis blob stored on content_items.metadata.
var metadataSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"analysis": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"language":        map[string]any{"type": "string"},
				"sentiment":       map[string]any{"enum": []any{"positive", "negative", "neutral", ""}},
				"sentiment_score": map[string]any{"type": "number", "minimum": -1, "maximum": 1},
				"entities": map[string]any{
					"type": []any{"array", "null"},
					"items": map[string]any{
						"type":     "object",
						"required": []any{"id", "text", "type"},
						"properties": map[string]any{
							"confidence": unitInterval(),
						},
					},
				},
				"topics":      stringArray(),
				"key_phrases": stringArray(),
				"confidence":  unitInterval(),
			},
		},
		"structured": map[string]any{"type": "object"},
		"connections": map[string]any{
			"type": []any{"array", "null"},
			"items": map[string]any{
				"type":     "object",
				"required": []any{"from_id", "to_id", "relationship", "strength"},
				"properties": map[string]any{
					"strength": unitInterval(),
				},
			},
		},
		"ocr_confidence": unitInterval(),
		"warnings":       stringArray(),
		"extra": map[string]any{
			"type":                 "object",
			"additionalProperties": map[string]any{"type": "string"},
		},
	},
}

func unitInterval() map[string]any {
	return map[string]any{"type": "number", "minimum": 0, "maximum": 1}
}

func stringArray() map[string]any {
	return map[string]any{"type": []any{"array", "null"}, "items": map[string]any{"type": "string"}}
}

var compiledMetadataSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	b, err := json.Marshal(metadataSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("metadata.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("metadata.json")
})

// ValidateMetadata checks a metadata blob before it is written. An empty blob is valid.
func ValidateMetadata(blob []byte) error {
	if len(bytes.TrimSpace(blob)) == 0 {
		return nil
	}
	schema, err := compiledMetadataSchema()
	if err != nil {
		return fmt.Errorf("compile metadata schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(blob, &v); err != nil {
		return fmt.Errorf("%w: metadata is not JSON: %v", common.ErrValidation, err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: metadata does not match schema: %v", common.ErrValidation, err)
	}
	return nil
}
