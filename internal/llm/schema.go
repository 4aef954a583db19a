package llm

// BuildAnalysisJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It is sent to the model as the output contract and also used locally to validate.
func BuildAnalysisJSONSchema() map[string]any {
	entity := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"text":       map[string]any{"type": "string", "minLength": 1},
			"type":       map[string]any{"type": "string", "enum": EntityTypes},
			"confidence": unitProp(),
		},
		"required": []string{"text", "type"},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"language":            map[string]any{"type": "string", "pattern": `^[a-z]{2,3}(-[A-Za-z0-9]{2,8})*$`},
			"language_confidence": unitProp(),
			"sentiment_score":     map[string]any{"type": "number", "minimum": -1.0, "maximum": 1.0},
			"entities":            map[string]any{"type": "array", "items": entity},
			"topics":              stringList(),
			"key_phrases":         stringList(),
		},
		"required": []string{"sentiment_score", "entities"},
	}
}

func unitProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}
}

func stringList() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string", "minLength": 1}}
}
