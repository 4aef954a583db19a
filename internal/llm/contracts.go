package llm

// AnalysisFields is the normalized shape we want from the model.
type AnalysisFields struct {
	Language           string        `json:"language,omitempty"` // BCP 47
	LanguageConfidence float64       `json:"language_confidence,omitempty"`
	SentimentScore     float64       `json:"sentiment_score"` // [-1,1]
	Entities           []EntityField `json:"entities"`
	Topics             []string      `json:"topics,omitempty"`
	KeyPhrases         []string      `json:"key_phrases,omitempty"`
}

type EntityField struct {
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence,omitempty"`
}

// EntityTypes is the closed set the schema allows for EntityField.Type.
var EntityTypes = []string{"person", "organization", "location", "email", "url", "phone", "other"}
