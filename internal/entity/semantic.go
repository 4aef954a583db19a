package entity

import (
	"github.com/google/uuid"
)

// EntityType is the closed set of entity kinds.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityOrganization EntityType = "organization"
	EntityLocation     EntityType = "location"
	EntityEmail        EntityType = "email"
	EntityURL          EntityType = "url"
	EntityPhone        EntityType = "phone"
	EntityOther        EntityType = "other"
)

// DetectedEntity is a named thing found in text. ID is local to one run.
type DetectedEntity struct {
	ID         uuid.UUID  `json:"id"`
	Text       string     `json:"text"`
	Type       EntityType `json:"type"`
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Confidence float64    `json:"confidence"`
}

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// SemanticAnalysis is the output of the semantic stage.
type SemanticAnalysis struct {
	Language       string           `json:"language,omitempty"`
	Sentiment      Sentiment        `json:"sentiment"`
	SentimentScore float64          `json:"sentiment_score"`
	Entities       []DetectedEntity `json:"entities,omitempty"`
	Topics         []string         `json:"topics,omitempty"`
	KeyPhrases     []string         `json:"key_phrases,omitempty"`
	Confidence     float64          `json:"confidence"`
}

// EmptyAnalysis is what a degraded semantic stage yields.
func EmptyAnalysis() SemanticAnalysis {
	return SemanticAnalysis{Sentiment: SentimentNeutral}
}

type RelationshipType string

const (
	RelWorksFor  RelationshipType = "worksFor"
	RelLocatedAt RelationshipType = "locatedAt"
	RelRelatedTo RelationshipType = "relatedTo"
)

// KnowledgeConnection is a directed, scored edge between two entities of one run.
type KnowledgeConnection struct {
	FromID       uuid.UUID        `json:"from_id"`
	ToID         uuid.UUID        `json:"to_id"`
	Relationship RelationshipType `json:"relationship"`
	Strength     float64          `json:"strength"`
	Evidence     string           `json:"evidence"`
}

// Clamp01 bounds a confidence-like score to [0,1].
func Clamp01(v float64) float64 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	}
	return v
}
