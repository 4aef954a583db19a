// Package graph links entities of one capture by textual proximity.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

const (
	// StrengthThreshold is exclusive: an edge needs strength above it.
	StrengthThreshold = 0.5
	// MinProximityWindow keeps short texts from collapsing the window to a few runes.
	MinProximityWindow = 50
)

var eventKeywords = []string{
	"meeting", "conference", "event", "party", "summit", "concert",
	"wedding", "workshop", "dinner", "lunch", "festival", "webinar",
}

// Extractor derives knowledge connections from a run's entities.
type Extractor interface {
	Extract(ctx context.Context, entities []entity.DetectedEntity, text string) ([]entity.KnowledgeConnection, error)
}

type ProximityExtractor struct {
	logger *slog.Logger
}

func NewProximityExtractor(logger *slog.Logger) *ProximityExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProximityExtractor{logger: logger}
}

// Extract scores every ordered pair of distinct entities. Quadratic in entity count.
func (x *ProximityExtractor) Extract(ctx context.Context, entities []entity.DetectedEntity, text string) ([]entity.KnowledgeConnection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	textLen := utf8.RuneCountInString(text)
	var out []entity.KnowledgeConnection
	for i, a := range entities {
		for j, b := range entities {
			if i == j || a.ID == b.ID {
				continue
			}
			distance := a.Start - b.Start
			if distance < 0 {
				distance = -distance
			}
			strength := Proximity(distance, textLen)
			if strength <= StrengthThreshold {
				continue
			}
			out = append(out, entity.KnowledgeConnection{
				FromID:       a.ID,
				ToID:         b.ID,
				Relationship: Classify(a, b),
				Strength:     entity.Clamp01(strength),
				Evidence:     fmt.Sprintf("%q and %q appear %d characters apart", a.Text, b.Text, distance),
			})
		}
	}
	x.logger.Debug("graph.extract.ok", "entities", len(entities), "connections", len(out))
	return out, nil
}

// Proximity is max(0, 1 - distance/window) where window is a tenth of the text
// length, floored at MinProximityWindow and never wider than the text.
func Proximity(distance, textLen int) float64 {
	if textLen <= 0 {
		return 0
	}
	window := max(textLen/10, MinProximityWindow)
	window = min(window, textLen)
	return math.Max(0, 1-float64(distance)/float64(window))
}

// Classify applies the directed type-pair table.
func Classify(from, to entity.DetectedEntity) entity.RelationshipType {
	switch {
	case from.Type == entity.EntityPerson && to.Type == entity.EntityOrganization:
		return entity.RelWorksFor
	case IsEvent(from) && to.Type == entity.EntityLocation:
		return entity.RelLocatedAt
	}
	return entity.RelRelatedTo
}

// IsEvent reports whether an untyped entity names an event.
func IsEvent(e entity.DetectedEntity) bool {
	if e.Type != entity.EntityOther {
		return false
	}
	lower := strings.ToLower(e.Text)
	for _, kw := range eventKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
