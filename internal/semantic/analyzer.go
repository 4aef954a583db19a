package semantic

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/nlp"
)

// Sentiment class thresholds.
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1
)

// Confidence model: a floor, plus credit for length up to fullLengthRunes, plus language certainty.
const (
	baseConfidence  = 0.3
	lengthWeight    = 0.4
	languageWeight  = 0.3
	fullLengthRunes = 500
)

// Analyzer is the semantic stage contract.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (entity.SemanticAnalysis, error)
}

type Stage struct {
	nlp    nlp.Processor
	logger *slog.Logger
	newID  func() uuid.UUID
}

func NewStage(p nlp.Processor, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{nlp: p, logger: logger, newID: uuid.New}
}

// Analyze runs the NLP collaborator and shapes its output. Errors are returned as-is;
// the orchestrator decides to degrade.
func (s *Stage) Analyze(ctx context.Context, text string) (entity.SemanticAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return entity.EmptyAnalysis(), nil
	}
	res, err := s.nlp.Analyze(ctx, text)
	if err != nil {
		return entity.EmptyAnalysis(), fmt.Errorf("nlp analyze: %w", err)
	}

	score := math.Max(-1, math.Min(1, res.SentimentScore))
	out := entity.SemanticAnalysis{
		Language:       res.Language,
		Sentiment:      ClassifySentiment(score),
		SentimentScore: score,
		Entities:       s.dedupe(res.Entities),
		Topics:         MatchTopics(text, res.Topics),
		KeyPhrases:     uniqueFold(res.KeyPhrases),
		Confidence:     Confidence(utf8.RuneCountInString(text), res.Language != "", res.LanguageConfidence),
	}
	s.logger.Debug("semantic.analyze.ok",
		"language", out.Language,
		"sentiment", out.Sentiment,
		"entities", len(out.Entities),
		"topics", len(out.Topics),
		"confidence", out.Confidence,
	)
	return out, nil
}

func ClassifySentiment(score float64) entity.Sentiment {
	switch {
	case score > PositiveThreshold:
		return entity.SentimentPositive
	case score < NegativeThreshold:
		return entity.SentimentNegative
	}
	return entity.SentimentNeutral
}

// Confidence grows with text length and with successful language detection.
func Confidence(runes int, languageDetected bool, languageConfidence float64) float64 {
	c := baseConfidence + lengthWeight*math.Min(1, float64(runes)/fullLengthRunes)
	if languageDetected {
		c += languageWeight * entity.Clamp01(languageConfidence)
	}
	return entity.Clamp01(c)
}

// dedupe drops repeated (text, type) pairs, keeping the first mention, and assigns run-local ids.
func (s *Stage) dedupe(in []entity.DetectedEntity) []entity.DetectedEntity {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]entity.DetectedEntity, 0, len(in))
	for _, e := range in {
		e.Text = strings.TrimSpace(e.Text)
		if e.Text == "" {
			continue
		}
		key := string(e.Type) + "\x00" + strings.ToLower(e.Text)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		e.ID = s.newID()
		e.Confidence = entity.Clamp01(e.Confidence)
		out = append(out, e)
	}
	return out
}

func uniqueFold(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		k := strings.ToLower(strings.TrimSpace(s))
		if _, ok := seen[k]; ok || k == "" {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, strings.TrimSpace(s))
	}
	return out
}
