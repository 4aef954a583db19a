// Package nlp holds the natural-language collaborators used by semantic analysis.
package nlp

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

// Result is what an NLP backend reports for one text.
type Result struct {
	Language           string // BCP 47 tag, "" when undetermined
	LanguageConfidence float64
	SentimentScore     float64 // [-1,1]
	Entities           []entity.DetectedEntity
	Topics             []string
	KeyPhrases         []string
}

// Processor is the NLP collaborator contract.
type Processor interface {
	Analyze(ctx context.Context, text string) (Result, error)
}

// Lexicon is an on-device Processor built from word lists and patterns.
type Lexicon struct {
	logger        *slog.Logger
	maxKeyPhrases int
}

func NewLexicon(logger *slog.Logger) *Lexicon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lexicon{logger: logger, maxKeyPhrases: 10}
}

func (l *Lexicon) Analyze(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, nil
	}
	tokens := Tokenize(text)
	lang, langConf := DetectLanguage(tokens)
	res := Result{
		Language:           lang,
		LanguageConfidence: langConf,
		SentimentScore:     Sentiment(tokens),
		Entities:           ExtractEntities(text, tokens),
		KeyPhrases:         KeyPhrases(tokens, l.maxKeyPhrases),
	}
	l.logger.Debug("nlp.lexicon.ok",
		"tokens", len(tokens),
		"language", res.Language,
		"entities", len(res.Entities),
		"key_phrases", len(res.KeyPhrases),
	)
	return res, nil
}
