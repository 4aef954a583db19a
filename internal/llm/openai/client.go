package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/llm"
	"github.com/joseph-ayodele/capture-tracker/internal/nlp"
)

// defaultEntityConfidence is used when the model omits a confidence.
const defaultEntityConfidence = 0.7

// Analyze implements nlp.Processor using text-only chat/completions.
func (c *Client) Analyze(ctx context.Context, text string) (nlp.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nlp.Result{}, nil
	}
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.analyze.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"text_len", len(text),
	)

	schema := llm.BuildAnalysisJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(text)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	raw, err := llm.PostJSON(ctx, c.httpClient, c.cfg.endpoint(), body, c.cfg.headers(), c.log)
	if err != nil {
		c.log.Error("llm.analyze.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nlp.Result{}, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nlp.Result{}, fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.analyze.no_choices", "req_id", rid, "raw_bytes", len(raw))
		return nlp.Result{}, fmt.Errorf("no choices in openai response")
	}
	content := []byte(stripFence(cc.Choices[0].Message.Content))

	if err := llm.ValidateJSONAgainstSchema(schema, content); err != nil {
		if !c.cfg.LenientOptional {
			c.log.Error("llm.analyze.schema_validation_failed", "req_id", rid, "error", err)
			return nlp.Result{}, fmt.Errorf("schema validation failed: %w", err)
		}
		cleaned, dropped, sErr := llm.NormalizeAndSanitizeJSON(content, c.log)
		if sErr != nil {
			return nlp.Result{}, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := llm.ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("llm.analyze.schema_validation_failed", "req_id", rid, "error", vErr)
			return nlp.Result{}, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.log.Warn("llm.analyze.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		content = cleaned
	}

	var out llm.AnalysisFields
	if err := json.Unmarshal(content, &out); err != nil {
		return nlp.Result{}, fmt.Errorf("unmarshal fields: %w", err)
	}

	res := ToResult(text, out)
	c.log.Info("llm.analyze.ok",
		"req_id", rid,
		"language", res.Language,
		"entities", len(res.Entities),
		"topics", len(res.Topics),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// ToResult maps model output onto nlp.Result. Entities get rune offsets of
// their first unclaimed occurrence in text; entities not found in text are dropped.
func ToResult(text string, f llm.AnalysisFields) nlp.Result {
	res := nlp.Result{
		Language:           f.Language,
		LanguageConfidence: f.LanguageConfidence,
		SentimentScore:     f.SentimentScore,
		Topics:             f.Topics,
		KeyPhrases:         f.KeyPhrases,
	}
	if res.Language != "" && res.LanguageConfidence == 0 {
		res.LanguageConfidence = 0.8
	}
	cursor := map[string]int{}
	for _, e := range f.Entities {
		key := strings.ToLower(e.Text)
		from := cursor[key]
		idx := indexFold(text, e.Text, from)
		if idx < 0 {
			continue
		}
		cursor[key] = idx + len(e.Text)
		startRunes := utf8.RuneCountInString(text[:idx])
		conf := e.Confidence
		if conf == 0 {
			conf = defaultEntityConfidence
		}
		res.Entities = append(res.Entities, entity.DetectedEntity{
			Text:       text[idx : idx+len(e.Text)],
			Type:       entity.EntityType(e.Type),
			Start:      startRunes,
			End:        startRunes + utf8.RuneCountInString(e.Text),
			Confidence: conf,
		})
	}
	return res
}

// indexFold finds needle in s at or after byte offset from, ignoring ASCII case.
func indexFold(s, needle string, from int) int {
	if from > len(s) {
		return -1
	}
	ls, ln := strings.ToLower(s[from:]), strings.ToLower(needle)
	if len(ls) != len(s)-from || len(ln) != len(needle) {
		// lowercasing changed byte lengths; fall back to an exact match
		if i := strings.Index(s[from:], needle); i >= 0 {
			return from + i
		}
		return -1
	}
	if i := strings.Index(ls, ln); i >= 0 {
		return from + i
	}
	return -1
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
