package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
)

var entityTypeSynonyms = map[string]string{
	"per":          "person",
	"people":       "person",
	"org":          "organization",
	"organisation": "organization",
	"company":      "organization",
	"loc":          "location",
	"place":        "location",
	"gpe":          "location",
	"phone_number": "phone",
	"link":         "url",
	"misc":         "other",
	"event":        "other",
}

// NormalizeAndSanitizeJSON
// - Renames known synonyms (sentiment -> sentiment_score, keyphrases -> key_phrases)
// - Coerces numeric strings and clamps scores into range
// - Maps entity type synonyms and drops entities that still do not fit
// - Removes unknown keys so additionalProperties=false validates
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 8)
	renamed := func(from, to string) {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	renamed("sentiment", "sentiment_score")
	renamed("keyphrases", "key_phrases")
	renamed("keywords", "key_phrases")
	renamed("lang", "language")

	numeric := func(k string, lo, hi float64) {
		v, ok := m[k]
		if !ok {
			return
		}
		f, ok := toFloat(v)
		if !ok {
			delete(m, k)
			dropped = append(dropped, k+"(type)")
			return
		}
		m[k] = min(max(f, lo), hi)
	}
	numeric("sentiment_score", -1, 1)
	numeric("language_confidence", 0, 1)
	if _, ok := m["sentiment_score"]; !ok {
		m["sentiment_score"] = 0.0
	}

	if v, ok := m["language"].(string); ok {
		s := strings.ToLower(strings.TrimSpace(v))
		if s == "" {
			delete(m, "language")
		} else {
			m["language"] = s
		}
	} else if _, ok := m["language"]; ok {
		delete(m, "language")
		dropped = append(dropped, "language(type)")
	}

	for _, k := range []string{"topics", "key_phrases"} {
		if v, ok := m[k]; ok {
			m[k] = cleanStrings(v)
		}
	}

	var ents []any
	if list, ok := m["entities"].([]any); ok {
		for i, e := range list {
			em, ok := e.(map[string]any)
			if !ok {
				dropped = append(dropped, "entities["+strconv.Itoa(i)+"](type)")
				continue
			}
			text, _ := em["text"].(string)
			text = strings.TrimSpace(text)
			typ, _ := em["type"].(string)
			typ = strings.ToLower(strings.TrimSpace(typ))
			if syn, ok := entityTypeSynonyms[typ]; ok {
				typ = syn
			}
			if text == "" || !knownEntityType(typ) {
				dropped = append(dropped, "entities["+strconv.Itoa(i)+"]")
				continue
			}
			out := map[string]any{"text": text, "type": typ}
			if f, ok := toFloat(em["confidence"]); ok {
				out["confidence"] = min(max(f, 0), 1)
			}
			ents = append(ents, out)
		}
	}
	if ents == nil {
		ents = []any{}
	}
	m["entities"] = ents

	allowed := map[string]struct{}{
		"language": {}, "language_confidence": {}, "sentiment_score": {},
		"entities": {}, "topics": {}, "key_phrases": {},
	}
	for k := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.analyze.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func cleanStrings(v any) []any {
	list, _ := v.([]any)
	out := make([]any, 0, len(list))
	for _, x := range list {
		if s, ok := x.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func knownEntityType(t string) bool {
	for _, k := range EntityTypes {
		if k == t {
			return true
		}
	}
	return false
}
