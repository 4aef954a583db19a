package pipeline

import (
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/capture-tracker/constants"
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

const (
	MaxTitleRunes   = 60
	MaxPreviewRunes = 200
)

var defaultTitles = map[constants.ContentType]string{
	constants.ContentImage: "Image capture",
	constants.ContentText:  "Text note",
	constants.ContentURL:   "Web page",
	constants.ContentMixed: "Capture",
}

// DeriveTitle picks the first non-empty line, or hint when given, truncated to MaxTitleRunes.
func DeriveTitle(hint, text string, ct constants.ContentType) string {
	if h := strings.TrimSpace(hint); h != "" {
		return truncateRunes(h, MaxTitleRunes)
	}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return truncateRunes(line, MaxTitleRunes)
		}
	}
	if t, ok := defaultTitles[ct]; ok {
		return t
	}
	return "Capture"
}

// DerivePreview collapses whitespace and keeps the first MaxPreviewRunes runes.
func DerivePreview(text string) string {
	return truncateRunes(strings.Join(strings.Fields(text), " "), MaxPreviewRunes)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

// combineText joins the non-empty text sources with a blank line.
func combineText(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

// overallConfidence averages OCR confidence (when an image was read) with the analysis confidence.
func overallConfidence(hadImage bool, ocrConfidence float64, analysis entity.SemanticAnalysis) float64 {
	if !hadImage {
		return entity.Clamp01(analysis.Confidence)
	}
	if analysis.Confidence == 0 {
		return entity.Clamp01(ocrConfidence)
	}
	return entity.Clamp01((ocrConfidence + analysis.Confidence) / 2)
}
