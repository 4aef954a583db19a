package llm

import (
	"strings"
)

// MaxPromptRunes caps how much capture text is sent to the model.
const MaxPromptRunes = 6000

// BuildSystemPrompt describes the analysis contract to the model.
func BuildSystemPrompt() string {
	parts := []string{
		"You analyze short personal captures (notes, screenshots, web clippings). Return ONLY JSON that matches the provided JSON Schema.",
		"'language' is a lowercase BCP 47 tag such as 'en' or 'es'; omit it if unsure.",
		"'sentiment_score' is a number from -1 (very negative) to 1 (very positive); use 0 for neutral text.",
		"'entities' lists people, organizations, locations, emails, urls and phone numbers exactly as written in the text. Use type 'other' for named events or products.",
		"'topics' are one-word lowercase subjects such as work, finance, travel or health.",
		"'key_phrases' are short noun phrases copied from the text.",
		"Never output null. If a field is not present, omit it; 'entities' may be an empty array.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt wraps the capture text, truncated to MaxPromptRunes.
func BuildUserPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Capture text:\n")
	r := []rune(text)
	if len(r) > MaxPromptRunes {
		b.WriteString(string(r[:MaxPromptRunes]))
	} else {
		b.WriteString(text)
	}
	b.WriteString("\n\nReturn ONLY JSON that matches the provided schema.")
	return b.String()
}
