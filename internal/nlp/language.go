package nlp

import (
	"golang.org/x/text/language"
)

const minLanguageHits = 1

// DetectLanguage picks the language whose stopwords cover the most tokens.
// It returns "" when nothing matched.
func DetectLanguage(tokens []Token) (string, float64) {
	if len(tokens) == 0 {
		return "", 0
	}
	best, bestHits := language.Und, 0
	for _, tag := range supportedLanguages {
		hits := 0
		for _, t := range tokens {
			if stopwords[tag][t.Lower] {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = tag, hits
		}
	}
	if bestHits < minLanguageHits {
		return "", 0
	}
	// stopwords are usually a third to a half of running text
	conf := float64(bestHits) / (float64(len(tokens)) * 0.35)
	if conf > 1 {
		conf = 1
	}
	return best.String(), conf
}
