package nlp

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
)

const maxPhraseWords = 4

// KeyPhrases returns runs of content words split at stopwords, punctuation and numbers,
// ranked by frequency then first appearance.
func KeyPhrases(tokens []Token, limit int) []string {
	stop := stopwords[language.English]
	type phrase struct {
		text  string
		count int
		first int
	}
	index := map[string]*phrase{}
	var order []*phrase

	var run []string
	flush := func() {
		for len(run) > 0 {
			n := min(len(run), maxPhraseWords)
			text := strings.Join(run[:n], " ")
			run = run[n:]
			if p, ok := index[text]; ok {
				p.count++
				continue
			}
			p := &phrase{text: text, count: 1, first: len(order)}
			index[text] = p
			order = append(order, p)
		}
	}
	for _, t := range tokens {
		if t.Boundary {
			flush()
		}
		content := t.IsWord() && utf8.RuneCountInString(t.Lower) >= 3 && !isStopword(t.Lower, stop)
		if !content {
			flush()
			continue
		}
		run = append(run, strings.Trim(t.Lower, "."))
	}
	flush()

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	out := make([]string, len(order))
	for i, p := range order {
		out[i] = p.text
	}
	return out
}

func isStopword(w string, primary map[string]bool) bool {
	if primary[w] {
		return true
	}
	for _, tag := range supportedLanguages {
		if stopwords[tag][w] {
			return true
		}
	}
	return false
}
