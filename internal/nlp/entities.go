package nlp

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/structured"
)

// Confidence weights per recognition rule.
const (
	patternConfidence   = 0.9
	orgConfidence       = 0.85
	personConfidence    = 0.8
	placeConfidence     = 0.8
	heuristicConfidence = 0.6
	otherConfidence     = 0.5
)

const maxRunTokens = 4

var reURL = regexp.MustCompile(`\bhttps?://[^\s<>"']+|\bwww\.[^\s<>"']+`)

// ExtractEntities finds pattern entities (email, url, phone) and classifies runs of
// capitalized words. Offsets are rune offsets into text.
func ExtractEntities(text string, tokens []Token) []entity.DetectedEntity {
	var out []entity.DetectedEntity
	var taken [][2]int

	addPattern := func(re *regexp.Regexp, typ entity.EntityType) {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			match := strings.TrimRight(text[loc[0]:loc[1]], ".,;:)")
			start := utf8.RuneCountInString(text[:loc[0]])
			end := start + utf8.RuneCountInString(match)
			if overlapsAny(taken, start, end) {
				continue
			}
			taken = append(taken, [2]int{start, end})
			out = append(out, entity.DetectedEntity{
				Text: match, Type: typ, Start: start, End: end, Confidence: patternConfidence,
			})
		}
	}
	addPattern(structured.EmailPattern, entity.EntityEmail)
	addPattern(reURL, entity.EntityURL)
	addPattern(structured.PhonePattern, entity.EntityPhone)

	for _, run := range capitalizedRuns(tokens) {
		first, last := run[0], run[len(run)-1]
		if overlapsAny(taken, first.Start, last.End) {
			continue
		}
		var prev *Token
		for i := range tokens {
			if tokens[i].Start == first.Start && i > 0 && !first.Boundary {
				prev = &tokens[i-1]
			}
		}
		// "Call John Smith": the imperative cue opens the sentence, the name follows it.
		if len(run) > 1 && first.SentenceStart && personCues[first.Lower] {
			cue := run[0]
			prev = &cue
			run = run[1:]
			first = run[0]
		}
		typ, conf, ok := classifyRun(run, prev)
		if !ok {
			continue
		}
		if typ == entity.EntityPerson && personTitles[first.Lower] && len(run) > 1 {
			run = run[1:]
			first = run[0]
		}
		taken = append(taken, [2]int{first.Start, last.End})
		out = append(out, entity.DetectedEntity{
			Text:       joinRun(run),
			Type:       typ,
			Start:      first.Start,
			End:        last.End,
			Confidence: conf,
		})
	}
	sortByStart(out)
	return out
}

// capitalizedRuns groups adjacent capitalized words not split by punctuation.
func capitalizedRuns(tokens []Token) [][]Token {
	var runs [][]Token
	var cur []Token
	flush := func() {
		for len(cur) > 0 && cur[len(cur)-1].Text == "&" {
			cur = cur[:len(cur)-1]
		}
		if len(cur) > 0 {
			runs = append(runs, cur)
		}
		cur = nil
	}
	for _, t := range tokens {
		if t.Text == "&" && len(cur) > 0 && !t.Boundary {
			cur = append(cur, t)
			continue
		}
		capital := t.IsWord() && t.Capitalized()
		if !capital || (t.Boundary && len(cur) > 0) || len(cur) == maxRunTokens {
			flush()
		}
		if capital {
			cur = append(cur, t)
		}
	}
	flush()
	return runs
}

func classifyRun(run []Token, prev *Token) (entity.EntityType, float64, bool) {
	first, last := run[0], run[len(run)-1]
	joined := strings.ToLower(joinRun(run))

	switch {
	case orgSuffixes[last.Lower] && len(run) > 1:
		return entity.EntityOrganization, orgConfidence, true
	case containsAmpersand(run) && len(run) > 1:
		return entity.EntityOrganization, heuristicConfidence, true
	case places[joined]:
		return entity.EntityLocation, placeConfidence, true
	case personTitles[first.Lower] && len(run) > 1:
		return entity.EntityPerson, personConfidence, true
	case firstNames[first.Lower]:
		return entity.EntityPerson, personConfidence, true
	}

	// a lone capitalized word opening a sentence is usually just grammar
	if first.SentenceStart && len(run) == 1 {
		return "", 0, false
	}
	if isStopword(first.Lower, nil) && len(run) == 1 {
		return "", 0, false
	}
	if prev != nil && locationCues[prev.Lower] && len(run) == 1 && !personCues[prev.Lower] {
		return entity.EntityLocation, heuristicConfidence, true
	}
	if prev != nil && personCues[prev.Lower] {
		return entity.EntityPerson, heuristicConfidence, true
	}
	if len(run) >= 2 && len(run) <= 3 && !first.SentenceStart {
		return entity.EntityPerson, heuristicConfidence, true
	}
	return entity.EntityOther, otherConfidence, true
}

func joinRun(run []Token) string {
	parts := make([]string, len(run))
	for i, t := range run {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

func containsAmpersand(run []Token) bool {
	for _, t := range run {
		if strings.Contains(t.Text, "&") {
			return true
		}
	}
	return false
}

func overlapsAny(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

func sortByStart(es []entity.DetectedEntity) {
	for i := 1; i < len(es); i++ {
		for j := i; j > 0 && es[j].Start < es[j-1].Start; j-- {
			es[j], es[j-1] = es[j-1], es[j]
		}
	}
}
