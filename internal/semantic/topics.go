package semantic

import (
	"strings"
	"unicode"
)

type topic struct {
	name     string
	keywords []string
}

// vocabulary is the fixed topic list, in reporting order.
var vocabulary = []topic{
	{"work", []string{"meeting", "project", "deadline", "client", "office", "team", "manager", "agenda", "report"}},
	{"finance", []string{"invoice", "payment", "budget", "price", "cost", "bank", "receipt", "tax", "salary", "pay"}},
	{"travel", []string{"flight", "hotel", "trip", "airport", "booking", "boarding", "train", "itinerary"}},
	{"health", []string{"doctor", "appointment", "medicine", "gym", "health", "dentist", "hospital", "workout"}},
	{"shopping", []string{"buy", "order", "store", "cart", "sale", "discount", "shipping", "delivery"}},
	{"education", []string{"course", "class", "exam", "lecture", "study", "homework", "school", "university"}},
	{"technology", []string{"software", "app", "code", "api", "server", "computer", "bug", "release", "deploy"}},
	{"food", []string{"recipe", "restaurant", "dinner", "lunch", "breakfast", "coffee", "menu", "cook"}},
	{"events", []string{"conference", "party", "concert", "event", "wedding", "birthday", "summit", "festival"}},
	{"communication", []string{"email", "call", "phone", "message", "contact", "reply", "chat"}},
}

// MatchTopics returns vocabulary topics whose keywords occur in text, followed by any
// extra topics the NLP backend supplied that are not already present.
func MatchTopics(text string, extra []string) []string {
	words := map[string]struct{}{}
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = struct{}{}
	}
	has := func(kw string) bool {
		if _, ok := words[kw]; ok {
			return true
		}
		_, ok := words[kw+"s"]
		return ok
	}

	var out []string
	seen := map[string]struct{}{}
	for _, t := range vocabulary {
		for _, kw := range t.keywords {
			if has(kw) {
				out = append(out, t.name)
				seen[t.name] = struct{}{}
				break
			}
		}
	}
	for _, e := range extra {
		e = strings.ToLower(strings.TrimSpace(e))
		if _, ok := seen[e]; ok || e == "" {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
