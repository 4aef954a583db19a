package structured

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

var (
	reKeyValue = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9 _/&.#'-]{0,39}?)\s*[:=]\s+(\S.*?)\s*$`)

	EmailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	PhonePattern = regexp.MustCompile(`(?:\+\d{1,3}[\s.-]?)?(?:\(\d{3}\)|\b\d{3})[\s.-]?\d{3}[\s.-]?\d{4}\b`)

	dateNumeric = regexp.MustCompile(`\b\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}\b`)
	dateISO     = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	dateNamed   = regexp.MustCompile(`(?i)\b(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b`)
	timeOfDay   = regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}(?:\s?[ap]\.?m\.?)?|\b\d{1,2}\s?[ap]m\b`)
	relative    = regexp.MustCompile(`(?i)\b(?:today|tonight|tomorrow|yesterday|(?:next|this)\s+(?:week|weekend|month|year|monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`)
)

const maxKeyWords = 4

// DetectKeyValues matches "Key: value" lines.
func DetectKeyValues(text string) []entity.KeyValuePair {
	var out []entity.KeyValuePair
	for _, line := range strings.Split(text, "\n") {
		m := reKeyValue.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key := strings.TrimSpace(m[1])
		if len(strings.Fields(key)) > maxKeyWords {
			continue
		}
		out = append(out, entity.KeyValuePair{Key: key, Value: m[2], Confidence: KeyValueConfidence})
	}
	return out
}

// DetectContacts collects unique emails and phone numbers. Nil when neither is present.
func DetectContacts(text string) *entity.ContactInfo {
	emails := unique(EmailPattern.FindAllString(text, -1))
	phones := unique(PhonePattern.FindAllString(text, -1))
	if len(emails) == 0 && len(phones) == 0 {
		return nil
	}
	return &entity.ContactInfo{Emails: emails, Phones: phones, Confidence: ContactConfidence}
}

type datePattern struct {
	re   *regexp.Regexp
	kind entity.DateKind
	conf float64
}

var datePatterns = []datePattern{
	{dateISO, entity.DateKindDate, DateConfidence},
	{dateNumeric, entity.DateKindDate, DateConfidence},
	{dateNamed, entity.DateKindDate, DateConfidence},
	{timeOfDay, entity.DateKindTime, TimeConfidence},
	{relative, entity.DateKindRelative, RelativeConfidence},
}

// DetectDates finds date, time and relative-day mentions in text order. Overlapping matches
// keep the one from the earlier pattern.
func DetectDates(text string) []entity.DateMention {
	type hit struct {
		start, end int
		mention    entity.DateMention
	}
	var hits []hit
	overlaps := func(s, e int) bool {
		for _, h := range hits {
			if s < h.end && h.start < e {
				return true
			}
		}
		return false
	}
	for _, p := range datePatterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if overlaps(loc[0], loc[1]) {
				continue
			}
			hits = append(hits, hit{loc[0], loc[1], entity.DateMention{
				Text:       strings.TrimSpace(text[loc[0]:loc[1]]),
				Kind:       p.kind,
				Confidence: p.conf,
			}})
		}
	}
	// insertion sort by position; match counts are small
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].start < hits[j-1].start; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	out := make([]entity.DateMention, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.mention)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func unique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if _, ok := seen[s]; ok || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
