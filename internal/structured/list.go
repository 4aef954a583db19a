package structured

import (
	"regexp"
	"strings"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

type listPattern struct {
	style entity.ListStyle
	re    *regexp.Regexp
}

// Checked in order; a line belongs to the first style it matches.
var listPatterns = []listPattern{
	{entity.ListCheckbox, regexp.MustCompile(`^\s*(?:[-*•]\s*)?(?:\[[ xX✓]?\]|[☐☑☒✓✔])\s+(.+)$`)},
	{entity.ListNumbered, regexp.MustCompile(`^\s*\(?\d{1,3}[.)]\s+(.+)$`)},
	{entity.ListLettered, regexp.MustCompile(`^\s*\(?[a-z][.)]\s+(.+)$`)},
	{entity.ListBulleted, regexp.MustCompile(`^\s*[•\-*·◦▪►‣]\s+(.+)$`)},
}

const minListItems = 2

// DetectLists returns one list per style that matched at least two lines, items in input order.
func DetectLists(text string) []entity.DetectedList {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	items := make(map[entity.ListStyle][]string, len(listPatterns))
	for _, line := range strings.Split(text, "\n") {
		for _, p := range listPatterns {
			if m := p.re.FindStringSubmatch(line); m != nil {
				items[p.style] = append(items[p.style], strings.TrimSpace(m[1]))
				break
			}
		}
	}

	var out []entity.DetectedList
	for _, p := range listPatterns {
		if got := items[p.style]; len(got) >= minListItems {
			out = append(out, entity.DetectedList{Items: got, Style: p.style, Confidence: ListConfidence})
		}
	}
	return out
}
