// Package structured finds tables, lists, key-value pairs, contact details and
// date mentions in recognized text. Detectors never fail: no match yields empty collections.
package structured

import (
	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

// Fixed heuristic weights per match type.
const (
	TableConfidence    = 0.8
	ListConfidence     = 0.85
	KeyValueConfidence = 0.8
	ContactConfidence  = 0.9
	DateConfidence     = 0.85
	TimeConfidence     = 0.8
	RelativeConfidence = 0.7
)

// RowThreshold is the maximum vertical delta, as a fraction of image height,
// between elements bucketed into the same table row.
const RowThreshold = 0.02

// Detect runs every detector. Tables come from positioned elements; the rest from text.
func Detect(elements []entity.TextElement, text string) entity.StructuredContent {
	var out entity.StructuredContent
	if t, ok := DetectTable(elements); ok {
		out.Tables = append(out.Tables, t)
	}
	out.Lists = DetectLists(text)
	out.KeyValues = DetectKeyValues(text)
	out.Contacts = DetectContacts(text)
	out.Dates = DetectDates(text)
	return out
}
