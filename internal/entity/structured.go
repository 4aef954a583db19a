package entity

// Granularity of a recognized text element.
type Granularity string

const (
	GranularityWord Granularity = "word"
	GranularityLine Granularity = "line"
)

// BoundingBox is normalized to [0,1] with the origin at the bottom-left,
// so a larger Y is higher on the page.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextElement is a unit of recognized text.
type TextElement struct {
	Text        string      `json:"text"`
	Box         BoundingBox `json:"box"`
	Confidence  float64     `json:"confidence"`
	Granularity Granularity `json:"granularity"`
}

type ListStyle string

const (
	ListBulleted ListStyle = "bulleted"
	ListNumbered ListStyle = "numbered"
	ListLettered ListStyle = "lettered"
	ListCheckbox ListStyle = "checkbox"
)

type DateKind string

const (
	DateKindDate     DateKind = "date"
	DateKindTime     DateKind = "time"
	DateKindRelative DateKind = "relative"
)

type DetectedTable struct {
	Rows        [][]string `json:"rows"`
	ColumnCount int        `json:"column_count"`
	Confidence  float64    `json:"confidence"`
}

type DetectedList struct {
	Items      []string  `json:"items"`
	Style      ListStyle `json:"style"`
	Confidence float64   `json:"confidence"`
}

type KeyValuePair struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

type ContactInfo struct {
	Emails     []string `json:"emails,omitempty"`
	Phones     []string `json:"phones,omitempty"`
	Confidence float64  `json:"confidence"`
}

type DateMention struct {
	Text       string   `json:"text"`
	Kind       DateKind `json:"kind"`
	Confidence float64  `json:"confidence"`
}

// StructuredContent aggregates everything the pattern detectors found in one capture.
type StructuredContent struct {
	Tables    []DetectedTable `json:"tables,omitempty"`
	Lists     []DetectedList  `json:"lists,omitempty"`
	KeyValues []KeyValuePair  `json:"key_values,omitempty"`
	Contacts  *ContactInfo    `json:"contacts,omitempty"`
	Dates     []DateMention   `json:"dates,omitempty"`
}

// IsEmpty reports whether nothing was detected.
func (s StructuredContent) IsEmpty() bool {
	return len(s.Tables) == 0 && len(s.Lists) == 0 && len(s.KeyValues) == 0 &&
		s.Contacts == nil && len(s.Dates) == 0
}
