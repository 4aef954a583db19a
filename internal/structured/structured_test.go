package structured_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
	"github.com/joseph-ayodele/capture-tracker/internal/structured"
)

func el(text string, x, y float64) entity.TextElement {
	return entity.TextElement{
		Text:        text,
		Box:         entity.BoundingBox{X: x, Y: y, Width: 0.1, Height: 0.02},
		Confidence:  0.9,
		Granularity: entity.GranularityLine,
	}
}

// =============================================================================
// Tables
// =============================================================================

func TestDetectTable_RowsAndColumns(t *testing.T) {
	// shuffled input; rows at y=0.9, 0.8, 0.7 with jitter under the threshold
	elements := []entity.TextElement{
		el("30", 0.5, 0.801),
		el("Name", 0.1, 0.9),
		el("Bob", 0.1, 0.7),
		el("Age", 0.5, 0.905),
		el("Alice", 0.1, 0.8),
		el("41", 0.5, 0.699),
		el("NYC", 0.8, 0.7),
	}

	table, ok := structured.DetectTable(elements)
	require.True(t, ok)

	assert.Len(t, table.Rows, 3)
	assert.Equal(t, 3, table.ColumnCount)
	assert.Equal(t, []string{"Name", "Age"}, table.Rows[0])
	assert.Equal(t, []string{"Alice", "30"}, table.Rows[1])
	assert.Equal(t, []string{"Bob", "41", "NYC"}, table.Rows[2])
	assert.Equal(t, structured.TableConfidence, table.Confidence)
}

func TestDetectTable_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		elements []entity.TextElement
	}{
		{name: "empty"},
		{name: "single row", elements: []entity.TextElement{el("a", 0.1, 0.5), el("b", 0.4, 0.5)}},
		{name: "single column", elements: []entity.TextElement{el("a", 0.1, 0.9), el("b", 0.1, 0.5), el("c", 0.1, 0.2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := structured.DetectTable(tt.elements)
			assert.False(t, ok)
		})
	}
}

// =============================================================================
// Lists
// =============================================================================

func TestDetectLists_Numbered(t *testing.T) {
	lists := structured.DetectLists("1. a\n2. b\n3. c")

	require.Len(t, lists, 1)
	assert.Equal(t, entity.ListNumbered, lists[0].Style)
	assert.Equal(t, []string{"a", "b", "c"}, lists[0].Items)
	assert.Equal(t, structured.ListConfidence, lists[0].Confidence)
}

func TestDetectLists_Styles(t *testing.T) {
	text := "Groceries\n- milk\n- eggs\n[ ] call mom\n[x] pay rent\na) first\nplain line"
	lists := structured.DetectLists(text)

	require.Len(t, lists, 2)
	assert.Equal(t, entity.ListCheckbox, lists[0].Style)
	assert.Equal(t, []string{"call mom", "pay rent"}, lists[0].Items)
	assert.Equal(t, entity.ListBulleted, lists[1].Style)
	assert.Equal(t, []string{"milk", "eggs"}, lists[1].Items)
}

func TestDetectLists_SingleMatchIsNotAList(t *testing.T) {
	assert.Empty(t, structured.DetectLists("1. only one\nthen prose"))
	assert.Empty(t, structured.DetectLists("   "))
}

// =============================================================================
// Key-values, contacts, dates
// =============================================================================

func TestDetectKeyValues(t *testing.T) {
	kvs := structured.DetectKeyValues("Invoice #: 1234\nDue Date: Friday\nsee https://x.io\nThis is a long sentence with many words: nope")

	require.Len(t, kvs, 2)
	assert.Equal(t, "Invoice #", kvs[0].Key)
	assert.Equal(t, "1234", kvs[0].Value)
	assert.Equal(t, "Due Date", kvs[1].Key)
	assert.Equal(t, structured.KeyValueConfidence, kvs[1].Confidence)
}

func TestDetectContacts(t *testing.T) {
	c := structured.DetectContacts("Mail jane@acme.com or jane@acme.com, call (555) 123-4567 or +1 555.987.6543")

	require.NotNil(t, c)
	assert.Equal(t, []string{"jane@acme.com"}, c.Emails)
	assert.Equal(t, []string{"(555) 123-4567", "+1 555.987.6543"}, c.Phones)
	assert.Equal(t, structured.ContactConfidence, c.Confidence)

	assert.Nil(t, structured.DetectContacts("nothing here on 10/5/2025"))
}

func TestDetectDates(t *testing.T) {
	dates := structured.DetectDates("Meeting with John Smith at Acme Corp on 10/5/2025 at 3:30 pm, review tomorrow, launch 2025-11-01 or March 3rd, 2026")

	texts := make([]string, 0, len(dates))
	for _, d := range dates {
		texts = append(texts, d.Text)
	}
	assert.Equal(t, []string{"10/5/2025", "3:30 pm", "tomorrow", "2025-11-01", "March 3rd, 2026"}, texts)
	assert.Equal(t, entity.DateKindDate, dates[0].Kind)
	assert.Equal(t, structured.DateConfidence, dates[0].Confidence)
	assert.Equal(t, entity.DateKindTime, dates[1].Kind)
	assert.Equal(t, entity.DateKindRelative, dates[2].Kind)
}

func TestDetect_EmptyInput(t *testing.T) {
	got := structured.Detect(nil, "")
	assert.True(t, got.IsEmpty())
}
