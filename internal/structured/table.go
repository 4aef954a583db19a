package structured

import (
	"math"
	"sort"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

// DetectTable buckets elements into rows by vertical position. A table needs
// at least two rows and a widest row of at least two cells.
func DetectTable(elements []entity.TextElement) (entity.DetectedTable, bool) {
	if len(elements) < 2 {
		return entity.DetectedTable{}, false
	}
	sorted := make([]entity.TextElement, len(elements))
	copy(sorted, elements)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Box.Y > sorted[j].Box.Y })

	var rows [][]entity.TextElement
	current := []entity.TextElement{sorted[0]}
	for _, el := range sorted[1:] {
		prev := current[len(current)-1]
		if math.Abs(prev.Box.Y-el.Box.Y) < RowThreshold {
			current = append(current, el)
			continue
		}
		rows = append(rows, current)
		current = []entity.TextElement{el}
	}
	rows = append(rows, current)

	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	if len(rows) < 2 || width < 2 {
		return entity.DetectedTable{}, false
	}

	table := entity.DetectedTable{
		Rows:        make([][]string, 0, len(rows)),
		ColumnCount: width,
		Confidence:  TableConfidence,
	}
	for _, r := range rows {
		sort.SliceStable(r, func(i, j int) bool { return r[i].Box.X < r[j].Box.X })
		cells := make([]string, len(r))
		for i, el := range r {
			cells[i] = el.Text
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, true
}
