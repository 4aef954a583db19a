package ocr

import (
	"sort"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/capture-tracker/internal/entity"
)

// tesseract TSV columns
const (
	colLevel = iota
	colPage
	colBlock
	colPar
	colLine
	colWord
	colLeft
	colTop
	colWidth
	colHeight
	colConf
	colText
	tsvColumns
)

const wordLevel = 5

type tsvWord struct {
	key                      [4]int // page, block, par, line
	left, top, width, height int
	conf                     float64 // 0..1
	text                     string
}

type segment struct {
	words []tsvWord
}

func (s segment) element(imgW, imgH int) entity.TextElement {
	left, top := s.words[0].left, s.words[0].top
	right, bottom := 0, 0
	texts := make([]string, 0, len(s.words))
	var sum float64
	for _, w := range s.words {
		left = min(left, w.left)
		top = min(top, w.top)
		right = max(right, w.left+w.width)
		bottom = max(bottom, w.top+w.height)
		texts = append(texts, w.text)
		sum += w.conf
	}
	W, H := float64(imgW), float64(imgH)
	return entity.TextElement{
		Text: strings.Join(texts, " "),
		Box: entity.BoundingBox{
			X:      entity.Clamp01(float64(left) / W),
			Y:      entity.Clamp01(1 - float64(bottom)/H),
			Width:  entity.Clamp01(float64(right-left) / W),
			Height: entity.Clamp01(float64(bottom-top) / H),
		},
		Confidence:  entity.Clamp01(sum / float64(len(s.words))),
		Granularity: entity.GranularityLine,
	}
}

// elementsFromTSV turns tesseract word rows into line-segment elements and the plain text.
// Words on one line are split into separate segments when the horizontal gap exceeds the
// word height, which keeps table cells apart.
func elementsFromTSV(tsv []byte, imgW, imgH int) ([]entity.TextElement, string) {
	if imgW <= 0 || imgH <= 0 {
		return nil, ""
	}
	var words []tsvWord
	for i, ln := range strings.Split(string(tsv), "\n") {
		if i == 0 || strings.TrimSpace(ln) == "" {
			continue
		} // skip header
		cols := strings.Split(strings.TrimRight(ln, "\r"), "\t")
		if len(cols) < tsvColumns {
			continue
		}
		if lvl, _ := strconv.Atoi(cols[colLevel]); lvl != wordLevel {
			continue
		}
		text := strings.TrimSpace(cols[colText])
		conf, err := strconv.ParseFloat(cols[colConf], 64)
		if text == "" || err != nil || conf < 0 {
			continue
		}
		w := tsvWord{text: text, conf: conf / 100.0}
		w.key[0], _ = strconv.Atoi(cols[colPage])
		w.key[1], _ = strconv.Atoi(cols[colBlock])
		w.key[2], _ = strconv.Atoi(cols[colPar])
		w.key[3], _ = strconv.Atoi(cols[colLine])
		w.left, _ = strconv.Atoi(cols[colLeft])
		w.top, _ = strconv.Atoi(cols[colTop])
		w.width, _ = strconv.Atoi(cols[colWidth])
		w.height, _ = strconv.Atoi(cols[colHeight])
		words = append(words, w)
	}
	if len(words) == 0 {
		return nil, ""
	}

	// group by line, preserving tesseract reading order
	var lines [][]tsvWord
	for _, w := range words {
		if n := len(lines); n > 0 && lines[n-1][0].key == w.key {
			lines[n-1] = append(lines[n-1], w)
			continue
		}
		lines = append(lines, []tsvWord{w})
	}

	var elements []entity.TextElement
	var text strings.Builder
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].left < line[j].left })
		seg := segment{words: []tsvWord{line[0]}}
		lineTexts := []string{line[0].text}
		for _, w := range line[1:] {
			prev := seg.words[len(seg.words)-1]
			gap := w.left - (prev.left + prev.width)
			if gap > max(prev.height, w.height) {
				elements = append(elements, seg.element(imgW, imgH))
				seg = segment{}
			}
			seg.words = append(seg.words, w)
			lineTexts = append(lineTexts, w.text)
		}
		elements = append(elements, seg.element(imgW, imgH))
		if text.Len() > 0 {
			text.WriteString("\n")
		}
		text.WriteString(strings.Join(lineTexts, " "))
	}
	return elements, text.String()
}

func meanConfidence(elements []entity.TextElement) float64 {
	if len(elements) == 0 {
		return 0
	}
	var sum float64
	for _, e := range elements {
		sum += e.Confidence
	}
	return entity.Clamp01(sum / float64(len(elements)))
}
