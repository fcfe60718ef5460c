// Package tables parses the /dbg debug tables of a VRM (showTargets, showDevices, showCameras).
// Columns are located by header text since firmware versions order and name them differently.
package tables

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vrm-observer/pkg/parse"
	"vrm-observer/pkg/utils"
)

// headerIndex holds a table's header texts in original and normalized spelling
type headerIndex struct {
	original   []string
	normalized []string
}

func newHeaderIndex(headers []string) headerIndex {
	h := headerIndex{original: headers, normalized: make([]string, len(headers))}
	for i, text := range headers {
		h.normalized[i] = parse.NormalizeLabel(text)
	}
	return h
}

// lookup returns the column whose normalized header equals one of names, trying names in order.
// Without an exact match the first header containing one of names is used. Returns -1 if none match.
func (h headerIndex) lookup(names ...string) int {
	wanted := make([]string, 0, len(names))
	for _, n := range names {
		if norm := parse.NormalizeLabel(n); norm != "" {
			wanted = append(wanted, norm)
		}
	}
	for _, w := range wanted {
		for i, header := range h.normalized {
			if header == w {
				return i
			}
		}
	}
	for _, w := range wanted {
		for i, header := range h.normalized {
			if header != "" && strings.Contains(header, w) {
				return i
			}
		}
	}
	return -1
}

// raw maps each header, original and normalized, to the row's cell text
func (h headerIndex) raw(cells []string) map[string]string {
	row := make(map[string]string, 2*len(h.original))
	for i, header := range h.original {
		if header == "" {
			continue
		}
		value := cellAt(cells, i)
		row[header] = value
		if norm := h.normalized[i]; norm != "" {
			if _, exists := row[norm]; !exists {
				row[norm] = value
			}
		}
	}
	return row
}

// column describes one promoted field: the header spellings that identify it and its position
// in the legacy fixed layout
type column struct {
	field  string
	names  []string
	legacy int
}

// resolveColumns finds every column by header. When no header matches at all and the table is at
// least legacyWidth wide, the legacy fixed positions are used instead.
func resolveColumns(h headerIndex, cols []column, legacyWidth int) map[string]int {
	idx := make(map[string]int, len(cols))
	matched := 0
	for _, c := range cols {
		idx[c.field] = h.lookup(c.names...)
		if idx[c.field] >= 0 {
			matched++
		}
	}
	if matched == 0 && legacyWidth > 0 && len(h.original) >= legacyWidth {
		for _, c := range cols {
			idx[c.field] = c.legacy
		}
	}
	return idx
}

// tableRow is one data row with its cell texts
type tableRow struct {
	index int
	cells []string
}

// readTable returns the header texts of a table's first row (th cells, or td when there are none)
// and the td texts of every following row that has at least one cell
func readTable(table *goquery.Selection) (headerIndex, []tableRow) {
	trs := table.Find("tr")
	if trs.Length() == 0 {
		return newHeaderIndex(nil), nil
	}

	first := trs.First()
	headerCells := first.Find("th")
	if headerCells.Length() == 0 {
		headerCells = first.Find("td")
	}
	headers := cellTexts(headerCells)

	var rows []tableRow
	trs.Slice(1, trs.Length()).Each(func(_ int, tr *goquery.Selection) {
		cells := cellTexts(tr.Find("td"))
		if len(cells) == 0 {
			return
		}
		rows = append(rows, tableRow{index: len(rows), cells: cells})
	})
	return newHeaderIndex(headers), rows
}

func cellTexts(sel *goquery.Selection) []string {
	texts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, cleanText(s.Text()))
	})
	return texts
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cellAt(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return cells[idx]
}

func loadDocument(html, what string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %s html: %v", utils.ErrParsing, what, err)
	}
	return doc, nil
}
