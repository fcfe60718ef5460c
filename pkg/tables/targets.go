package tables

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"vrm-observer/pkg/models"
	"vrm-observer/pkg/parse"
)

var targetColumns = []column{
	{field: "target", names: []string{"Target", "iSCSI target"}, legacy: 0},
	{field: "connTime", names: []string{"Connection time", "Conn. time", "Connected since"}, legacy: 1},
	{field: "bitrate", names: []string{"Bitrate", "Bitrate [Mbit/s]"}, legacy: 5},
	{field: "totalGiB", names: []string{"Total [GiB]", "Total GiB", "Total"}, legacy: 6},
	{field: "availableGiB", names: []string{"Available [GiB]", "Available GiB", "Available"}, legacy: 7},
	{field: "emptyGiB", names: []string{"Empty [GiB]", "Empty GiB", "Empty"}, legacy: 8},
	{field: "protectedGiB", names: []string{"Protected [GiB]", "Protected GiB", "Protected"}, legacy: 9},
	{field: "slices", names: []string{"Slices"}, legacy: 10},
	{field: "outOfRes", names: []string{"Out of resources", "Out of res"}, legacy: 11},
	{field: "lastOutOfRes", names: []string{"Last out of resources", "Last out of res"}, legacy: 12},
}

// targetsLegacyWidth is the cell count of the fixed showTargets layout
const targetsLegacyWidth = 13

// ParseTargets reads showTargets.htm: the per-target table (first table of the page), the
// key/value totals tables following the "Targets" and "Blocks" headings, and the per-target
// connection counts following "Connections".
func ParseTargets(html, vrmID string) (*models.TargetsReport, error) {
	doc, err := loadDocument(html, "targets")
	if err != nil {
		return nil, err
	}

	report := &models.TargetsReport{
		VRMID:       vrmID,
		Targets:     []models.TargetRecord{},
		Totals:      map[string]models.TotalValue{},
		Connections: []models.TargetConnection{},
	}

	headers, rows := readTable(doc.Find("table").First())
	cols := resolveColumns(headers, targetColumns, targetsLegacyWidth)
	for _, row := range rows {
		report.Targets = append(report.Targets, models.TargetRecord{
			Row:          row.index,
			VRMID:        vrmID,
			Target:       cellAt(row.cells, cols["target"]),
			ConnTime:     cellAt(row.cells, cols["connTime"]),
			Bitrate:      parse.Number(cellAt(row.cells, cols["bitrate"])),
			TotalGiB:     parse.Number(cellAt(row.cells, cols["totalGiB"])),
			AvailableGiB: parse.Number(cellAt(row.cells, cols["availableGiB"])),
			EmptyGiB:     parse.Number(cellAt(row.cells, cols["emptyGiB"])),
			ProtectedGiB: parse.Number(cellAt(row.cells, cols["protectedGiB"])),
			Slices:       parse.Number(cellAt(row.cells, cols["slices"])),
			OutOfRes:     parse.Number(cellAt(row.cells, cols["outOfRes"])),
			LastOutOfRes: cellAt(row.cells, cols["lastOutOfRes"]),
			Raw:          headers.raw(row.cells),
		})
	}

	for _, heading := range []string{"Targets", "Blocks"} {
		tableAfterHeading(doc, heading).Find("tr").Each(func(_ int, tr *goquery.Selection) {
			td := tr.Find("td")
			key := cleanText(td.Eq(0).Text())
			if key == "" {
				return
			}
			report.Totals[key] = totalValue(cleanText(td.Eq(1).Text()))
		})
	}

	// The connections table is optional; its first row is the header
	tableAfterHeading(doc, "Connections").Find("tr").Each(func(i int, tr *goquery.Selection) {
		td := tr.Find("td")
		if i == 0 || td.Length() == 0 {
			return
		}
		report.Connections = append(report.Connections, models.TargetConnection{
			VRMID:       vrmID,
			Target:      cleanText(td.Eq(0).Text()),
			Connections: parse.Number(cleanText(td.Eq(1).Text())),
		})
	})

	return report, nil
}

// tableAfterHeading returns the tables directly following an <h1> whose text contains heading
func tableAfterHeading(doc *goquery.Document, heading string) *goquery.Selection {
	return doc.Find("h1").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), heading)
	}).NextFiltered("table")
}

// totalValue keeps the text of a totals cell and its value when the whole cell is numeric
func totalValue(text string) models.TotalValue {
	tv := models.TotalValue{Text: text}
	if text == "" {
		return tv
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		tv.Number = &v
	}
	return tv
}
