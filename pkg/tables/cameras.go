package tables

import (
	"strings"

	"vrm-observer/pkg/models"
	"vrm-observer/pkg/parse"
)

var cameraColumns = []column{
	{field: "name", names: []string{"Camera name", "Name"}, legacy: -1},
	{field: "address", names: []string{"Camera address", "Address"}, legacy: -1},
	{field: "recording", names: []string{"Recording", "Recording status"}, legacy: -1},
	{field: "blockMounted", names: []string{"Block mounted", "Block"}, legacy: -1},
	{field: "maxBitrate", names: []string{"Max bitrate", "Max. bitrate", "Maximum bitrate"}, legacy: -1},
}

// ParseCameras reads the first table of showCameras.htm.
// Recording and block-mounted states are lowercased; every column stays reachable through Raw.
func ParseCameras(html, vrmID string) ([]models.CameraRecord, error) {
	doc, err := loadDocument(html, "cameras")
	if err != nil {
		return nil, err
	}

	headers, rows := readTable(doc.Find("table").First())
	cols := resolveColumns(headers, cameraColumns, 0)

	cameras := make([]models.CameraRecord, 0, len(rows))
	for _, row := range rows {
		cameras = append(cameras, models.CameraRecord{
			Row:          row.index,
			VRMID:        vrmID,
			Name:         cellAt(row.cells, cols["name"]),
			Address:      cellAt(row.cells, cols["address"]),
			Recording:    strings.ToLower(cellAt(row.cells, cols["recording"])),
			BlockMounted: strings.ToLower(cellAt(row.cells, cols["blockMounted"])),
			MaxBitrate:   parse.Number(cellAt(row.cells, cols["maxBitrate"])),
			Raw:          headers.raw(row.cells),
		})
	}
	return cameras, nil
}
