package tables

import (
	"vrm-observer/pkg/models"
	"vrm-observer/pkg/parse"
)

var deviceColumns = []column{
	{field: "device", names: []string{"Device", "Device address"}, legacy: 0},
	{field: "guid", names: []string{"GUID", "Device GUID"}, legacy: 1},
	{field: "mac", names: []string{"MAC", "MAC address"}, legacy: 2},
	{field: "fw", names: []string{"FW", "Firmware", "Firmware version", "FW version"}, legacy: 3},
	{field: "url", names: []string{"URL"}, legacy: 6},
	{field: "connTime", names: []string{"Connection time", "Conn. time", "Connected since"}, legacy: 7},
	{field: "allocatedBlocks", names: []string{"Allocated blocks", "Blocks allocated"}, legacy: 8},
	{field: "limitedSpansSince", names: []string{"Limited spans since", "Limited spans"}, legacy: 9},
	{field: "lbMode", names: []string{"LB mode", "Load balancing mode"}, legacy: 10},
	{field: "primaryTarget", names: []string{"Primary target", "Primary"}, legacy: 11},
	{field: "maxBitrate", names: []string{"Max bitrate", "Max. bitrate", "Maximum bitrate"}, legacy: 17},
}

// devicesLegacyWidth is the cell count of the fixed showDevices layout
const devicesLegacyWidth = 18

// ParseDevices reads the first table of showDevices.htm, one record per encoder channel
func ParseDevices(html, vrmID string) ([]models.DeviceRecord, error) {
	doc, err := loadDocument(html, "devices")
	if err != nil {
		return nil, err
	}

	headers, rows := readTable(doc.Find("table").First())
	cols := resolveColumns(headers, deviceColumns, devicesLegacyWidth)

	devices := make([]models.DeviceRecord, 0, len(rows))
	for _, row := range rows {
		devices = append(devices, models.DeviceRecord{
			Row:               row.index,
			VRMID:             vrmID,
			Device:            cellAt(row.cells, cols["device"]),
			GUID:              cellAt(row.cells, cols["guid"]),
			MAC:               cellAt(row.cells, cols["mac"]),
			Firmware:          cellAt(row.cells, cols["fw"]),
			URL:               cellAt(row.cells, cols["url"]),
			ConnTime:          cellAt(row.cells, cols["connTime"]),
			AllocatedBlocks:   parse.Number(cellAt(row.cells, cols["allocatedBlocks"])),
			LimitedSpansSince: cellAt(row.cells, cols["limitedSpansSince"]),
			LBMode:            cellAt(row.cells, cols["lbMode"]),
			PrimaryTarget:     cellAt(row.cells, cols["primaryTarget"]),
			MaxBitrate:        parse.Number(cellAt(row.cells, cols["maxBitrate"])),
			Raw:               headers.raw(row.cells),
		})
	}
	return devices, nil
}
