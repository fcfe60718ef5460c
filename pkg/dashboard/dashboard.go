// Package dashboard extracts labelled metrics from the vendor dashboard page.
// The page carries no markup separating labels from values, so its leaf texts are paired by
// position, segmented by section headings and resolved against alias tables.
package dashboard

import (
	"vrm-observer/pkg/models"
)

// Parse extracts the devices, storage and load sections of a dashboard and resolves the
// canonical device metrics. Missing sections are returned empty.
func Parse(html, vrmID string) (*models.Dashboard, error) {
	nodes, err := LeafNodes(html)
	if err != nil {
		return nil, err
	}
	return FromNodes(nodes, vrmID), nil
}

// FromNodes builds a dashboard from already extracted leaf nodes
func FromNodes(nodes []models.LeafNode, vrmID string) *models.Dashboard {
	result := &models.Dashboard{
		VRMID:   vrmID,
		Devices: models.DeviceSection{Section: models.NewSection()},
		Storage: models.NewSection(),
		Load:    models.NewSection(),
	}

	for key, b := range LocateSections(nodes, DefaultSections) {
		sec := BuildSection(ExtractEntries(nodes, b.Start+1, b.End))
		switch key {
		case SectionDevices:
			result.Devices.Section = sec
		case SectionStorage:
			result.Storage = sec
		case SectionLoad:
			result.Load = sec
		}
	}

	result.Devices.Metrics, result.Devices.MetricsText = ResolveMetrics(result.Devices.Map)
	return result
}
