package dashboard

import (
	"vrm-observer/pkg/models"
	"vrm-observer/pkg/parse"
)

// SectionKey names a dashboard section
type SectionKey string

const (
	SectionDevices SectionKey = "devices"
	SectionStorage SectionKey = "storage"
	SectionLoad    SectionKey = "load"
)

// SectionDef lists the heading spellings that open a section
type SectionDef struct {
	Key      SectionKey
	Headings []string
}

// DefaultSections are the headings of the vendor dashboard in Spanish and English
var DefaultSections = []SectionDef{
	{Key: SectionDevices, Headings: []string{"dispositivos", "Devices"}},
	{Key: SectionStorage, Headings: []string{"almacenamiento", "Storage"}},
	{Key: SectionLoad, Headings: []string{"compensacion de carga", "Load balancing", "load balance", "loadbalancing"}},
}

// Bounds is the node range of a section: the heading sits at Start, entries run to End (exclusive)
type Bounds struct {
	Start int
	End   int
}

// LocateSections finds each section's heading in nodes. Matching compares normalized text for
// equality and only the first occurrence of a section's heading counts. A section ends where the
// nearest later section starts, or at the end of nodes. Sections without a heading are absent.
func LocateSections(nodes []models.LeafNode, defs []SectionDef) map[SectionKey]Bounds {
	headings := make(map[string]SectionKey)
	for _, def := range defs {
		for _, h := range def.Headings {
			norm := parse.NormalizeLabel(h)
			if _, taken := headings[norm]; norm != "" && !taken {
				headings[norm] = def.Key
			}
		}
	}

	starts := make(map[SectionKey]int)
	for i, n := range nodes {
		key, ok := headings[parse.NormalizeLabel(n.Text)]
		if !ok {
			continue
		}
		if _, seen := starts[key]; !seen {
			starts[key] = i
		}
	}

	bounds := make(map[SectionKey]Bounds, len(starts))
	for key, start := range starts {
		end := len(nodes)
		for other, otherStart := range starts {
			if other != key && otherStart > start && otherStart < end {
				end = otherStart
			}
		}
		bounds[key] = Bounds{Start: start, End: end}
	}
	return bounds
}
