package orchestrate

import (
	"strings"

	"vrm-observer/pkg/archive"
	"vrm-observer/pkg/dashboard"
	"vrm-observer/pkg/fetch"
	"vrm-observer/pkg/models"
)

// DefaultImportLabel names an appliance assembled from uploaded files
const DefaultImportLabel = "Imported • VRM (no-IP)"

// UploadResult is the outcome of parsing an uploaded dashboard file
type UploadResult struct {
	FileName   string            `json:"fileName"`
	HTML       string            `json:"-"`
	Ext        string            `json:"ext"`
	Converted  bool              `json:"convertedFromMhtml"`
	Dashboard  *models.Dashboard `json:"dashboard,omitempty"`
	ParseError string            `json:"parseError,omitempty"`
}

// ParseUpload converts and parses a single uploaded dashboard file.
// The file name provides the extension hint and labels the dashboard.
func ParseUpload(fileName string, data []byte) UploadResult {
	ext := archive.DetectExtension(fileName, "", data)
	decoded := archive.Decode(data, "", ext)

	res := UploadResult{
		FileName:  fileName,
		HTML:      decoded.HTML,
		Ext:       decoded.Ext,
		Converted: decoded.Converted,
	}
	d, err := safeParse(models.DocumentDashboard, func() (*models.Dashboard, error) {
		return dashboard.Parse(decoded.HTML, fileName)
	})
	if err != nil {
		res.ParseError = err.Error()
		return res
	}
	res.Dashboard = d
	return res
}

// UploadFile is one file of a manual import
type UploadFile struct {
	Name string
	Data []byte
}

// ClassifyUpload guesses which appliance document a file holds from its name.
// Anything that is not one of the debug tables is treated as the dashboard.
func ClassifyUpload(fileName string) models.DocumentKind {
	name := strings.ToLower(fileName)
	switch {
	case strings.Contains(name, "showcameras"):
		return models.DocumentCameras
	case strings.Contains(name, "showdevices"):
		return models.DocumentDevices
	case strings.Contains(name, "showtargets"):
		return models.DocumentTargets
	}
	return models.DocumentDashboard
}

// Import builds a snapshot of a single appliance from manually saved pages.
// When several files map to the same document the first one is used.
func (o *Orchestrator) Import(label string, files []UploadFile) *models.Snapshot {
	if strings.TrimSpace(label) == "" {
		label = DefaultImportLabel
	}
	res := models.ApplianceResult{VRMID: label, Cameras: []models.EnrichedCamera{}}
	progress := &progressLog{log: o.log.WithField("vrm", label)}
	progress.note("Importing %d file(s) as %s", len(files), label)

	docs := make(map[models.DocumentKind]fetch.DocumentResult, len(files))
	for _, f := range files {
		kind := ClassifyUpload(f.Name)
		if _, dup := docs[kind]; dup {
			progress.note("%s ignored: %s already provided", f.Name, kind)
			continue
		}
		docs[kind] = fetch.DocumentResult{
			OK:   true,
			Data: f.Data,
			Rel:  f.Name,
			Ext:  archive.DetectExtension(f.Name, "", f.Data),
		}
	}

	if usable, _ := o.assemble(&res, docs, progress); usable == 0 {
		res.Error = "no usable file in import"
		progress.note("%s", res.Error)
	} else {
		progress.note("OK %s — cams: %d, devs: %d", res.VRMID, len(res.Cameras), res.DevicesCount)
	}
	return BuildSnapshot([]models.ApplianceResult{res}, progress.lines)
}
