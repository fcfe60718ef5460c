package orchestrate

import (
	"fmt"
	"path"

	"vrm-observer/pkg/config"
	"vrm-observer/pkg/models"
	"vrm-observer/pkg/utils"
)

// Debug table pages, relative to the configured debug base path
const (
	TargetsPage = "showTargets.htm"
	DevicesPage = "showDevices.htm"
	CamerasPage = "showCameras.htm"
)

// documentOrder is the order in which an appliance's documents are fetched
var documentOrder = []models.DocumentKind{
	models.DocumentTargets,
	models.DocumentDevices,
	models.DocumentCameras,
	models.DocumentDashboard,
}

// candidatePaths returns the paths tried for a document kind
func candidatePaths(appCfg *config.AppConfig, kind models.DocumentKind) []string {
	switch kind {
	case models.DocumentTargets:
		return []string{path.Join(appCfg.DebugBasePath, TargetsPage)}
	case models.DocumentDevices:
		return []string{path.Join(appCfg.DebugBasePath, DevicesPage)}
	case models.DocumentCameras:
		return []string{path.Join(appCfg.DebugBasePath, CamerasPage)}
	case models.DocumentDashboard:
		return appCfg.DashboardPaths
	}
	return nil
}

// safeParse runs a parser, turning a panic into an ErrParserPanic error
func safeParse[T any](kind models.DocumentKind, parse func() (T, error)) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			err = fmt.Errorf("%w: %s parser: %v", utils.ErrParserPanic, kind, r)
		}
	}()
	return parse()
}

// VRMID formats the display identifier of an appliance
func VRMID(v models.VRM) string {
	return fmt.Sprintf("%s • %s (%s)", v.Site, v.Name, v.Host)
}
