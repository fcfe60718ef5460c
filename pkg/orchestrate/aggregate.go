package orchestrate

import (
	"time"

	"github.com/google/uuid"

	"vrm-observer/pkg/models"
	"vrm-observer/pkg/reconcile"
)

// BuildSnapshot merges appliance results into a fleet snapshot.
// Every appliance gets a VRMStats row, including those that failed.
func BuildSnapshot(results []models.ApplianceResult, progress []string) *models.Snapshot {
	if results == nil {
		results = []models.ApplianceResult{}
	}
	if progress == nil {
		progress = []string{}
	}
	snap := &models.Snapshot{
		ID:       uuid.NewString(),
		TakenAt:  time.Now().UTC(),
		Progress: progress,
		VRMs:     results,
		Cameras:  []models.EnrichedCamera{},
		VRMStats: make([]models.VRMStats, 0, len(results)),
	}

	var dashboards []*models.Dashboard
	for _, r := range results {
		snap.Cameras = append(snap.Cameras, r.Cameras...)
		snap.VRMStats = append(snap.VRMStats, reconcile.BuildVRMStats(r))
		if r.Dashboard != nil {
			dashboards = append(dashboards, r.Dashboard)
		}
	}
	snap.Summary = reconcile.SummarizeCameraStatuses(snap.Cameras)
	snap.DeviceTotals = reconcile.AggregateDeviceTotals(dashboards)
	return snap
}
