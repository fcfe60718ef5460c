package reconcile

import (
	"vrm-observer/pkg/models"
)

// Totals keys of showTargets.htm used for capacity figures
const (
	TotalGiBKey        = "Total GiB"
	TotalBlocksKey     = "Total number of blocks"
	AvailableBlocksKey = "Available blocks [GiB]"
	EmptyBlocksKey     = "Empty blocks [GiB]"
	ProtectedBlocksKey = "Protected blocks [GiB]"
)

// BuildVRMStats derives the capacity row of one appliance. "Total GiB" is preferred over
// "Total number of blocks"; missing or non-numeric totals count as zero.
func BuildVRMStats(r models.ApplianceResult) models.VRMStats {
	stats := models.VRMStats{VRMID: r.VRMID, Cameras: len(r.Cameras)}
	if r.Targets == nil {
		return stats
	}
	totals := r.Targets.Totals
	stats.TotalGiB = totalNumber(totals, TotalGiBKey)
	if stats.TotalGiB == 0 {
		stats.TotalGiB = totalNumber(totals, TotalBlocksKey)
	}
	stats.AvailableGiB = totalNumber(totals, AvailableBlocksKey)
	stats.EmptyGiB = totalNumber(totals, EmptyBlocksKey)
	stats.ProtectedGiB = totalNumber(totals, ProtectedBlocksKey)
	stats.Targets = len(r.Targets.Targets)
	return stats
}

func totalNumber(totals map[string]models.TotalValue, key string) float64 {
	if tv, ok := totals[key]; ok && tv.Number != nil {
		return *tv.Number
	}
	return 0
}
