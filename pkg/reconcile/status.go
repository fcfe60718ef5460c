package reconcile

import (
	"math"
	"strings"

	"vrm-observer/pkg/models"
)

// Classify maps a camera's recording-state text to a CameraState. Checks run in priority order.
func Classify(recording string) models.CameraState {
	state := strings.ToLower(strings.TrimSpace(recording))
	switch {
	case state == "":
		return models.CameraStateOther
	case strings.Contains(state, "recording disabled"):
		return models.CameraStateRecordingDisabled
	case strings.Contains(state, "pending") &&
		(strings.Contains(state, "no blocks") || strings.Contains(state, "connecting to storage")):
		return models.CameraStatePending
	case strings.Contains(state, "offline") || strings.Contains(state, "off-line"):
		return models.CameraStateOffline
	case strings.Contains(state, "record"):
		return models.CameraStateRecording
	default:
		return models.CameraStateOther
	}
}

// SummarizeCameraStatuses counts cameras per state
func SummarizeCameraStatuses(cameras []models.EnrichedCamera) models.StatusSummary {
	var s models.StatusSummary
	for _, c := range cameras {
		switch Classify(c.Recording) {
		case models.CameraStateRecordingDisabled:
			s.RecordingDisabled++
		case models.CameraStatePending:
			s.Pending++
		case models.CameraStateOffline:
			s.Offline++
		case models.CameraStateRecording:
			s.Recording++
		default:
			s.Other++
		}
	}
	s.Total = len(cameras)
	s.VMSIssues = s.RecordingDisabled + s.Pending
	s.ExternalIssues = s.Offline
	return s
}

// AggregateDeviceTotals sums each canonical dashboard metric over the dashboards.
// Nil dashboards and non-finite values are skipped; a metric is nil only when nothing contributed.
func AggregateDeviceTotals(dashboards []*models.Dashboard) models.DeviceTotals {
	totals := make(models.DeviceTotals, len(models.MetricKeys))
	for _, key := range models.MetricKeys {
		var sum float64
		contributed := false
		for _, d := range dashboards {
			if d == nil {
				continue
			}
			v := d.Devices.Metrics[key]
			if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
				continue
			}
			sum += *v
			contributed = true
		}
		if contributed {
			total := sum
			totals[key] = &total
		} else {
			totals[key] = nil
		}
	}
	return totals
}
