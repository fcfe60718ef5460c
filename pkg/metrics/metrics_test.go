package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrm-observer/pkg/models"
)

func TestCounters(t *testing.T) {
	m := NewMetrics()

	m.IncDocument(models.DocumentCameras, models.SourceStatusOK)
	m.IncDocument(models.DocumentCameras, models.SourceStatusOK)
	m.IncDocument(models.DocumentDashboard, models.SourceStatusUnavailable)
	m.IncFetchError("HTTP_401")
	m.IncScan(models.ScanStatusPartial)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsTotal.WithLabelValues("cameras", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsTotal.WithLabelValues("dashboard", "unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchErrors.WithLabelValues("HTTP_401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScansTotal.WithLabelValues("partial")))
}

func TestRecordSnapshot(t *testing.T) {
	m := NewMetrics()
	total := 128.0
	snap := &models.Snapshot{
		TakenAt:      time.Unix(1700000000, 0),
		Summary:      models.StatusSummary{Recording: 10, Offline: 2, Total: 12},
		DeviceTotals: models.DeviceTotals{models.MetricTotalChannels: &total, models.MetricSignalLoss: nil},
	}

	m.RecordSnapshot(snap)

	assert.Equal(t, 10.0, testutil.ToFloat64(m.CameraStates.WithLabelValues("recording")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CameraStates.WithLabelValues("offline")))
	assert.Equal(t, 128.0, testutil.ToFloat64(m.DeviceTotals.WithLabelValues("totalChannels")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DeviceTotals))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.LastScan))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncDocument(models.DocumentTargets, models.SourceStatusOK)
		m.IncFetchError("Unknown")
		m.IncScan(models.ScanStatusSuccess)
		m.ObserveScanDuration(time.Second)
		m.RecordSnapshot(&models.Snapshot{})
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.IncFetchError("Network_Timeout")
	m.ObserveScanDuration(3 * time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `vrm_observer_fetch_errors_total{category="Network_Timeout"} 1`)
	assert.Contains(t, string(body), "vrm_observer_scan_duration_seconds_count 1")
}
