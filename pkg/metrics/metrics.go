// Package metrics exposes scan and fleet health as Prometheus metrics.
// All methods are safe on a nil *Metrics so components can run without instrumentation.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vrm-observer/pkg/models"
)

// Metrics holds all Prometheus metrics for the observer
type Metrics struct {
	registry *prometheus.Registry

	DocumentsTotal *prometheus.CounterVec
	FetchErrors    *prometheus.CounterVec
	ScansTotal     *prometheus.CounterVec
	ScanDuration   prometheus.Histogram
	CameraStates   *prometheus.GaugeVec
	DeviceTotals   *prometheus.GaugeVec
	LastScan       prometheus.Gauge
}

// NewMetrics registers the observer metrics on a private registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		DocumentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vrm_observer_documents_total",
			Help: "Appliance documents processed, by kind and outcome.",
		}, []string{"document", "status"}),
		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vrm_observer_fetch_errors_total",
			Help: "Document failures by error category.",
		}, []string{"category"}),
		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vrm_observer_appliance_scans_total",
			Help: "Appliance scans by resulting status.",
		}, []string{"status"}),
		ScanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vrm_observer_scan_duration_seconds",
			Help:    "Duration of whole-fleet scans.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		CameraStates: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vrm_observer_cameras",
			Help: "Cameras per recording state in the latest snapshot.",
		}, []string{"state"}),
		DeviceTotals: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vrm_observer_device_totals",
			Help: "Dashboard device metrics summed across appliances in the latest snapshot.",
		}, []string{"metric"}),
		LastScan: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vrm_observer_last_scan_timestamp_seconds",
			Help: "Unix time of the latest snapshot.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncDocument counts one document outcome by kind and status
func (m *Metrics) IncDocument(kind models.DocumentKind, status models.SourceStatus) {
	if m == nil {
		return
	}
	m.DocumentsTotal.WithLabelValues(string(kind), status.String()).Inc()
}

// IncFetchError counts a failed download under its error category
func (m *Metrics) IncFetchError(category string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(category).Inc()
}

// IncScan counts one appliance scan by its final status
func (m *Metrics) IncScan(status models.ScanStatus) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(status.String()).Inc()
}

// ObserveScanDuration records how long a fleet scan took
func (m *Metrics) ObserveScanDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.ScanDuration.Observe(d.Seconds())
}

// RecordSnapshot sets the fleet gauges from a finished snapshot.
// Device totals nobody reported are removed rather than exported as zero.
func (m *Metrics) RecordSnapshot(snap *models.Snapshot) {
	if m == nil || snap == nil {
		return
	}
	s := snap.Summary
	m.CameraStates.WithLabelValues(string(models.CameraStateRecording)).Set(float64(s.Recording))
	m.CameraStates.WithLabelValues(string(models.CameraStateRecordingDisabled)).Set(float64(s.RecordingDisabled))
	m.CameraStates.WithLabelValues(string(models.CameraStatePending)).Set(float64(s.Pending))
	m.CameraStates.WithLabelValues(string(models.CameraStateOffline)).Set(float64(s.Offline))
	m.CameraStates.WithLabelValues(string(models.CameraStateOther)).Set(float64(s.Other))

	for _, key := range models.MetricKeys {
		if v := snap.DeviceTotals[key]; v != nil {
			m.DeviceTotals.WithLabelValues(string(key)).Set(*v)
		} else {
			m.DeviceTotals.DeleteLabelValues(string(key))
		}
	}
	m.LastScan.Set(float64(snap.TakenAt.Unix()))
}
