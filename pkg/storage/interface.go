package storage

import (
	"context"
	"time"

	"vrm-observer/pkg/models"
)

// DashboardStore keeps the latest normalized dashboard copy per appliance
type DashboardStore interface {
	// SaveDashboard stores rec under its VRMID.
	// Returns false when the stored copy already has the same content hash.
	SaveDashboard(rec *models.DashboardRecord) (changed bool, err error)

	// GetDashboard returns the stored copy, or nil when none exists
	GetDashboard(vrmID string) (*models.DashboardRecord, error)
}

// ScanStore keeps the outcome of the last scan per appliance
type ScanStore interface {
	// CheckScanStatus returns ScanStatusNotFound with a nil record when the appliance was never scanned,
	// and ScanStatusDBError when the lookup failed
	CheckScanStatus(vrmID string) (models.ScanStatus, *models.ScanRecord, error)

	// UpdateScanRecord overwrites the appliance's scan record
	UpdateScanRecord(rec *models.ScanRecord) error

	// ListScanRecords returns every stored scan record ordered by VRMID
	ListScanRecords(ctx context.Context) ([]models.ScanRecord, error)
}

// StoreAdmin handles lifecycle and administrative operations
type StoreAdmin interface {
	// Count returns the number of stored records of both kinds
	Count() int

	// RunGC runs periodic garbage collection. Should be run in a goroutine
	RunGC(ctx context.Context, interval time.Duration)

	// Close cleanly closes the database connection
	Close() error
}

// ObserverStore combines all store interfaces
type ObserverStore interface {
	DashboardStore
	ScanStore
	StoreAdmin
}
