// Package snapshot holds the most recent fleet snapshot in memory
package snapshot

import (
	"sync/atomic"

	"vrm-observer/pkg/models"
)

// Store keeps the latest snapshot. A new scan or upload replaces it wholesale.
type Store struct {
	current atomic.Pointer[models.Snapshot]
}

// NewStore returns a store holding an empty snapshot
func NewStore() *Store {
	s := &Store{}
	s.current.Store(Empty())
	return s
}

// Empty is the snapshot served before the first scan
func Empty() *models.Snapshot {
	return &models.Snapshot{
		Progress:     []string{},
		VRMs:         []models.ApplianceResult{},
		Cameras:      []models.EnrichedCamera{},
		VRMStats:     []models.VRMStats{},
		DeviceTotals: models.DeviceTotals{},
	}
}

// Load returns the current snapshot. Callers must treat it as read-only.
func (s *Store) Load() *models.Snapshot {
	return s.current.Load()
}

// Replace swaps in snap and returns the previous snapshot. A nil snap is ignored.
func (s *Store) Replace(snap *models.Snapshot) *models.Snapshot {
	if snap == nil {
		return s.current.Load()
	}
	return s.current.Swap(snap)
}
