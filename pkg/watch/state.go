package watch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"vrm-observer/pkg/models"
)

const stateFileName = "watch_state.json"

// VRMState contains the last scan information for an appliance
type VRMState struct {
	VRMID        string            `json:"vrm_id"`
	LastRunTime  time.Time         `json:"last_run_time"`
	Status       models.ScanStatus `json:"status"`
	Cameras      int               `json:"cameras"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// Succeeded reports whether the last scan produced any data
func (s VRMState) Succeeded() bool {
	return s.Status == models.ScanStatusSuccess || s.Status == models.ScanStatusPartial
}

// WatchState contains the persistent state for the watch scheduler, keyed by appliance host
type WatchState struct {
	VRMs      map[string]VRMState `json:"vrms"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// StateManager handles persisting and loading watch state
type StateManager struct {
	stateDir  string
	statePath string
	state     WatchState
	mu        sync.RWMutex
}

// NewStateManager creates a new state manager
func NewStateManager(stateDir string) *StateManager {
	return &StateManager{
		stateDir:  stateDir,
		statePath: filepath.Join(stateDir, stateFileName),
		state: WatchState{
			VRMs: make(map[string]VRMState),
		},
	}
}

func stateKey(host string) string {
	return strings.ToLower(host)
}

// Load loads the state from disk
func (m *StateManager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.state = WatchState{
				VRMs: make(map[string]VRMState),
			}
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	if err := json.Unmarshal(data, &m.state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}

	if m.state.VRMs == nil {
		m.state.VRMs = make(map[string]VRMState)
	}

	return nil
}

// Save saves the state to disk
func (m *StateManager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.UpdatedAt = time.Now()

	if err := os.MkdirAll(m.stateDir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// Written next to the target and renamed so readers never see a partial file
	tmp := m.statePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, m.statePath); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// GetVRMState returns the state for a specific appliance host
func (m *StateManager) GetVRMState(host string) (VRMState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.state.VRMs[stateKey(host)]
	return state, ok
}

// UpdateVRMState records the outcome of an appliance scan
func (m *StateManager) UpdateVRMState(host string, state VRMState) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state.LastRunTime.IsZero() {
		state.LastRunTime = time.Now()
	}
	m.state.VRMs[stateKey(host)] = state
}

// ShouldRun checks if an appliance is due based on the interval
func (m *StateManager) ShouldRun(host string, interval time.Duration) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.state.VRMs[stateKey(host)]
	if !ok {
		return true
	}
	return time.Since(state.LastRunTime) >= interval
}

// GetNextRunTime returns when the appliance should next be scanned
func (m *StateManager) GetNextRunTime(host string, interval time.Duration) time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.state.VRMs[stateKey(host)]
	if !ok {
		return time.Now()
	}

	return state.LastRunTime.Add(interval)
}

// GetAllVRMStates returns a copy of every appliance state
func (m *StateManager) GetAllVRMStates() map[string]VRMState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]VRMState, len(m.state.VRMs))
	for k, v := range m.state.VRMs {
		result[k] = v
	}
	return result
}
