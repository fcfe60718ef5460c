// Package watch rescans the fleet periodically and keeps the last scan time per appliance on disk.
package watch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"vrm-observer/pkg/models"
)

// Scanner runs a scan over a set of appliances
type Scanner interface {
	Scan(ctx context.Context, vrms []models.VRM) *models.Snapshot
}

// Scheduler manages periodic scans of appliances
type Scheduler struct {
	scanner      Scanner
	vrms         []models.VRM
	interval     time.Duration
	tick         time.Duration // Overrides the computed check interval when > 0
	onSnapshot   func(*models.Snapshot)
	log          *logrus.Entry
	stateManager *StateManager

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running sync.Mutex // Held while a scan is in flight
}

// NewScheduler creates a new watch scheduler. onSnapshot, when set, receives every snapshot the
// scheduler produces.
func NewScheduler(scanner Scanner, vrms []models.VRM, interval time.Duration, stateDir string, onSnapshot func(*models.Snapshot), log *logrus.Entry) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		scanner:      scanner,
		vrms:         vrms,
		interval:     interval,
		onSnapshot:   onSnapshot,
		log:          log,
		stateManager: NewStateManager(stateDir),
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Run starts the watch scheduler and blocks until stopped
func (s *Scheduler) Run() error {
	if err := s.stateManager.Load(); err != nil {
		s.log.Warnf("Failed to load watch state: %v (starting fresh)", err)
	}

	s.log.Infof("Starting watch mode for %d VRMs with interval %v", len(s.vrms), FormatInterval(s.interval))
	s.logSchedule()

	s.runDueVRMs()

	ticker := time.NewTicker(s.calculateTickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info("Watch scheduler shutting down...")
			s.wg.Wait()
			return nil
		case <-ticker.C:
			s.runDueVRMs()
		}
	}
}

// Stop stops the watch scheduler and cancels an in-flight scan
func (s *Scheduler) Stop() {
	s.log.Info("Stopping watch scheduler...")
	s.cancel()
}

// runDueVRMs scans every appliance that is due. A tick that lands while a scan is still running
// is skipped.
func (s *Scheduler) runDueVRMs() {
	due := s.getDueVRMs()
	if len(due) == 0 {
		s.logNextRun()
		return
	}
	if !s.running.TryLock() {
		s.log.Debug("Previous scan still running, skipping tick")
		return
	}

	hosts := make([]string, len(due))
	for i, v := range due {
		hosts[i] = v.Host
	}
	s.log.Infof("Scanning %d due VRMs: %s", len(due), strings.Join(hosts, ", "))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Unlock()

		snap := s.scanner.Scan(s.ctx, due)
		if s.ctx.Err() != nil {
			s.log.Info("Scan interrupted by shutdown, state not updated")
			return
		}

		for _, r := range snap.VRMs {
			s.stateManager.UpdateVRMState(r.VRM.Host, stateFromResult(r))
		}
		if err := s.stateManager.Save(); err != nil {
			s.log.Errorf("Failed to save watch state: %v", err)
		}
		if s.onSnapshot != nil {
			s.onSnapshot(snap)
		}

		s.logNextRun()
	}()
}

// stateFromResult condenses an appliance result into its watch state
func stateFromResult(r models.ApplianceResult) VRMState {
	state := VRMState{
		VRMID:   r.VRMID,
		Status:  models.ScanStatusSuccess,
		Cameras: len(r.Cameras),
	}
	if r.Error != "" {
		state.Status = models.ScanStatusFailure
		state.ErrorMessage = r.Error
		return state
	}
	for _, src := range r.Sources {
		if !src.Status.IsUsable() {
			state.Status = models.ScanStatusPartial
		}
	}
	if len(r.Errors) > 0 {
		state.ErrorMessage = strings.Join(r.Errors, "; ")
	}
	return state
}

// getDueVRMs returns appliances that are due for a scan
func (s *Scheduler) getDueVRMs() []models.VRM {
	var due []models.VRM
	for _, v := range s.vrms {
		if s.stateManager.ShouldRun(v.Host, s.interval) {
			due = append(due, v)
		}
	}
	return due
}

// calculateTickInterval returns how often to check for due appliances
func (s *Scheduler) calculateTickInterval() time.Duration {
	if s.tick > 0 {
		return s.tick
	}
	checkInterval := s.interval / 10
	if checkInterval < time.Minute {
		checkInterval = time.Minute
	}
	if checkInterval > 10*time.Minute {
		checkInterval = 10 * time.Minute
	}
	return checkInterval
}

// logSchedule logs the current schedule
func (s *Scheduler) logSchedule() {
	s.log.Info("Watch schedule:")
	for _, v := range s.vrms {
		state, exists := s.stateManager.GetVRMState(v.Host)
		if !exists {
			s.log.Infof("  %s: never scanned, will scan immediately", v.Host)
			continue
		}
		nextRun := s.stateManager.GetNextRunTime(v.Host, s.interval)
		s.log.Infof("  %s: last scan %v (%s, %d cameras), next scan %v",
			v.Host,
			state.LastRunTime.Format(time.RFC3339),
			state.Status,
			state.Cameras,
			nextRun.Format(time.RFC3339))
	}
}

// logNextRun logs when the next scan will occur
func (s *Scheduler) logNextRun() {
	type nextRun struct {
		host string
		at   time.Time
	}
	var runs []nextRun
	for _, v := range s.vrms {
		runs = append(runs, nextRun{v.Host, s.stateManager.GetNextRunTime(v.Host, s.interval)})
	}
	if len(runs) == 0 {
		return
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].at.Before(runs[j].at)
	})

	next := runs[0]
	until := time.Until(next.at)
	if until < 0 {
		until = 0
	}
	s.log.Infof("Next scan: %s in %v (at %s)", next.host, until.Round(time.Second), next.at.Format("15:04:05"))
}

// GetStatus returns the current status of all watched appliances, keyed by host
func (s *Scheduler) GetStatus() map[string]VRMStatus {
	status := make(map[string]VRMStatus, len(s.vrms))

	for _, v := range s.vrms {
		state, exists := s.stateManager.GetVRMState(v.Host)
		status[v.Host] = VRMStatus{
			Host:        v.Host,
			VRMState:    state,
			NextRunTime: s.stateManager.GetNextRunTime(v.Host, s.interval),
			NeverRun:    !exists,
		}
	}

	return status
}

// VRMStatus contains the status of a watched appliance
type VRMStatus struct {
	Host string
	VRMState
	NextRunTime time.Time
	NeverRun    bool
}

// FormatInterval formats a duration for display
func FormatInterval(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		if mins > 0 {
			return fmt.Sprintf("%dh%dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}

// ParseInterval parses a duration string with support for a leading day count ("1d12h")
func ParseInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err == nil {
		if d <= 0 {
			return 0, fmt.Errorf("interval must be positive: %s", s)
		}
		return d, nil
	}

	var days int
	var remaining string
	n, _ := fmt.Sscanf(s, "%dd%s", &days, &remaining)
	if n >= 1 && days > 0 {
		d = time.Duration(days) * 24 * time.Hour
		if remaining != "" {
			extra, err := time.ParseDuration(remaining)
			if err != nil {
				return 0, fmt.Errorf("invalid interval format: %s", s)
			}
			d += extra
		}
		return d, nil
	}

	return 0, fmt.Errorf("invalid interval format: %s (examples: 30m, 1h, 24h, 7d)", s)
}
