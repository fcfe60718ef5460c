package watch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"vrm-observer/pkg/models"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"30s", 30 * time.Second, false},
		{"5m", 5 * time.Minute, false},
		{"1h", time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"1d12h", 36 * time.Hour, false},
		{"0s", 0, true},
		{"-5m", 0, true},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInterval(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseInterval(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseInterval(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got != tt.expected {
				t.Errorf("ParseInterval(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{45 * time.Second, "45s"},
		{15 * time.Minute, "15m"},
		{90 * time.Minute, "1h30m"},
		{2 * time.Hour, "2h"},
		{36 * time.Hour, "1d12h"},
		{48 * time.Hour, "2d"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatInterval(tt.input); got != tt.expected {
				t.Errorf("FormatInterval(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStateManager_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	sm := NewStateManager(tmpDir)

	if err := sm.Load(); err != nil {
		t.Fatalf("Load() on missing file failed: %v", err)
	}
	if !sm.ShouldRun("10.0.0.1", time.Hour) {
		t.Error("ShouldRun() should be true for a never-scanned VRM")
	}

	sm.UpdateVRMState("10.0.0.1", VRMState{
		VRMID:   "S • A (10.0.0.1)",
		Status:  models.ScanStatusPartial,
		Cameras: 12,
	})

	if sm.ShouldRun("10.0.0.1", time.Hour) {
		t.Error("ShouldRun() should be false right after a scan")
	}
	if !sm.ShouldRun("10.0.0.1", 0) {
		t.Error("ShouldRun() should be true with a zero interval")
	}

	if err := sm.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, stateFileName)); err != nil {
		t.Fatalf("state file not written: %v", err)
	}

	reloaded := NewStateManager(tmpDir)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	state, ok := reloaded.GetVRMState("10.0.0.1")
	if !ok {
		t.Fatal("state for 10.0.0.1 not found after reload")
	}
	if state.Cameras != 12 || state.Status != models.ScanStatusPartial || !state.Succeeded() {
		t.Errorf("unexpected reloaded state: %+v", state)
	}
	if len(reloaded.GetAllVRMStates()) != 1 {
		t.Errorf("GetAllVRMStates() = %d entries, want 1", len(reloaded.GetAllVRMStates()))
	}
}

func TestStateManager_HostKeyIsCaseInsensitive(t *testing.T) {
	sm := NewStateManager(t.TempDir())
	sm.UpdateVRMState("VRM-North.local", VRMState{Status: models.ScanStatusSuccess})

	if _, ok := sm.GetVRMState("vrm-north.local"); !ok {
		t.Error("GetVRMState() should ignore host case")
	}
}

func TestStateManager_CorruptFile(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, stateFileName), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := NewStateManager(tmpDir).Load(); err == nil {
		t.Error("Load() expected error for corrupt state file")
	}
}

func TestGetNextRunTime(t *testing.T) {
	sm := NewStateManager(t.TempDir())
	last := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sm.UpdateVRMState("10.0.0.1", VRMState{LastRunTime: last})

	if got := sm.GetNextRunTime("10.0.0.1", 30*time.Minute); !got.Equal(last.Add(30 * time.Minute)) {
		t.Errorf("GetNextRunTime() = %v, want %v", got, last.Add(30*time.Minute))
	}
	if got := sm.GetNextRunTime("10.0.0.9", time.Hour); time.Since(got) > time.Minute {
		t.Errorf("GetNextRunTime() for unknown VRM should be now, got %v", got)
	}
}

func TestStateFromResult(t *testing.T) {
	tests := []struct {
		name   string
		result models.ApplianceResult
		want   models.ScanStatus
	}{
		{
			name: "all sources ok",
			result: models.ApplianceResult{Sources: []models.SourceOutcome{
				{Document: models.DocumentCameras, Status: models.SourceStatusOK},
			}},
			want: models.ScanStatusSuccess,
		},
		{
			name: "one source unavailable",
			result: models.ApplianceResult{Sources: []models.SourceOutcome{
				{Document: models.DocumentCameras, Status: models.SourceStatusOK},
				{Document: models.DocumentTargets, Status: models.SourceStatusUnavailable},
			}},
			want: models.ScanStatusPartial,
		},
		{
			name:   "total failure",
			result: models.ApplianceResult{Error: "total failure on 10.0.0.1"},
			want:   models.ScanStatusFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stateFromResult(tt.result).Status; got != tt.want {
				t.Errorf("stateFromResult() status = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCalculateTickInterval(t *testing.T) {
	tests := []struct {
		interval time.Duration
		expected time.Duration
	}{
		{5 * time.Minute, time.Minute},
		{30 * time.Minute, 3 * time.Minute},
		{24 * time.Hour, 10 * time.Minute},
	}
	for _, tt := range tests {
		s := &Scheduler{interval: tt.interval}
		if got := s.calculateTickInterval(); got != tt.expected {
			t.Errorf("calculateTickInterval(%v) = %v, want %v", tt.interval, got, tt.expected)
		}
	}

	s := &Scheduler{interval: time.Hour, tick: 5 * time.Millisecond}
	if got := s.calculateTickInterval(); got != 5*time.Millisecond {
		t.Errorf("calculateTickInterval() with override = %v", got)
	}
}

type countingScanner struct {
	mu    sync.Mutex
	calls int
}

func (c *countingScanner) Scan(ctx context.Context, vrms []models.VRM) *models.Snapshot {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	snap := &models.Snapshot{ID: "snap", TakenAt: time.Now()}
	for _, v := range vrms {
		snap.VRMs = append(snap.VRMs, models.ApplianceResult{
			VRM:     v,
			VRMID:   v.Name,
			Cameras: make([]models.EnrichedCamera, 2),
			Sources: []models.SourceOutcome{{Document: models.DocumentCameras, Status: models.SourceStatusOK}},
		})
	}
	return snap
}

func (c *countingScanner) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func TestScheduler_ScansDueVRMsAndPersistsState(t *testing.T) {
	tmpDir := t.TempDir()
	scanner := &countingScanner{}
	vrms := []models.VRM{{Site: "S", Name: "A", Host: "10.0.0.1"}, {Site: "S", Name: "B", Host: "10.0.0.2"}}

	var mu sync.Mutex
	var published []*models.Snapshot
	s := NewScheduler(scanner, vrms, time.Hour, tmpDir, func(snap *models.Snapshot) {
		mu.Lock()
		published = append(published, snap)
		mu.Unlock()
	}, testLogger())
	s.tick = 5 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- s.Run() }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(published)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no snapshot published")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Several ticks pass without a second scan because the interval has not elapsed
	time.Sleep(30 * time.Millisecond)
	s.Stop()
	if err := <-done; err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	if got := scanner.count(); got != 1 {
		t.Errorf("scanner called %d times, want 1", got)
	}

	status := s.GetStatus()
	if status["10.0.0.2"].NeverRun || status["10.0.0.2"].Cameras != 2 {
		t.Errorf("unexpected status for 10.0.0.2: %+v", status["10.0.0.2"])
	}

	reloaded := NewStateManager(tmpDir)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	state, ok := reloaded.GetVRMState("10.0.0.1")
	if !ok || state.Status != models.ScanStatusSuccess {
		t.Errorf("persisted state for 10.0.0.1 = %+v, %v", state, ok)
	}
}

func TestScheduler_SkipsRecentlyScannedVRMs(t *testing.T) {
	tmpDir := t.TempDir()
	sm := NewStateManager(tmpDir)
	sm.UpdateVRMState("10.0.0.1", VRMState{Status: models.ScanStatusSuccess})
	if err := sm.Save(); err != nil {
		t.Fatal(err)
	}

	scanner := &countingScanner{}
	s := NewScheduler(scanner, []models.VRM{{Host: "10.0.0.1"}}, time.Hour, tmpDir, nil, testLogger())
	s.tick = 5 * time.Millisecond

	done := make(chan error, 1)
	go func() { done <- s.Run() }()
	time.Sleep(30 * time.Millisecond)
	s.Stop()
	<-done

	if got := scanner.count(); got != 0 {
		t.Errorf("scanner called %d times, want 0", got)
	}
}
