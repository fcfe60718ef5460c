package mcp

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a scan job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// IsActive reports whether a job in this status still occupies its scope
func (s JobStatus) IsActive() bool {
	return s == JobStatusPending || s == JobStatusRunning
}

// Job represents a background fleet scan
type Job struct {
	ID              string    `json:"id"`
	Scope           string    `json:"scope"` // Sorted, lowercased appliance hosts
	Status          JobStatus `json:"status"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at,omitempty"`
	AppliancesDone  int       `json:"appliances_done"`
	AppliancesTotal int       `json:"appliances_total"`
	SnapshotID      string    `json:"snapshot_id,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`

	ctx    context.Context
	cancel context.CancelFunc
}

// ScopeKey identifies the set of appliances a job scans, independent of order
func ScopeKey(hosts []string) string {
	keys := make([]string, len(hosts))
	for i, h := range hosts {
		keys[i] = strings.ToLower(h)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// JobManager manages background scan jobs
type JobManager struct {
	jobs    map[string]*Job
	mu      sync.RWMutex
	byScope map[string]string // scope -> jobID for active jobs
}

// NewJobManager creates a new job manager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:    make(map[string]*Job),
		byScope: make(map[string]string),
	}
}

// CreateJob registers a job for scope. When a job for the same scope is still active it is
// returned instead, with created set to false.
func (m *JobManager) CreateJob(scope string, total int) (job Job, created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existingID, exists := m.byScope[scope]; exists {
		if existing := m.jobs[existingID]; existing != nil && existing.Status.IsActive() {
			return *existing, false
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	j := &Job{
		ID:              uuid.New().String(),
		Scope:           scope,
		Status:          JobStatusPending,
		StartedAt:       time.Now(),
		AppliancesTotal: total,
		ctx:             ctx,
		cancel:          cancel,
	}
	m.jobs[j.ID] = j
	m.byScope[scope] = j.ID
	return *j, true
}

// GetJob returns a copy of the job, or nil when unknown
func (m *JobManager) GetJob(jobID string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if job, exists := m.jobs[jobID]; exists {
		cp := *job
		return &cp
	}
	return nil
}

// GetJobByScope returns a copy of the active job for scope, or nil
func (m *JobManager) GetJobByScope(scope string) *Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if jobID, exists := m.byScope[scope]; exists {
		if job := m.jobs[jobID]; job != nil {
			cp := *job
			return &cp
		}
	}
	return nil
}

// IsRunning checks if an active job covers scope
func (m *JobManager) IsRunning(scope string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if jobID, exists := m.byScope[scope]; exists {
		job := m.jobs[jobID]
		return job != nil && job.Status.IsActive()
	}
	return false
}

// UpdateStatus updates the status of a job. Terminal states free the job's scope.
// A cancelled job keeps its status.
func (m *JobManager) UpdateStatus(jobID string, status JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, exists := m.jobs[jobID]
	if !exists || job.Status == JobStatusCancelled {
		return
	}
	job.Status = status
	if !status.IsActive() {
		job.CompletedAt = time.Now()
		delete(m.byScope, job.Scope)
	}
	if errorMsg != "" {
		job.ErrorMessage = errorMsg
	}
}

// UpdateProgress records how many appliances have finished.
// Reports may arrive out of order, so the count never goes down.
func (m *JobManager) UpdateProgress(jobID string, done, total int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[jobID]; exists {
		if done > job.AppliancesDone {
			job.AppliancesDone = done
		}
		job.AppliancesTotal = total
	}
}

// Complete marks the job completed with the snapshot it produced
func (m *JobManager) Complete(jobID, snapshotID string) {
	m.mu.Lock()
	if job, exists := m.jobs[jobID]; exists && job.Status != JobStatusCancelled {
		job.SnapshotID = snapshotID
	}
	m.mu.Unlock()
	m.UpdateStatus(jobID, JobStatusCompleted, "")
}

// CancelJob cancels an active job
func (m *JobManager) CancelJob(jobID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if job, exists := m.jobs[jobID]; exists && job.Status.IsActive() {
		job.cancel()
		job.Status = JobStatusCancelled
		job.CompletedAt = time.Now()
		delete(m.byScope, job.Scope)
		return true
	}
	return false
}

// CancelAll cancels all active jobs
func (m *JobManager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, job := range m.jobs {
		if job.Status.IsActive() {
			job.cancel()
			job.Status = JobStatusCancelled
			job.CompletedAt = time.Now()
		}
	}
	m.byScope = make(map[string]string)
}

// ListJobs returns copies of all jobs, oldest first
func (m *JobManager) ListJobs() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].StartedAt.Before(jobs[j].StartedAt) })
	return jobs
}

// GetContext returns the context a job's scan runs under
func (m *JobManager) GetContext(jobID string) context.Context {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if job, exists := m.jobs[jobID]; exists {
		return job.ctx
	}
	return context.Background()
}
