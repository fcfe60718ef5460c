package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestJob(t *testing.T, jm *JobManager, scope string) Job {
	t.Helper()
	job, created := jm.CreateJob(scope, 2)
	require.True(t, created)
	require.NotEmpty(t, job.ID)
	return job
}

func TestScopeKey(t *testing.T) {
	assert.Equal(t, "10.0.0.1,10.0.0.2", ScopeKey([]string{"10.0.0.2", "10.0.0.1"}))
	assert.Equal(t, ScopeKey([]string{"VRM.local", "a"}), ScopeKey([]string{"a", "vrm.local"}))
	assert.Equal(t, "", ScopeKey(nil))
}

func TestNewJobManager(t *testing.T) {
	jm := NewJobManager()
	require.NotNil(t, jm)
	assert.Empty(t, jm.ListJobs())
}

func TestCreateJob(t *testing.T) {
	t.Run("new job fields correct", func(t *testing.T) {
		jm := NewJobManager()
		job := createTestJob(t, jm, "fleet")

		assert.Equal(t, "fleet", job.Scope)
		assert.Equal(t, JobStatusPending, job.Status)
		assert.Equal(t, 2, job.AppliancesTotal)
		assert.Zero(t, job.AppliancesDone)
		assert.False(t, job.StartedAt.IsZero())
		assert.True(t, job.CompletedAt.IsZero())
		assert.Empty(t, job.SnapshotID)
		assert.Empty(t, job.ErrorMessage)
	})

	t.Run("active scope returns same job", func(t *testing.T) {
		jm := NewJobManager()
		job1 := createTestJob(t, jm, "fleet")
		job2, created := jm.CreateJob("fleet", 2)
		assert.False(t, created)
		assert.Equal(t, job1.ID, job2.ID)
	})

	t.Run("new job allowed after completion", func(t *testing.T) {
		jm := NewJobManager()
		job1 := createTestJob(t, jm, "fleet")
		jm.Complete(job1.ID, "snap")

		job2 := createTestJob(t, jm, "fleet")
		assert.NotEqual(t, job1.ID, job2.ID)
	})

	t.Run("different scopes independent", func(t *testing.T) {
		jm := NewJobManager()
		job1 := createTestJob(t, jm, "a")
		job2 := createTestJob(t, jm, "b")
		assert.NotEqual(t, job1.ID, job2.ID)
	})
}

func TestGetJob(t *testing.T) {
	jm := NewJobManager()

	t.Run("exists returns copy", func(t *testing.T) {
		job := createTestJob(t, jm, "fleet")
		got := jm.GetJob(job.ID)
		require.NotNil(t, got)
		assert.Equal(t, job.ID, got.ID)

		got.Status = JobStatusFailed
		assert.Equal(t, JobStatusPending, jm.GetJob(job.ID).Status)
	})

	t.Run("missing returns nil", func(t *testing.T) {
		assert.Nil(t, jm.GetJob("nonexistent-id"))
	})
}

func TestGetJobByScope(t *testing.T) {
	jm := NewJobManager()
	job := createTestJob(t, jm, "fleet")

	got := jm.GetJobByScope("fleet")
	require.NotNil(t, got)
	assert.Equal(t, job.ID, got.ID)

	jm.UpdateStatus(job.ID, JobStatusFailed, "x")
	assert.Nil(t, jm.GetJobByScope("fleet"))
	assert.Nil(t, jm.GetJobByScope("missing"))
}

func TestIsRunning(t *testing.T) {
	tests := []struct {
		name   string
		finish func(jm *JobManager, id string)
		want   bool
	}{
		{"pending", func(*JobManager, string) {}, true},
		{"running", func(jm *JobManager, id string) { jm.UpdateStatus(id, JobStatusRunning, "") }, true},
		{"completed", func(jm *JobManager, id string) { jm.Complete(id, "s") }, false},
		{"failed", func(jm *JobManager, id string) { jm.UpdateStatus(id, JobStatusFailed, "boom") }, false},
		{"cancelled", func(jm *JobManager, id string) { jm.CancelJob(id) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jm := NewJobManager()
			job := createTestJob(t, jm, "fleet")
			tt.finish(jm, job.ID)
			assert.Equal(t, tt.want, jm.IsRunning("fleet"))
		})
	}

	assert.False(t, NewJobManager().IsRunning("ghost"))
}

func TestUpdateStatus(t *testing.T) {
	t.Run("to failed sets error and completion time", func(t *testing.T) {
		jm := NewJobManager()
		job := createTestJob(t, jm, "fleet")
		jm.UpdateStatus(job.ID, JobStatusFailed, "no appliances")

		got := jm.GetJob(job.ID)
		assert.Equal(t, JobStatusFailed, got.Status)
		assert.Equal(t, "no appliances", got.ErrorMessage)
		assert.False(t, got.CompletedAt.IsZero())
	})

	t.Run("cancelled job keeps status", func(t *testing.T) {
		jm := NewJobManager()
		job := createTestJob(t, jm, "fleet")
		jm.CancelJob(job.ID)
		jm.Complete(job.ID, "late")

		got := jm.GetJob(job.ID)
		assert.Equal(t, JobStatusCancelled, got.Status)
		assert.Empty(t, got.SnapshotID)
	})

	t.Run("nonexistent is no-op", func(t *testing.T) {
		jm := NewJobManager()
		jm.UpdateStatus("fake-id", JobStatusRunning, "")
	})
}

func TestUpdateProgressAndComplete(t *testing.T) {
	jm := NewJobManager()
	job := createTestJob(t, jm, "fleet")

	jm.UpdateProgress(job.ID, 1, 2)
	got := jm.GetJob(job.ID)
	assert.Equal(t, 1, got.AppliancesDone)
	assert.Equal(t, 2, got.AppliancesTotal)

	jm.Complete(job.ID, "snap-9")
	got = jm.GetJob(job.ID)
	assert.Equal(t, JobStatusCompleted, got.Status)
	assert.Equal(t, "snap-9", got.SnapshotID)

	jm.UpdateProgress("fake-id", 1, 2)
}

func TestUpdateProgress_OutOfOrderReportsNeverLowerCount(t *testing.T) {
	jm := NewJobManager()
	job := createTestJob(t, jm, "fleet")

	jm.UpdateProgress(job.ID, 2, 2)
	jm.UpdateProgress(job.ID, 1, 2)

	got := jm.GetJob(job.ID)
	assert.Equal(t, 2, got.AppliancesDone)
	assert.Equal(t, 2, got.AppliancesTotal)
}

func TestCancelJob(t *testing.T) {
	t.Run("running job cancelled", func(t *testing.T) {
		jm := NewJobManager()
		job := createTestJob(t, jm, "fleet")
		jm.UpdateStatus(job.ID, JobStatusRunning, "")

		assert.True(t, jm.CancelJob(job.ID))

		got := jm.GetJob(job.ID)
		assert.Equal(t, JobStatusCancelled, got.Status)
		assert.False(t, got.CompletedAt.IsZero())
		assert.Error(t, jm.GetContext(job.ID).Err())
	})

	t.Run("completed job not cancellable", func(t *testing.T) {
		jm := NewJobManager()
		job := createTestJob(t, jm, "fleet")
		jm.Complete(job.ID, "s")
		assert.False(t, jm.CancelJob(job.ID))
	})

	t.Run("nonexistent returns false", func(t *testing.T) {
		assert.False(t, NewJobManager().CancelJob("nope"))
	})
}

func TestCancelAll(t *testing.T) {
	jm := NewJobManager()
	job1 := createTestJob(t, jm, "a")
	job2 := createTestJob(t, jm, "b")
	job3 := createTestJob(t, jm, "c")
	jm.Complete(job3.ID, "s")

	jm.CancelAll()

	assert.Equal(t, JobStatusCancelled, jm.GetJob(job1.ID).Status)
	assert.Equal(t, JobStatusCancelled, jm.GetJob(job2.ID).Status)
	assert.Equal(t, JobStatusCompleted, jm.GetJob(job3.ID).Status)

	newJob := createTestJob(t, jm, "a")
	assert.NotEqual(t, job1.ID, newJob.ID)
}

func TestListJobs(t *testing.T) {
	jm := NewJobManager()
	job1 := createTestJob(t, jm, "a")
	job2 := createTestJob(t, jm, "b")

	jobs := jm.ListJobs()
	require.Len(t, jobs, 2)
	ids := map[string]bool{jobs[0].ID: true, jobs[1].ID: true}
	assert.True(t, ids[job1.ID])
	assert.True(t, ids[job2.ID])
}

func TestGetContext(t *testing.T) {
	jm := NewJobManager()
	job := createTestJob(t, jm, "fleet")
	assert.NoError(t, jm.GetContext(job.ID).Err())
	assert.Equal(t, context.Background(), jm.GetContext("nope"))
}
