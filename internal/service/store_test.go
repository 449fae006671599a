package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discpress/internal/domain"
)

func testJob(name string) *domain.Job {
	return domain.NewJob(domain.WorkflowCompress, "/roms/"+name+".cue", name, 1024, domain.Settings{})
}

func TestStoreAddAndGet(t *testing.T) {
	s := NewStore(nil)
	job := testJob("alpha")
	s.Add(domain.WorkflowCompress, job)

	got, ok := s.Get(domain.WorkflowCompress, job.ID)
	require.True(t, ok)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, "alpha", got.Name)

	_, ok = s.Get(domain.WorkflowExtract, job.ID)
	assert.False(t, ok, "queues are per-workflow")

	_, ok = s.Get(domain.WorkflowCompress, "nope")
	assert.False(t, ok)
}

func TestStoreJobsInsertionOrder(t *testing.T) {
	s := NewStore(nil)
	names := []string{"first", "second", "third"}
	for _, n := range names {
		s.Add(domain.WorkflowCompress, testJob(n))
	}

	jobs := s.Jobs(domain.WorkflowCompress)
	require.Len(t, jobs, 3)
	for i, n := range names {
		assert.Equal(t, n, jobs[i].Name)
	}
}

func TestStoreSnapshotsAreCopies(t *testing.T) {
	s := NewStore(nil)
	job := testJob("alpha")
	s.Add(domain.WorkflowCompress, job)

	got, _ := s.Get(domain.WorkflowCompress, job.ID)
	got.Status = domain.JobStatusFailed
	got.Log = append(got.Log, "mutated")

	again, _ := s.Get(domain.WorkflowCompress, job.ID)
	assert.Equal(t, domain.JobStatusPending, again.Status)
	assert.Empty(t, again.Log)
}

func TestStoreUpdate(t *testing.T) {
	s := NewStore(nil)
	job := testJob("alpha")
	s.Add(domain.WorkflowCompress, job)

	snap, ok := s.Update(domain.WorkflowCompress, job.ID, func(j *domain.Job) {
		j.Status = domain.JobStatusProcessing
		j.Progress = 50
	})
	require.True(t, ok)
	assert.Equal(t, domain.JobStatusProcessing, snap.Status)
	assert.Equal(t, 50.0, snap.Progress)

	_, ok = s.Update(domain.WorkflowCompress, "nope", func(j *domain.Job) {})
	assert.False(t, ok)
}

func TestStoreAppendLog(t *testing.T) {
	s := NewStore(nil)
	job := testJob("alpha")
	s.Add(domain.WorkflowCompress, job)

	s.AppendLog(domain.WorkflowCompress, job.ID, "line one")
	s.AppendLog(domain.WorkflowCompress, job.ID, "line two")

	got, _ := s.Get(domain.WorkflowCompress, job.ID)
	assert.Equal(t, []string{"line one", "line two"}, got.Log)
}

func TestStoreRemove(t *testing.T) {
	s := NewStore(nil)
	a, b := testJob("a"), testJob("b")
	s.Add(domain.WorkflowCompress, a)
	s.Add(domain.WorkflowCompress, b)

	assert.True(t, s.Remove(domain.WorkflowCompress, a.ID))
	assert.False(t, s.Remove(domain.WorkflowCompress, a.ID))

	jobs := s.Jobs(domain.WorkflowCompress)
	require.Len(t, jobs, 1)
	assert.Equal(t, b.ID, jobs[0].ID)
}

func TestStoreClearKeepsProcessingJobs(t *testing.T) {
	s := NewStore(nil)
	pending := testJob("pending")
	running := testJob("running")
	done := testJob("done")
	s.Add(domain.WorkflowCompress, pending)
	s.Add(domain.WorkflowCompress, running)
	s.Add(domain.WorkflowCompress, done)

	s.Update(domain.WorkflowCompress, running.ID, func(j *domain.Job) {
		j.Status = domain.JobStatusProcessing
	})
	s.Update(domain.WorkflowCompress, done.ID, func(j *domain.Job) {
		j.Status = domain.JobStatusCompleted
	})

	assert.Equal(t, 2, s.Clear(domain.WorkflowCompress))

	jobs := s.Jobs(domain.WorkflowCompress)
	require.Len(t, jobs, 1)
	assert.Equal(t, running.ID, jobs[0].ID)
}

func TestStoreProcessingFlag(t *testing.T) {
	s := NewStore(nil)
	assert.False(t, s.Processing(domain.WorkflowCompress))

	s.SetProcessing(domain.WorkflowCompress, true)
	assert.True(t, s.Processing(domain.WorkflowCompress))
	assert.False(t, s.Processing(domain.WorkflowExtract), "flags are per-workflow")

	s.SetProcessing(domain.WorkflowCompress, false)
	assert.False(t, s.Processing(domain.WorkflowCompress))
}

func TestStoreWatchCoalesces(t *testing.T) {
	s := NewStore(nil)
	ch, unwatch := s.Watch(domain.WorkflowCompress)
	defer unwatch()

	// A burst of mutations collapses into at most one pending wake-up.
	for i := 0; i < 10; i++ {
		s.Add(domain.WorkflowCompress, testJob("j"))
	}

	select {
	case <-ch:
	default:
		t.Fatal("expected a pending wake-up")
	}
	select {
	case <-ch:
		t.Fatal("expected the burst to coalesce into one wake-up")
	default:
	}
}

func TestStoreWatchIgnoresOtherWorkflows(t *testing.T) {
	s := NewStore(nil)
	ch, unwatch := s.Watch(domain.WorkflowExtract)
	defer unwatch()

	s.Add(domain.WorkflowCompress, testJob("j"))

	select {
	case <-ch:
		t.Fatal("compress mutations must not wake extract watchers")
	default:
	}
}

func TestStoreUnwatchStopsNotifications(t *testing.T) {
	s := NewStore(nil)
	ch, unwatch := s.Watch(domain.WorkflowCompress)
	unwatch()

	s.Kick(domain.WorkflowCompress)

	select {
	case <-ch:
		t.Fatal("unregistered watcher must not be kicked")
	default:
	}
}

func TestStorePublishesEvents(t *testing.T) {
	bus := NewEventBus()
	s := NewStore(bus)
	sub := bus.Subscribe(domain.WorkflowCompress)
	defer bus.Unsubscribe(domain.WorkflowCompress, sub)

	job := testJob("alpha")
	s.Add(domain.WorkflowCompress, job)

	e := <-sub
	assert.Equal(t, EventJob, e.Type)
	assert.Equal(t, domain.WorkflowCompress, e.Workflow)
	assert.Equal(t, job.ID, e.JobID)
	require.NotNil(t, e.Job)
	assert.Equal(t, "alpha", e.Job.Name)

	s.AppendLog(domain.WorkflowCompress, job.ID, "hello")
	e = <-sub
	assert.Equal(t, EventLog, e.Type)
	assert.Equal(t, "hello", e.Line)

	s.Remove(domain.WorkflowCompress, job.ID)
	e = <-sub
	assert.Equal(t, EventQueue, e.Type)
}
