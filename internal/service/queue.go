package service

import (
	"fmt"
	"os"
	"path/filepath"

	"discpress/internal/domain"
	"discpress/internal/infrastructure/logger"
	"discpress/internal/process"
)

// QueueService is the use-case surface the control API talks to. It
// coordinates the store, the process registry, the scheduler and the
// runner; it never touches OS processes directly.
type QueueService struct {
	store     *Store
	registry  *process.Registry
	scheduler *Scheduler
}

func NewQueueService(store *Store, registry *process.Registry, scheduler *Scheduler) *QueueService {
	return &QueueService{
		store:     store,
		registry:  registry,
		scheduler: scheduler,
	}
}

// Enqueue accepts a source file into a workflow queue as a pending job.
// Settings are captured here, on the call, and travel with the job.
func (q *QueueService) Enqueue(wf domain.Workflow, sourcePath, name string, st domain.Settings) (domain.Job, error) {
	fi, err := os.Stat(sourcePath)
	if err != nil {
		return domain.Job{}, fmt.Errorf("source file: %w", err)
	}
	if fi.IsDir() {
		return domain.Job{}, fmt.Errorf("source %s is a directory", sourcePath)
	}

	if name == "" {
		name = filepath.Base(sourcePath)
	}

	job := domain.NewJob(wf, sourcePath, name, fi.Size(), st)
	job.DiscGroup, job.DiscNumber = domain.ParseDiscTag(name)

	q.store.Add(wf, job)
	logger.Info.Printf("queued job %s (%s) for %s", job.ID, job.Name, wf)
	return job.Clone(), nil
}

// Jobs returns the workflow queue.
func (q *QueueService) Jobs(wf domain.Workflow) []domain.Job {
	return q.store.Jobs(wf)
}

// Get returns one job.
func (q *QueueService) Get(wf domain.Workflow, id string) (domain.Job, bool) {
	return q.store.Get(wf, id)
}

// Cancel aborts one job. A live process is terminated through the
// registry and finalized by the runner; a job that has no process yet
// is failed as cancelled directly. Terminal jobs are left untouched.
func (q *QueueService) Cancel(wf domain.Workflow, id string) bool {
	if q.registry.Cancel(wf, id) {
		return true
	}

	job, ok := q.store.Get(wf, id)
	if !ok || job.IsTerminal() {
		return false
	}
	if job.Status == domain.JobStatusPending {
		q.store.Update(wf, id, func(j *domain.Job) {
			j.Status = domain.JobStatusFailed
			j.ErrorMessage = domain.ErrCancelled
		})
	}
	// A processing job without a live registry entry is mid-spawn; the
	// cancel mark set above rejects its registration and the runner
	// finalizes it as cancelled.
	return true
}

// Remove cancels any live process for the job and deletes it from the
// queue.
func (q *QueueService) Remove(wf domain.Workflow, id string) bool {
	q.registry.Cancel(wf, id)
	return q.store.Remove(wf, id)
}

// Retry re-queues a failed job as pending. Completed and in-flight jobs
// are not retried; retry is always a new, explicit start.
func (q *QueueService) Retry(wf domain.Workflow, id string) bool {
	_, ok := q.store.Update(wf, id, func(j *domain.Job) {
		if j.Status != domain.JobStatusFailed {
			return
		}
		j.Status = domain.JobStatusPending
		j.ErrorMessage = ""
		j.Progress = 0
		j.ETASeconds = nil
	})
	return ok
}

// Clear drops all non-processing jobs from the queue.
func (q *QueueService) Clear(wf domain.Workflow) int {
	return q.store.Clear(wf)
}

// StartProcessing is the explicit user start/resume action: it releases
// the workflow cancellation latch and enables processing.
func (q *QueueService) StartProcessing(wf domain.Workflow) {
	q.registry.ClearWorkflowCancellation(wf)
	q.store.SetProcessing(wf, true)
}

// StopProcessing pauses the workflow: running jobs finish, no new jobs
// start.
func (q *QueueService) StopProcessing(wf domain.Workflow) {
	q.store.SetProcessing(wf, false)
}

// CancelAll stops the workflow and tears down every live process in it.
// The latch stays set until the next explicit StartProcessing.
func (q *QueueService) CancelAll(wf domain.Workflow) {
	q.store.SetProcessing(wf, false)
	q.registry.CancelAll(wf)

	// Pending jobs never reach the registry; fail them here.
	for _, job := range q.store.Jobs(wf) {
		if job.Status == domain.JobStatusPending {
			q.store.Update(wf, job.ID, func(j *domain.Job) {
				if j.Status != domain.JobStatusPending {
					return
				}
				j.Status = domain.JobStatusFailed
				j.ErrorMessage = domain.ErrCancelled
			})
		}
	}
}

// Processing reports whether the workflow is draining its queue.
func (q *QueueService) Processing(wf domain.Workflow) bool {
	return q.store.Processing(wf)
}

// Concurrency returns the workflow's current limit.
func (q *QueueService) Concurrency(wf domain.Workflow) int {
	return q.scheduler.Limit(wf)
}

// SetConcurrency adjusts the workflow's limit, clamped to the allowed
// range, and returns the applied value.
func (q *QueueService) SetConcurrency(wf domain.Workflow, n int) int {
	return q.scheduler.SetLimit(wf, n)
}
