package service

import (
	"context"
	"sync"

	"discpress/internal/domain"
	"discpress/internal/infrastructure/logger"
	"discpress/internal/process"
)

const (
	MinConcurrency = 1
	MaxConcurrency = 16
)

// JobStarter starts one job. Starting a job that is already being
// started is a silent no-op; a job that cannot begin must leave the
// pending state before Start returns.
type JobStarter interface {
	Start(wf domain.Workflow, jobID string) error
}

// Scheduler drains the per-workflow queues. One loop per workflow waits
// for store change notifications (never polling for selection) and, on
// each wake-up, starts pending jobs until the concurrency limit is
// reached, the workflow is paused, or the cancellation latch is set.
// Selection is FIFO by insertion.
type Scheduler struct {
	store    *Store
	registry *process.Registry
	starter  JobStarter

	mu     sync.Mutex
	limits map[domain.Workflow]int
}

func NewScheduler(store *Store, registry *process.Registry, starter JobStarter, defaultLimit int) *Scheduler {
	limits := make(map[domain.Workflow]int)
	for _, wf := range domain.Workflows() {
		limits[wf] = clampLimit(defaultLimit)
	}
	return &Scheduler{
		store:    store,
		registry: registry,
		starter:  starter,
		limits:   limits,
	}
}

// Run starts one evaluation loop per workflow and returns.
func (s *Scheduler) Run(ctx context.Context) {
	for _, wf := range domain.Workflows() {
		go s.loop(ctx, wf)
	}
	logger.Info.Printf("scheduler started for %d workflows", len(domain.Workflows()))
}

// Limit returns the concurrency limit for a workflow.
func (s *Scheduler) Limit(wf domain.Workflow) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits[wf]
}

// SetLimit changes the concurrency limit at runtime (clamped to 1-16)
// and re-evaluates the workflow.
func (s *Scheduler) SetLimit(wf domain.Workflow, n int) int {
	n = clampLimit(n)
	s.mu.Lock()
	s.limits[wf] = n
	s.mu.Unlock()

	s.store.Kick(wf)
	return n
}

func (s *Scheduler) loop(ctx context.Context, wf domain.Workflow) {
	changes, unwatch := s.store.Watch(wf)
	defer unwatch()

	s.evaluate(wf)
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			s.evaluate(wf)
		}
	}
}

// evaluate starts pending jobs one at a time, re-counting the
// processing set after each start, so the cap holds no matter how many
// wake-ups coalesced.
func (s *Scheduler) evaluate(wf domain.Workflow) {
	for {
		if !s.store.Processing(wf) || s.registry.WorkflowCancelled(wf) {
			return
		}

		jobs := s.store.Jobs(wf)
		running := 0
		var next *domain.Job
		for i := range jobs {
			switch jobs[i].Status {
			case domain.JobStatusProcessing:
				running++
			case domain.JobStatusPending:
				if next == nil {
					next = &jobs[i]
				}
			}
		}

		if running >= s.Limit(wf) || next == nil {
			return
		}

		if err := s.starter.Start(wf, next.ID); err != nil {
			logger.Error.Printf("start job %s (%s): %v", next.ID, wf, err)
		}
	}
}

func clampLimit(n int) int {
	if n < MinConcurrency {
		return MinConcurrency
	}
	if n > MaxConcurrency {
		return MaxConcurrency
	}
	return n
}
