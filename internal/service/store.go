package service

import (
	"sync"

	"discpress/internal/domain"
)

// Store owns the job records. It keeps an ordered queue and a
// processing-enabled flag per workflow; every mutation notifies bus
// subscribers and wakes the scheduler watchers for that workflow.
// Updates replace the affected fields outright (last-write-wins): a job
// is only ever mutated by the single runner that holds its spawn lock,
// so there is nothing to merge.
type Store struct {
	mu         sync.RWMutex
	queues     map[domain.Workflow][]*domain.Job
	processing map[domain.Workflow]bool
	watchers   map[domain.Workflow][]chan struct{}
	bus        EventPublisher
}

func NewStore(bus EventPublisher) *Store {
	return &Store{
		queues:     make(map[domain.Workflow][]*domain.Job),
		processing: make(map[domain.Workflow]bool),
		watchers:   make(map[domain.Workflow][]chan struct{}),
		bus:        bus,
	}
}

// Add appends a job to the workflow queue.
func (s *Store) Add(wf domain.Workflow, job *domain.Job) {
	s.mu.Lock()
	s.queues[wf] = append(s.queues[wf], job)
	snap := job.Clone()
	s.kickLocked(wf)
	s.mu.Unlock()

	s.publish(wf, Event{Type: EventJob, JobID: snap.ID, Job: &snap})
}

// Get returns a snapshot copy of one job.
func (s *Store) Get(wf domain.Workflow, id string) (domain.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, j := range s.queues[wf] {
		if j.ID == id {
			return j.Clone(), true
		}
	}
	return domain.Job{}, false
}

// Jobs returns snapshot copies of the workflow queue in insertion
// order.
func (s *Store) Jobs(wf domain.Workflow) []domain.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Job, 0, len(s.queues[wf]))
	for _, j := range s.queues[wf] {
		out = append(out, j.Clone())
	}
	return out
}

// Update applies fn to the job under the store lock and returns the
// resulting snapshot.
func (s *Store) Update(wf domain.Workflow, id string, fn func(*domain.Job)) (domain.Job, bool) {
	s.mu.Lock()
	var snap domain.Job
	found := false
	for _, j := range s.queues[wf] {
		if j.ID == id {
			fn(j)
			snap = j.Clone()
			found = true
			break
		}
	}
	if found {
		s.kickLocked(wf)
	}
	s.mu.Unlock()

	if found {
		s.publish(wf, Event{Type: EventJob, JobID: id, Job: &snap})
	}
	return snap, found
}

// AppendLog adds one output line to the job's append-only log. Log
// traffic does not wake the scheduler.
func (s *Store) AppendLog(wf domain.Workflow, id, line string) {
	s.mu.Lock()
	found := false
	for _, j := range s.queues[wf] {
		if j.ID == id {
			j.Log = append(j.Log, line)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.publish(wf, Event{Type: EventLog, JobID: id, Line: line})
	}
}

// Remove deletes a job from the queue.
func (s *Store) Remove(wf domain.Workflow, id string) bool {
	s.mu.Lock()
	queue := s.queues[wf]
	found := false
	for i, j := range queue {
		if j.ID == id {
			s.queues[wf] = append(queue[:i], queue[i+1:]...)
			found = true
			break
		}
	}
	if found {
		s.kickLocked(wf)
	}
	s.mu.Unlock()

	if found {
		s.publish(wf, Event{Type: EventQueue, JobID: id, Message: "removed"})
	}
	return found
}

// Clear drops every job that is not currently processing.
func (s *Store) Clear(wf domain.Workflow) int {
	s.mu.Lock()
	kept := s.queues[wf][:0]
	removed := 0
	for _, j := range s.queues[wf] {
		if j.Status == domain.JobStatusProcessing {
			kept = append(kept, j)
		} else {
			removed++
		}
	}
	s.queues[wf] = kept
	if removed > 0 {
		s.kickLocked(wf)
	}
	s.mu.Unlock()

	if removed > 0 {
		s.publish(wf, Event{Type: EventQueue, Message: "cleared"})
	}
	return removed
}

// SetProcessing flips the processing-enabled flag for a workflow.
func (s *Store) SetProcessing(wf domain.Workflow, enabled bool) {
	s.mu.Lock()
	s.processing[wf] = enabled
	s.kickLocked(wf)
	s.mu.Unlock()

	s.publish(wf, Event{Type: EventQueue, Processing: &enabled})
}

// Processing reports the processing-enabled flag.
func (s *Store) Processing(wf domain.Workflow) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processing[wf]
}

// Watch registers a coalescing change-notification channel for the
// workflow. The returned func unregisters it.
func (s *Store) Watch(wf domain.Workflow) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.watchers[wf] = append(s.watchers[wf], ch)
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		ws := s.watchers[wf]
		for i, w := range ws {
			if w == ch {
				s.watchers[wf] = append(ws[:i], ws[i+1:]...)
				break
			}
		}
	}
}

// Kick wakes the workflow's watchers without a state change. Used when
// scheduler inputs outside the store (concurrency limit, cancellation
// latch) change.
func (s *Store) Kick(wf domain.Workflow) {
	s.mu.Lock()
	s.kickLocked(wf)
	s.mu.Unlock()
}

func (s *Store) kickLocked(wf domain.Workflow) {
	for _, ch := range s.watchers[wf] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) publish(wf domain.Workflow, e Event) {
	if s.bus != nil {
		s.bus.Publish(wf, e)
	}
}
