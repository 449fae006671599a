package process

import (
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"discpress/internal/domain"
	"discpress/internal/infrastructure/logger"
	"discpress/internal/port"
)

// Key identifies one tracked process.
type Key struct {
	Workflow domain.Workflow
	JobID    string
}

const defaultPhaseTimeout = 2 * time.Second

// Registry is the process-wide table of live external processes. It
// owns spawned handles between registration and termination, resolves
// start/cancel races via per-job cancellation flags and per-workflow
// cancellation latches, and performs graceful-then-forced teardown.
//
// Exactly one Registry exists per application; it is created at startup
// and passed by reference to every component that needs it.
type Registry struct {
	mu        sync.Mutex
	procs     map[Key]port.ProcessHandle
	cancelled map[Key]bool
	latched   map[domain.Workflow]bool

	// Timeout for each termination phase.
	phaseTimeout time.Duration
}

func NewRegistry() *Registry {
	return &Registry{
		procs:        make(map[Key]port.ProcessHandle),
		cancelled:    make(map[Key]bool),
		latched:      make(map[domain.Workflow]bool),
		phaseTimeout: defaultPhaseTimeout,
	}
}

// Register stores the handle for a just-spawned process, unless the job
// was already marked cancelled or the workflow is cancellation-latched.
// In that case the process is terminated asynchronously, the key keeps
// its cancelled mark so the runner finalizes the job as cancelled, and
// Register returns false. This closes the spawn/cancel race: a cancel
// that lands before the process finished spawning still kills it.
func (r *Registry) Register(wf domain.Workflow, jobID string, h port.ProcessHandle) bool {
	key := Key{wf, jobID}

	r.mu.Lock()
	if r.latched[wf] || r.cancelled[key] {
		r.cancelled[key] = true
		r.mu.Unlock()
		go r.terminate(key, h)
		return false
	}
	r.procs[key] = h
	r.mu.Unlock()
	return true
}

// Unregister removes the entry on normal process exit.
func (r *Registry) Unregister(wf domain.Workflow, jobID string) {
	r.mu.Lock()
	delete(r.procs, Key{wf, jobID})
	r.mu.Unlock()
}

// Running reports whether a live process is tracked for the job.
func (r *Registry) Running(wf domain.Workflow, jobID string) bool {
	r.mu.Lock()
	_, ok := r.procs[Key{wf, jobID}]
	r.mu.Unlock()
	return ok
}

// Cancel marks the job cancelled and, when a live process is tracked,
// removes it from the table immediately and terminates it
// asynchronously. The flag is set even without a live entry so that a
// process still mid-spawn is rejected at registration. Returns whether
// a live process was found.
func (r *Registry) Cancel(wf domain.Workflow, jobID string) bool {
	key := Key{wf, jobID}

	r.mu.Lock()
	r.cancelled[key] = true
	h, ok := r.procs[key]
	if ok {
		delete(r.procs, key)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	go r.terminate(key, h)
	return true
}

// CancelAll latches the workflow first, then cancels every live entry
// belonging to it, terminating all of them concurrently and waiting for
// the terminations to finish. Setting the latch before iterating
// guarantees that a job spawned concurrently with CancelAll cannot
// escape: its registration is rejected and the process torn down.
func (r *Registry) CancelAll(wf domain.Workflow) {
	r.mu.Lock()
	r.latched[wf] = true

	victims := make(map[Key]port.ProcessHandle)
	for key, h := range r.procs {
		if key.Workflow == wf {
			victims[key] = h
			r.cancelled[key] = true
			delete(r.procs, key)
		}
	}
	r.mu.Unlock()

	var g errgroup.Group
	for key, h := range victims {
		g.Go(func() error {
			r.terminate(key, h)
			return nil
		})
	}
	_ = g.Wait()
}

// WorkflowCancelled reports the state of the workflow cancellation
// latch.
func (r *Registry) WorkflowCancelled(wf domain.Workflow) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latched[wf]
}

// ClearWorkflowCancellation releases the latch. It is only ever called
// from an explicit user start/resume action, never implicitly.
func (r *Registry) ClearWorkflowCancellation(wf domain.Workflow) {
	r.mu.Lock()
	delete(r.latched, wf)
	r.mu.Unlock()
}

// WasCancelled reports whether the job was marked cancelled.
func (r *Registry) WasCancelled(wf domain.Workflow, jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled[Key{wf, jobID}]
}

// ClearCancelled drops the per-job cancellation flag. The runner clears
// it when starting a job and after reading it during finalization.
func (r *Registry) ClearCancelled(wf domain.Workflow, jobID string) {
	r.mu.Lock()
	delete(r.cancelled, Key{wf, jobID})
	r.mu.Unlock()
}

// Shutdown cancels every workflow and waits for all terminations.
func (r *Registry) Shutdown() {
	for _, wf := range domain.Workflows() {
		r.CancelAll(wf)
	}
}

// terminate performs the two-phase teardown: graceful kill bounded by
// the phase timeout, then a forced platform kill, again bounded. All
// errors are swallowed and only logged; termination never propagates
// failures to the caller that requested it.
func (r *Registry) terminate(key Key, h port.ProcessHandle) {
	if err := h.Terminate(); err != nil {
		logger.Debug.Printf("graceful terminate pid=%d job=%s: %v", h.PID(), key.JobID, err)
	}
	select {
	case <-h.Done():
		return
	case <-time.After(r.phaseTimeout):
	}

	if err := h.Kill(); err != nil {
		logger.Debug.Printf("force kill pid=%d job=%s: %v", h.PID(), key.JobID, err)
	}
	select {
	case <-h.Done():
	case <-time.After(r.phaseTimeout):
		logger.Warn.Printf("process pid=%d job=%s did not exit after forced kill, giving up", h.PID(), key.JobID)
	}
}
