package service

import (
	"fmt"
	"os"
	"sync"
	"time"

	"discpress/internal/adapter/tool"
	"discpress/internal/domain"
	"discpress/internal/infrastructure/logger"
	"discpress/internal/port"
	"discpress/internal/process"
)

// simThroughputBytes is the assumed conversion throughput used to
// estimate progress for tools that print none.
const simThroughputBytes = 40 << 20

const simInterval = 500 * time.Millisecond

// maxLiveProgress caps progress stored while the process is still
// running; only finalization moves a job to 100.
const maxLiveProgress = 99.9

// Runner executes a single job: it builds the external command, spawns
// it through the registry, wires output callbacks into the store, and
// finalizes the job status on exit. A check-and-insert lock keyed by
// (workflow, jobID) makes Start idempotent against a late scheduler
// re-evaluation racing a just-started job.
type Runner struct {
	store    *Store
	registry *process.Registry
	spawner  port.Spawner
	notifier port.Notifier
	history  port.History
	paths    tool.Paths

	mu     sync.Mutex
	active map[process.Key]struct{}
}

func NewRunner(
	store *Store,
	registry *process.Registry,
	spawner port.Spawner,
	notifier port.Notifier,
	history port.History,
	paths tool.Paths,
) *Runner {
	return &Runner{
		store:    store,
		registry: registry,
		spawner:  spawner,
		notifier: notifier,
		history:  history,
		paths:    paths,
		active:   make(map[process.Key]struct{}),
	}
}

// Start begins execution of a pending job. Duplicate invocations while
// the job's lock is held are silent no-ops.
func (r *Runner) Start(wf domain.Workflow, jobID string) error {
	key := process.Key{Workflow: wf, JobID: jobID}
	if !r.acquire(key) {
		return nil
	}

	if r.registry.WorkflowCancelled(wf) {
		r.release(key)
		return nil
	}

	job, ok := r.store.Get(wf, jobID)
	if !ok {
		r.release(key)
		return domain.ErrNotFound
	}

	plan, err := tool.Build(wf, &job, r.paths)
	if err != nil {
		r.store.Update(wf, jobID, func(j *domain.Job) {
			j.Status = domain.JobStatusFailed
			j.ErrorMessage = err.Error()
		})
		r.release(key)
		return err
	}

	// A stale cancel mark from an earlier run must not kill this one.
	r.registry.ClearCancelled(wf, jobID)

	started := time.Now()
	r.store.Update(wf, jobID, func(j *domain.Job) {
		j.Status = domain.JobStatusProcessing
		j.Progress = 0
		j.StartedAt = &started
		j.ETASeconds = nil
		j.ErrorMessage = ""
		j.CompressedSize = 0
	})

	var sim *progressSim
	if plan.SyntheticProgress {
		sim = newProgressSim(r.store, wf, jobID, job.OriginalSize, started)
	}

	exited := make(chan port.ExitStatus, 1)
	handle, err := r.spawner.Spawn(
		port.ProcessSpec{Path: plan.ToolPath, Args: plan.Args},
		port.ProcessCallbacks{
			OnLine: func(line string) { r.handleLine(wf, jobID, line) },
			OnExit: func(st port.ExitStatus) { exited <- st },
		},
	)
	if err != nil {
		spawnErr := fmt.Errorf("failed to start %s: %w", plan.ToolPath, err)
		r.store.Update(wf, jobID, func(j *domain.Job) {
			j.Status = domain.JobStatusFailed
			j.ErrorMessage = spawnErr.Error()
		})
		r.release(key)
		return spawnErr
	}

	if sim != nil {
		sim.run()
	}

	if !r.registry.Register(wf, jobID, handle) {
		// Cancelled while spawning; the registry is tearing the
		// process down and finalization records the job as cancelled.
		logger.Info.Printf("job %s (%s) cancelled during spawn", jobID, wf)
	}

	// Finalization may begin only after the registration decision: an
	// exit during spawn would otherwise race Unregister ahead of
	// Register and strand a dead handle in the registry.
	go func() {
		r.finalize(wf, jobID, plan, started, sim, <-exited)
	}()
	return nil
}

func (r *Runner) handleLine(wf domain.Workflow, jobID, line string) {
	line = logger.SanitizeForLog(line)
	r.store.AppendLog(wf, jobID, line)

	if pct, ok := domain.ParseProgress(line); ok {
		// Tools print their own "100% complete" line while the process
		// is still running.
		if pct > maxLiveProgress {
			pct = maxLiveProgress
		}
		now := time.Now()
		r.store.Update(wf, jobID, func(j *domain.Job) {
			if j.Status != domain.JobStatusProcessing {
				return
			}
			if pct > j.Progress {
				j.Progress = pct
			}
			j.ETASeconds = domain.ETA(j.StartedAt, j.Progress, now)
		})
	}

	if wf == domain.WorkflowInfo {
		var meta domain.GameMeta
		if domain.ParseInfoLine(line, &meta) {
			r.store.Update(wf, jobID, func(j *domain.Job) {
				if j.Meta == nil {
					j.Meta = &domain.GameMeta{}
				}
				j.Meta.Merge(meta)
			})
		}
	}
}

func (r *Runner) finalize(
	wf domain.Workflow,
	jobID string,
	plan tool.Plan,
	started time.Time,
	sim *progressSim,
	st port.ExitStatus,
) {
	if sim != nil {
		sim.stop()
	}
	r.registry.Unregister(wf, jobID)

	cancelled := r.registry.WasCancelled(wf, jobID)
	r.registry.ClearCancelled(wf, jobID)

	var final domain.Job
	var found bool
	switch {
	case st.Err == nil && st.Code == 0:
		var size int64
		if plan.OutputPath != "" {
			if fi, err := os.Stat(plan.OutputPath); err == nil {
				size = fi.Size()
			}
		}
		final, found = r.store.Update(wf, jobID, func(j *domain.Job) {
			j.Status = domain.JobStatusCompleted
			j.Progress = 100
			zero := 0.0
			j.ETASeconds = &zero
			j.ErrorMessage = ""
			if size > 0 {
				j.CompressedSize = size
			}
		})
		if found && r.notifier != nil {
			r.notifier.JobSucceeded(wf, final)
		}

	case cancelled || st.Signalled:
		final, found = r.store.Update(wf, jobID, func(j *domain.Job) {
			j.Status = domain.JobStatusFailed
			j.ErrorMessage = domain.ErrCancelled
			j.ETASeconds = nil
		})
		// Cancellation is user-initiated, never a failure notification.

	default:
		msg := fmt.Sprintf("exited with code %d", st.Code)
		if st.Code < 0 && st.Err != nil {
			msg = st.Err.Error()
		}
		final, found = r.store.Update(wf, jobID, func(j *domain.Job) {
			j.Status = domain.JobStatusFailed
			j.ErrorMessage = msg
			j.ETASeconds = nil
		})
		if found && r.notifier != nil {
			r.notifier.JobFailed(wf, final)
		}
	}

	if found {
		r.record(wf, final, started)
	}
	r.release(process.Key{Workflow: wf, JobID: jobID})
}

func (r *Runner) record(wf domain.Workflow, job domain.Job, started time.Time) {
	if r.history == nil {
		return
	}
	rec := port.HistoryRecord{
		Workflow:       wf,
		JobID:          job.ID,
		Name:           job.Name,
		SourcePath:     job.SourcePath,
		Status:         job.Status,
		ErrorMessage:   job.ErrorMessage,
		OriginalSize:   job.OriginalSize,
		CompressedSize: job.CompressedSize,
		DurationSecs:   time.Since(started).Seconds(),
	}
	if job.Meta != nil {
		rec.GameID = job.Meta.GameID
		rec.InternalName = job.Meta.InternalName
		rec.Region = job.Meta.Region
	}
	if err := r.history.Record(rec); err != nil {
		logger.Error.Printf("record history for job %s: %v", job.ID, err)
	}
}

func (r *Runner) acquire(key process.Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, held := r.active[key]; held {
		return false
	}
	r.active[key] = struct{}{}
	return true
}

func (r *Runner) release(key process.Key) {
	r.mu.Lock()
	delete(r.active, key)
	r.mu.Unlock()
}

// progressSim advances progress toward (never reaching) 100% for tools
// without machine-readable progress, based on an assumed throughput.
// It stops the instant real completion is observed.
type progressSim struct {
	store    *Store
	wf       domain.Workflow
	jobID    string
	started  time.Time
	estimate time.Duration
	done     chan struct{}
	once     sync.Once
}

func newProgressSim(store *Store, wf domain.Workflow, jobID string, size int64, started time.Time) *progressSim {
	est := time.Duration(float64(size) / float64(simThroughputBytes) * float64(time.Second))
	if est < time.Second {
		est = time.Second
	}
	return &progressSim{
		store:    store,
		wf:       wf,
		jobID:    jobID,
		started:  started,
		estimate: est,
		done:     make(chan struct{}),
	}
}

func (p *progressSim) run() {
	go func() {
		ticker := time.NewTicker(simInterval)
		defer ticker.Stop()
		for {
			select {
			case <-p.done:
				return
			case <-ticker.C:
				pct := time.Since(p.started).Seconds() / p.estimate.Seconds() * 100
				if pct > 99 {
					pct = 99
				}
				now := time.Now()
				p.store.Update(p.wf, p.jobID, func(j *domain.Job) {
					if j.Status != domain.JobStatusProcessing {
						return
					}
					if pct > j.Progress {
						j.Progress = pct
					}
					j.ETASeconds = domain.ETA(j.StartedAt, j.Progress, now)
				})
			}
		}
	}()
}

func (p *progressSim) stop() {
	p.once.Do(func() { close(p.done) })
}
