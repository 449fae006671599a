package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("job not found")
	ErrUnknownTool  = errors.New("unknown tool")
	ErrNoOutputPath = errors.New("cannot determine output path")
	ErrBadWorkflow  = errors.New("unknown workflow")
)

// Workflow is one of the four isolated processing modes. Each workflow
// has its own queue, processing flag and concurrency budget; workflows
// never share jobs or process slots.
type Workflow string

const (
	WorkflowCompress Workflow = "compress"
	WorkflowExtract  Workflow = "extract"
	WorkflowVerify   Workflow = "verify"
	WorkflowInfo     Workflow = "info"
)

// Workflows lists every workflow in a stable order.
func Workflows() []Workflow {
	return []Workflow{WorkflowCompress, WorkflowExtract, WorkflowVerify, WorkflowInfo}
}

// ParseWorkflow validates a workflow name from an external caller.
func ParseWorkflow(s string) (Workflow, error) {
	switch Workflow(s) {
	case WorkflowCompress, WorkflowExtract, WorkflowVerify, WorkflowInfo:
		return Workflow(s), nil
	}
	return "", ErrBadWorkflow
}

// Label returns the human label used in notifications.
func (w Workflow) Label() string {
	switch w {
	case WorkflowCompress:
		return "Compression"
	case WorkflowExtract:
		return "Extraction"
	case WorkflowVerify:
		return "Verification"
	case WorkflowInfo:
		return "Info"
	default:
		return string(w)
	}
}

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ErrCancelled is the error message recorded when a job fails because
// the user cancelled it, as opposed to a real tool failure.
const ErrCancelled = "Cancelled"

// GameMeta holds metadata extracted by the info workflow.
type GameMeta struct {
	GameID       string `json:"game_id,omitempty"`
	InternalName string `json:"internal_name,omitempty"`
	Region       string `json:"region,omitempty"`
}

// Merge copies the fields set in other onto m.
func (m *GameMeta) Merge(other GameMeta) {
	if other.GameID != "" {
		m.GameID = other.GameID
	}
	if other.InternalName != "" {
		m.InternalName = other.InternalName
	}
	if other.Region != "" {
		m.Region = other.Region
	}
}

// Job is one file's passage through a workflow.
type Job struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	SourcePath     string     `json:"source_path"`
	Platform       Platform   `json:"platform"`
	Tool           Tool       `json:"tool"`
	Strategy       Strategy   `json:"strategy"`
	Status         JobStatus  `json:"status"`
	Progress       float64    `json:"progress"`
	OriginalSize   int64      `json:"original_size"`
	CompressedSize int64      `json:"compressed_size,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	ETASeconds     *float64   `json:"eta_seconds,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	Log            []string   `json:"log"`
	DiscGroup      string     `json:"disc_group,omitempty"`
	DiscNumber     int        `json:"disc_number,omitempty"`
	Meta           *GameMeta  `json:"meta,omitempty"`
	Settings       Settings   `json:"settings"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewJob creates a pending job for a source file accepted into a
// workflow queue. Tool and strategy are resolved from the detected (or
// overridden) platform and the supplied settings.
func NewJob(wf Workflow, sourcePath, name string, size int64, st Settings) *Job {
	platform := st.PlatformOverride
	if platform == "" {
		platform = DetectPlatform(sourcePath)
	}

	return &Job{
		ID:           uuid.NewString(),
		Name:         name,
		SourcePath:   sourcePath,
		Platform:     platform,
		Tool:         platform.Tool(),
		Strategy:     SelectStrategy(wf, platform, st),
		Status:       JobStatusPending,
		OriginalSize: size,
		Settings:     st,
		CreatedAt:    time.Now(),
	}
}

// IsTerminal reports whether the job reached a final state.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Cancelled reports whether the job failed because of user cancellation.
func (j *Job) Cancelled() bool {
	return j.Status == JobStatusFailed && j.ErrorMessage == ErrCancelled
}

// Clone returns a deep copy safe to hand to subscribers.
func (j *Job) Clone() Job {
	c := *j
	c.Log = append([]string(nil), j.Log...)
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.ETASeconds != nil {
		e := *j.ETASeconds
		c.ETASeconds = &e
	}
	if j.Meta != nil {
		m := *j.Meta
		c.Meta = &m
	}
	return c
}
