package port

import (
	"time"

	"discpress/internal/domain"
)

// HistoryRecord is the durable trace of one terminal job.
type HistoryRecord struct {
	ID             int64
	Workflow       domain.Workflow
	JobID          string
	Name           string
	SourcePath     string
	Status         domain.JobStatus
	ErrorMessage   string
	OriginalSize   int64
	CompressedSize int64
	DurationSecs   float64
	GameID         string
	InternalName   string
	Region         string
	CreatedAt      time.Time
}

// History persists terminal job outcomes.
type History interface {
	Record(rec HistoryRecord) error
	List(wf domain.Workflow, limit int) ([]HistoryRecord, error)
}
