package sqlite

import (
	"context"
	"fmt"

	"discpress/internal/domain"
	"discpress/internal/port"
)

// History records terminal job outcomes for the GET /api/history
// endpoint. The live queues stay in memory; only finished work is
// persisted.
type History struct {
	store *Store
}

func NewHistory(store *Store) *History {
	return &History{store: store}
}

func (h *History) Record(rec port.HistoryRecord) error {
	ctx := context.Background()
	_, err := h.store.db.ExecContext(ctx, `
		INSERT INTO history (
			workflow, job_id, name, source_path, status, error_message,
			original_size, compressed_size, duration_secs,
			game_id, internal_name, region
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(rec.Workflow), rec.JobID, rec.Name, rec.SourcePath,
		string(rec.Status), rec.ErrorMessage,
		rec.OriginalSize, rec.CompressedSize, rec.DurationSecs,
		rec.GameID, rec.InternalName, rec.Region,
	)
	if err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

func (h *History) List(wf domain.Workflow, limit int) ([]port.HistoryRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	ctx := context.Background()
	rows, err := h.store.db.QueryContext(ctx, `
		SELECT id, workflow, job_id, name, source_path, status, error_message,
		       original_size, compressed_size, duration_secs,
		       game_id, internal_name, region, created_at
		FROM history
		WHERE workflow = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`,
		string(wf), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []port.HistoryRecord
	for rows.Next() {
		var rec port.HistoryRecord
		var workflow, status string
		if err := rows.Scan(
			&rec.ID, &workflow, &rec.JobID, &rec.Name, &rec.SourcePath,
			&status, &rec.ErrorMessage,
			&rec.OriginalSize, &rec.CompressedSize, &rec.DurationSecs,
			&rec.GameID, &rec.InternalName, &rec.Region, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rec.Workflow = domain.Workflow(workflow)
		rec.Status = domain.JobStatus(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ port.History = (*History)(nil)
