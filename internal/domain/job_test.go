package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJob(t *testing.T) {
	t.Run("resolves tool and strategy from detection", func(t *testing.T) {
		job := NewJob(WorkflowCompress, "/roms/Game.cue", "Game", 700<<20, Settings{})

		require.NotEmpty(t, job.ID)
		assert.Equal(t, PlatformCD, job.Platform)
		assert.Equal(t, ToolChdman, job.Tool)
		assert.Equal(t, StrategyCreateCD, job.Strategy)
		assert.Equal(t, JobStatusPending, job.Status)
		assert.Equal(t, int64(700<<20), job.OriginalSize)
		assert.Zero(t, job.Progress)
	})

	t.Run("platform override wins over detection", func(t *testing.T) {
		job := NewJob(WorkflowCompress, "/roms/Game.iso", "Game", 1, Settings{
			PlatformOverride: PlatformGameCube,
		})

		assert.Equal(t, PlatformGameCube, job.Platform)
		assert.Equal(t, ToolDolphinTool, job.Tool)
		assert.Equal(t, StrategyConvert, job.Strategy)
	})

	t.Run("distinct jobs get distinct ids", func(t *testing.T) {
		a := NewJob(WorkflowVerify, "/roms/a.chd", "a", 1, Settings{})
		b := NewJob(WorkflowVerify, "/roms/a.chd", "a", 1, Settings{})
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestJobTerminalStates(t *testing.T) {
	job := NewJob(WorkflowVerify, "/roms/a.chd", "a", 1, Settings{})
	assert.False(t, job.IsTerminal())

	job.Status = JobStatusProcessing
	assert.False(t, job.IsTerminal())

	job.Status = JobStatusCompleted
	assert.True(t, job.IsTerminal())
	assert.False(t, job.Cancelled())

	job.Status = JobStatusFailed
	job.ErrorMessage = "exited with code 1"
	assert.True(t, job.IsTerminal())
	assert.False(t, job.Cancelled())

	job.ErrorMessage = ErrCancelled
	assert.True(t, job.Cancelled())
}

func TestJobClone(t *testing.T) {
	started := time.Now()
	eta := 42.0
	job := NewJob(WorkflowInfo, "/roms/a.rvz", "a", 1, Settings{})
	job.StartedAt = &started
	job.ETASeconds = &eta
	job.Log = []string{"line one"}
	job.Meta = &GameMeta{GameID: "GM8E01"}

	c := job.Clone()
	c.Log = append(c.Log, "line two")
	*c.StartedAt = c.StartedAt.Add(time.Hour)
	*c.ETASeconds = 0
	c.Meta.GameID = "other"

	assert.Len(t, job.Log, 1)
	assert.Equal(t, started, *job.StartedAt)
	assert.Equal(t, 42.0, *job.ETASeconds)
	assert.Equal(t, "GM8E01", job.Meta.GameID)
}

func TestParseWorkflow(t *testing.T) {
	for _, wf := range Workflows() {
		got, err := ParseWorkflow(string(wf))
		require.NoError(t, err)
		assert.Equal(t, wf, got)
	}

	_, err := ParseWorkflow("transcode")
	assert.ErrorIs(t, err, ErrBadWorkflow)
}
