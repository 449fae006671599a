// Package tool builds command lines for the two external disc-image
// tools. Argument construction is pure and deterministic given the job,
// its settings and the workflow.
package tool

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"discpress/internal/domain"
)

var (
	ErrEmptyPath   = errors.New("path is empty")
	ErrInvalidPath = errors.New("path contains invalid characters")
)

// Paths locates the external binaries and the scratch user directory
// dolphin-tool requires.
type Paths struct {
	Chdman      string
	DolphinTool string
	TempUserDir string
}

// Plan is a fully resolved invocation for one job.
type Plan struct {
	ToolPath   string
	Args       []string
	OutputPath string

	// SyntheticProgress marks invocations whose tool emits no
	// machine-readable progress; the runner estimates instead.
	SyntheticProgress bool
}

// Build resolves the invocation for a job. It fails when no output path
// can be produced; such jobs go straight to failed without ever
// occupying a processing slot.
func Build(wf domain.Workflow, job *domain.Job, paths Paths) (Plan, error) {
	if err := validatePath(job.SourcePath); err != nil {
		return Plan{}, fmt.Errorf("invalid source path: %w", err)
	}

	switch job.Tool {
	case domain.ToolChdman:
		return buildChdman(wf, job, paths)
	case domain.ToolDolphinTool:
		return buildDolphin(wf, job, paths)
	default:
		return Plan{}, fmt.Errorf("%w: %s", domain.ErrUnknownTool, job.Tool)
	}
}

// outputBase derives the extension-less output path for a job:
// the configured output directory (falling back to the source's own
// directory) joined with the source file name.
func outputBase(job *domain.Job) (string, error) {
	base := filepath.Base(job.SourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." {
		return "", domain.ErrNoOutputPath
	}

	dir := job.Settings.OutputDir
	if dir == "" {
		dir = filepath.Dir(job.SourcePath)
	}
	if err := validatePath(dir); err != nil {
		return "", fmt.Errorf("invalid output dir: %w", err)
	}
	return filepath.Join(dir, base), nil
}

func validatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}
	return nil
}
