package tool

import (
	"fmt"
	"strconv"

	"discpress/internal/domain"
)

const (
	defaultFormat    = "rvz"
	defaultBlockSize = 131072
)

// buildDolphin assembles dolphin-tool invocations. dolphin-tool prints
// no percent-complete lines, so every plan it produces runs with
// synthetic progress estimation.
func buildDolphin(wf domain.Workflow, job *domain.Job, paths Paths) (Plan, error) {
	plan := Plan{ToolPath: paths.DolphinTool, SyntheticProgress: true}
	st := job.Settings

	format := st.Format
	if format == "" {
		format = defaultFormat
	}
	blockSize := st.BlockSize
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}

	switch {
	case job.Strategy == domain.StrategyConvert && wf == domain.WorkflowExtract:
		// Extraction is a conversion back to plain iso.
		format = "iso"
		fallthrough

	case job.Strategy == domain.StrategyConvert:
		base, err := outputBase(job)
		if err != nil {
			return Plan{}, err
		}
		plan.OutputPath = base + "." + format
		plan.Args = []string{
			"convert",
			"-u", paths.TempUserDir,
			"-i", job.SourcePath,
			"-o", plan.OutputPath,
			"-f", format,
			"-b", strconv.Itoa(blockSize),
		}
		if st.Scrub {
			plan.Args = append(plan.Args, "-s")
		}
		if format != "iso" && st.Compression != "" {
			level := st.CompressionLevel
			if level <= 0 {
				level = 5
			}
			plan.Args = append(plan.Args, "-c", st.Compression, "-l", strconv.Itoa(level))
		}

	case job.Strategy == domain.StrategyVerify:
		plan.Args = []string{"verify", "-u", paths.TempUserDir, "-i", job.SourcePath}
		if st.VerifyAlgorithm != "" {
			plan.Args = append(plan.Args, "-a", st.VerifyAlgorithm)
		}

	case job.Strategy == domain.StrategyHeader:
		plan.Args = []string{"header", "-u", paths.TempUserDir, "-i", job.SourcePath}

	default:
		return Plan{}, fmt.Errorf("dolphin-tool cannot run strategy %q for workflow %s", job.Strategy, wf)
	}

	return plan, nil
}
