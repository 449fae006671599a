package tool

import (
	"fmt"
	"strconv"

	"discpress/internal/domain"
)

func buildChdman(wf domain.Workflow, job *domain.Job, paths Paths) (Plan, error) {
	plan := Plan{ToolPath: paths.Chdman}
	st := job.Settings

	switch job.Strategy {
	case domain.StrategyCreateCD, domain.StrategyCreateDVD:
		base, err := outputBase(job)
		if err != nil {
			return Plan{}, err
		}
		plan.OutputPath = base + ".chd"
		plan.Args = []string{
			string(job.Strategy),
			"-i", job.SourcePath,
			"-o", plan.OutputPath,
			"-c", st.Preset.Codecs(st.CustomCodecs),
		}
		if st.HunkSize > 0 {
			plan.Args = append(plan.Args, "-hs", strconv.Itoa(st.HunkSize))
		}
		plan.Args = append(plan.Args, "-f")

	case domain.StrategyExtractDVD:
		base, err := outputBase(job)
		if err != nil {
			return Plan{}, err
		}
		plan.OutputPath = base + ".iso"
		plan.Args = []string{
			"extractdvd",
			"-i", job.SourcePath,
			"-o", plan.OutputPath,
			"-f",
		}

	case domain.StrategyExtractCD:
		base, err := outputBase(job)
		if err != nil {
			return Plan{}, err
		}
		plan.OutputPath = base + ".cue"
		plan.Args = []string{
			"extractcd",
			"-i", job.SourcePath,
			"-o", plan.OutputPath,
			"-ob", base + ".bin",
			"-f",
		}

	case domain.StrategyVerify:
		plan.Args = []string{"verify", "-i", job.SourcePath}

	case domain.StrategyInfo:
		plan.Args = []string{"info", "-i", job.SourcePath}

	default:
		return Plan{}, fmt.Errorf("chdman cannot run strategy %q for workflow %s", job.Strategy, wf)
	}

	return plan, nil
}
