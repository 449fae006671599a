package tool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discpress/internal/domain"
)

var testPaths = Paths{
	Chdman:      "/usr/bin/chdman",
	DolphinTool: "/usr/bin/dolphin-tool",
	TempUserDir: "/data/dolphin-user",
}

func TestBuildChdman(t *testing.T) {
	tests := []struct {
		name       string
		wf         domain.Workflow
		source     string
		settings   domain.Settings
		wantArgs   []string
		wantOutput string
	}{
		{
			name:   "compress cd with balanced preset",
			wf:     domain.WorkflowCompress,
			source: "/roms/psx/Game.cue",
			wantArgs: []string{
				"createcd",
				"-i", "/roms/psx/Game.cue",
				"-o", "/roms/psx/Game.chd",
				"-c", "lzma,zlib,huff",
				"-f",
			},
			wantOutput: "/roms/psx/Game.chd",
		},
		{
			name:     "compress dvd into output dir with hunk size",
			wf:       domain.WorkflowCompress,
			source:   "/roms/ps2/Game.iso",
			settings: domain.Settings{OutputDir: "/out", Preset: domain.PresetMax, HunkSize: 4096},
			wantArgs: []string{
				"createdvd",
				"-i", "/roms/ps2/Game.iso",
				"-o", "/out/Game.chd",
				"-c", "lzma",
				"-hs", "4096",
				"-f",
			},
			wantOutput: "/out/Game.chd",
		},
		{
			name:     "compress with custom codecs",
			wf:       domain.WorkflowCompress,
			source:   "/roms/psx/Game.cue",
			settings: domain.Settings{Preset: domain.PresetCustom, CustomCodecs: "cdlz,cdzl"},
			wantArgs: []string{
				"createcd",
				"-i", "/roms/psx/Game.cue",
				"-o", "/roms/psx/Game.chd",
				"-c", "cdlz,cdzl",
				"-f",
			},
			wantOutput: "/roms/psx/Game.chd",
		},
		{
			name:     "extract dvd",
			wf:       domain.WorkflowExtract,
			source:   "/roms/Game.chd",
			settings: domain.Settings{MediaType: domain.MediaTypeDVD},
			wantArgs: []string{
				"extractdvd",
				"-i", "/roms/Game.chd",
				"-o", "/roms/Game.iso",
				"-f",
			},
			wantOutput: "/roms/Game.iso",
		},
		{
			name:   "extract cd writes cue and bin",
			wf:     domain.WorkflowExtract,
			source: "/roms/Game.chd",
			wantArgs: []string{
				"extractcd",
				"-i", "/roms/Game.chd",
				"-o", "/roms/Game.cue",
				"-ob", "/roms/Game.bin",
				"-f",
			},
			wantOutput: "/roms/Game.cue",
		},
		{
			name:     "verify has no output",
			wf:       domain.WorkflowVerify,
			source:   "/roms/Game.chd",
			wantArgs: []string{"verify", "-i", "/roms/Game.chd"},
		},
		{
			name:     "info has no output",
			wf:       domain.WorkflowInfo,
			source:   "/roms/Game.chd",
			wantArgs: []string{"info", "-i", "/roms/Game.chd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := domain.NewJob(tt.wf, tt.source, "Game", 1, tt.settings)
			plan, err := Build(tt.wf, job, testPaths)
			require.NoError(t, err)

			assert.Equal(t, testPaths.Chdman, plan.ToolPath)
			assert.Equal(t, tt.wantArgs, plan.Args)
			assert.Equal(t, tt.wantOutput, plan.OutputPath)
			assert.False(t, plan.SyntheticProgress)
		})
	}
}

func TestBuildDolphin(t *testing.T) {
	t.Run("compress defaults to rvz", func(t *testing.T) {
		job := domain.NewJob(domain.WorkflowCompress, "/roms/gc/Game.gcm", "Game", 1, domain.Settings{})
		plan, err := Build(domain.WorkflowCompress, job, testPaths)
		require.NoError(t, err)

		assert.Equal(t, testPaths.DolphinTool, plan.ToolPath)
		assert.True(t, plan.SyntheticProgress)
		assert.Equal(t, "/roms/gc/Game.rvz", plan.OutputPath)
		assert.Equal(t, []string{
			"convert",
			"-u", "/data/dolphin-user",
			"-i", "/roms/gc/Game.gcm",
			"-o", "/roms/gc/Game.rvz",
			"-f", "rvz",
			"-b", "131072",
		}, plan.Args)
	})

	t.Run("compress with compression and scrub", func(t *testing.T) {
		job := domain.NewJob(domain.WorkflowCompress, "/roms/wii/Game.wbfs", "Game", 1, domain.Settings{
			Compression:      "zstd",
			CompressionLevel: 9,
			BlockSize:        65536,
			Scrub:            true,
		})
		plan, err := Build(domain.WorkflowCompress, job, testPaths)
		require.NoError(t, err)

		assert.Equal(t, []string{
			"convert",
			"-u", "/data/dolphin-user",
			"-i", "/roms/wii/Game.wbfs",
			"-o", "/roms/wii/Game.rvz",
			"-f", "rvz",
			"-b", "65536",
			"-s",
			"-c", "zstd",
			"-l", "9",
		}, plan.Args)
	})

	t.Run("compression level defaults to 5", func(t *testing.T) {
		job := domain.NewJob(domain.WorkflowCompress, "/roms/gc/Game.gcm", "Game", 1, domain.Settings{
			Compression: "lzma",
		})
		plan, err := Build(domain.WorkflowCompress, job, testPaths)
		require.NoError(t, err)
		assert.Contains(t, plan.Args, "-l")
		assert.Equal(t, "5", plan.Args[len(plan.Args)-1])
	})

	t.Run("extract forces iso and skips compression flags", func(t *testing.T) {
		job := domain.NewJob(domain.WorkflowExtract, "/roms/wii/Game.rvz", "Game", 1, domain.Settings{
			Compression: "zstd",
		})
		plan, err := Build(domain.WorkflowExtract, job, testPaths)
		require.NoError(t, err)

		assert.Equal(t, "/roms/wii/Game.iso", plan.OutputPath)
		assert.Contains(t, plan.Args, "iso")
		assert.NotContains(t, plan.Args, "-c")
	})

	t.Run("verify with algorithm", func(t *testing.T) {
		job := domain.NewJob(domain.WorkflowVerify, "/roms/wii/Game.rvz", "Game", 1, domain.Settings{
			VerifyAlgorithm: "sha1",
		})
		plan, err := Build(domain.WorkflowVerify, job, testPaths)
		require.NoError(t, err)

		assert.Equal(t, []string{
			"verify",
			"-u", "/data/dolphin-user",
			"-i", "/roms/wii/Game.rvz",
			"-a", "sha1",
		}, plan.Args)
		assert.Empty(t, plan.OutputPath)
	})

	t.Run("info uses header subcommand", func(t *testing.T) {
		job := domain.NewJob(domain.WorkflowInfo, "/roms/gc/Game.gcz", "Game", 1, domain.Settings{})
		plan, err := Build(domain.WorkflowInfo, job, testPaths)
		require.NoError(t, err)

		assert.Equal(t, []string{
			"header",
			"-u", "/data/dolphin-user",
			"-i", "/roms/gc/Game.gcz",
		}, plan.Args)
	})
}

func TestBuildErrors(t *testing.T) {
	t.Run("empty source path", func(t *testing.T) {
		job := domain.NewJob(domain.WorkflowCompress, "", "x", 1, domain.Settings{})
		_, err := Build(domain.WorkflowCompress, job, testPaths)
		assert.ErrorIs(t, err, ErrEmptyPath)
	})

	t.Run("null byte in source path", func(t *testing.T) {
		job := domain.NewJob(domain.WorkflowCompress, "/roms/ga\x00me.cue", "x", 1, domain.Settings{})
		_, err := Build(domain.WorkflowCompress, job, testPaths)
		assert.ErrorIs(t, err, ErrInvalidPath)
	})

	t.Run("null byte in output dir", func(t *testing.T) {
		job := domain.NewJob(domain.WorkflowCompress, "/roms/Game.cue", "x", 1, domain.Settings{
			OutputDir: "/ou\x00t",
		})
		_, err := Build(domain.WorkflowCompress, job, testPaths)
		assert.ErrorIs(t, err, ErrInvalidPath)
	})

	t.Run("unknown tool", func(t *testing.T) {
		job := domain.NewJob(domain.WorkflowVerify, "/roms/Game.chd", "x", 1, domain.Settings{})
		job.Tool = "sox"
		_, err := Build(domain.WorkflowVerify, job, testPaths)
		assert.ErrorIs(t, err, domain.ErrUnknownTool)
	})
}
