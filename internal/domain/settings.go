package domain

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Platform is the detected (or overridden) system a disc image belongs
// to. It decides which external tool handles the job.
type Platform string

const (
	PlatformCD       Platform = "cd"
	PlatformDVD      Platform = "dvd"
	PlatformGameCube Platform = "gamecube"
	PlatformWii      Platform = "wii"
	PlatformUnknown  Platform = "unknown"
)

// Tool identifies one of the two external command-line tools.
type Tool string

const (
	ToolChdman      Tool = "chdman"
	ToolDolphinTool Tool = "dolphin-tool"
)

// Tool returns the external tool responsible for this platform.
// Nintendo platforms go through dolphin-tool, everything else through
// chdman.
func (p Platform) Tool() Tool {
	switch p {
	case PlatformGameCube, PlatformWii:
		return ToolDolphinTool
	default:
		return ToolChdman
	}
}

// Strategy is the sub-command of the external tool chosen for a job.
type Strategy string

const (
	StrategyCreateCD   Strategy = "createcd"
	StrategyCreateDVD  Strategy = "createdvd"
	StrategyExtractCD  Strategy = "extractcd"
	StrategyExtractDVD Strategy = "extractdvd"
	StrategyVerify     Strategy = "verify"
	StrategyInfo       Strategy = "info"
	StrategyConvert    Strategy = "convert"
	StrategyHeader     Strategy = "header"
)

type CompressionPreset string

const (
	PresetBalanced CompressionPreset = "balanced"
	PresetMax      CompressionPreset = "max"
	PresetFast     CompressionPreset = "fast"
	PresetRaw      CompressionPreset = "raw"
	PresetCustom   CompressionPreset = "custom"
)

// Codecs maps a preset to the chdman codec list. The custom preset uses
// the user-supplied string as-is.
func (p CompressionPreset) Codecs(custom string) string {
	switch p {
	case PresetMax:
		return "lzma"
	case PresetFast:
		return "zstd"
	case PresetRaw:
		return "none"
	case PresetCustom:
		return custom
	default:
		return "lzma,zlib,huff"
	}
}

type MediaType string

const (
	MediaTypeAuto MediaType = "auto"
	MediaTypeCD   MediaType = "cd"
	MediaTypeDVD  MediaType = "dvd"
)

// Settings carries the tool-specific options supplied by the caller at
// enqueue time. The core never fetches settings itself.
type Settings struct {
	OutputDir        string            `json:"output_dir,omitempty"`
	Preset           CompressionPreset `json:"preset,omitempty"`
	CustomCodecs     string            `json:"custom_codecs,omitempty"`
	HunkSize         int               `json:"hunk_size,omitempty"`
	MediaType        MediaType         `json:"media_type,omitempty"`
	PlatformOverride Platform          `json:"platform_override,omitempty"`

	// dolphin-tool options.
	Format           string `json:"format,omitempty"`
	BlockSize        int    `json:"block_size,omitempty"`
	Compression      string `json:"compression,omitempty"`
	CompressionLevel int    `json:"compression_level,omitempty"`
	VerifyAlgorithm  string `json:"verify_algorithm,omitempty"`
	Scrub            bool   `json:"scrub,omitempty"`
}

var cdExtensions = map[string]bool{
	".cue": true,
	".gdi": true,
	".toc": true,
	".nrg": true,
	".bin": true,
}

// DetectPlatform guesses the platform from the file extension.
// Ambiguous inputs (notably .chd archives) come back unknown and fall
// through to the media-type setting.
func DetectPlatform(path string) Platform {
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case cdExtensions[ext]:
		return PlatformCD
	case ext == ".iso":
		return PlatformDVD
	case ext == ".gcm" || ext == ".gcz":
		return PlatformGameCube
	case ext == ".rvz" || ext == ".wia" || ext == ".wbfs":
		return PlatformWii
	default:
		return PlatformUnknown
	}
}

// mediaClass collapses the platform to cd/dvd, consulting the settings
// when detection was inconclusive. Precedence: per-job platform
// override (already folded into the platform argument) > explicit
// media-type setting > auto-detection, defaulting to cd.
func mediaClass(p Platform, st Settings) MediaType {
	switch p {
	case PlatformCD:
		return MediaTypeCD
	case PlatformDVD:
		return MediaTypeDVD
	}
	if st.MediaType == MediaTypeCD || st.MediaType == MediaTypeDVD {
		return st.MediaType
	}
	return MediaTypeCD
}

// SelectStrategy picks the tool sub-command for a workflow given the
// resolved platform and settings.
func SelectStrategy(wf Workflow, p Platform, st Settings) Strategy {
	if p.Tool() == ToolDolphinTool {
		switch wf {
		case WorkflowCompress, WorkflowExtract:
			return StrategyConvert
		case WorkflowVerify:
			return StrategyVerify
		default:
			return StrategyHeader
		}
	}

	switch wf {
	case WorkflowCompress:
		if mediaClass(p, st) == MediaTypeDVD {
			return StrategyCreateDVD
		}
		return StrategyCreateCD
	case WorkflowExtract:
		if mediaClass(p, st) == MediaTypeDVD {
			return StrategyExtractDVD
		}
		return StrategyExtractCD
	case WorkflowVerify:
		return StrategyVerify
	default:
		return StrategyInfo
	}
}

var discPattern = regexp.MustCompile(`(?i)\(disc\s*(\d+)\)`)

// ParseDiscTag extracts multi-disc set correlation from a display name,
// e.g. "Game (Disc 2)" belongs to group "Game" as disc 2. Returns empty
// group and zero when the name carries no disc tag.
func ParseDiscTag(name string) (group string, disc int) {
	m := discPattern.FindStringSubmatchIndex(name)
	if m == nil {
		return "", 0
	}
	disc = 0
	for _, c := range name[m[2]:m[3]] {
		disc = disc*10 + int(c-'0')
	}
	group = strings.Join(strings.Fields(name[:m[0]]+name[m[1]:]), " ")
	return group, disc
}
