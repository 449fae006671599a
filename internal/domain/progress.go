package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// progressPattern matches the percent-complete lines both tools print,
// e.g. "Compressing, 45.6% complete... (ratio=40.5%)". Output may
// arrive on stdout or stderr; both are parsed identically.
var progressPattern = regexp.MustCompile(`(?i)(compressing|extracting|processing|verifying),?\s+(\d+\.?\d*)%\s+complete`)

// ParseProgress extracts a percent-complete value from one line of tool
// output.
func ParseProgress(line string) (float64, bool) {
	m := progressPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	pct, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return 0, false
	}
	return pct, true
}

// ETA estimates remaining seconds by linear extrapolation from elapsed
// time and percent complete. Undefined (nil) when the percentage is
// zero or no start time was recorded.
func ETA(startedAt *time.Time, percent float64, now time.Time) *float64 {
	if startedAt == nil || percent <= 0 {
		return nil
	}
	elapsed := now.Sub(*startedAt).Seconds()
	remaining := elapsed/percent*100 - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}

// infoKeys maps "Key: Value" labels printed by the info/header
// sub-commands to metadata fields.
var infoKeys = map[string]func(*GameMeta, string){
	"game id":       func(m *GameMeta, v string) { m.GameID = v },
	"internal name": func(m *GameMeta, v string) { m.InternalName = v },
	"region":        func(m *GameMeta, v string) { m.Region = v },
}

// ParseInfoLine extracts structured metadata from one line of info
// workflow output. Returns false when the line carries no known key.
func ParseInfoLine(line string, meta *GameMeta) bool {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return false
	}
	set, known := infoKeys[strings.ToLower(strings.TrimSpace(key))]
	if !known {
		return false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	set(meta, value)
	return true
}
