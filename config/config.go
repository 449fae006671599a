package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

type Config struct {
	Port            int
	DataDir         string
	AuthToken       string
	ChdmanPath      string
	DolphinToolPath string
	TempUserDir     string
	Concurrency     int
}

func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "7895"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	concurrency, err := strconv.Atoi(getEnv("MAX_CONCURRENCY", strconv.Itoa(SuggestConcurrency())))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_CONCURRENCY: %w", err)
	}

	authToken := os.Getenv("AUTH_TOKEN")
	if authToken == "" {
		return nil, fmt.Errorf("AUTH_TOKEN is required")
	}

	dataDir := getEnv("DATA_DIR", "/data")

	return &Config{
		Port:            port,
		DataDir:         dataDir,
		AuthToken:       authToken,
		ChdmanPath:      getEnv("CHDMAN_PATH", "chdman"),
		DolphinToolPath: getEnv("DOLPHIN_TOOL_PATH", "dolphin-tool"),
		TempUserDir:     getEnv("TEMP_USER_DIR", filepath.Join(dataDir, "dolphin-user")),
		Concurrency:     concurrency,
	}, nil
}

// SuggestConcurrency derives a default per-workflow concurrency limit
// from the detected core count: half the cores, clamped to 1-16.
func SuggestConcurrency() int {
	n := runtime.NumCPU() / 2
	if n < 1 {
		n = 1
	}
	if n > 16 {
		n = 16
	}
	return n
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
