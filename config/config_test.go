package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_TOKEN", "sekrit")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7895, cfg.Port)
	assert.Equal(t, "/data", cfg.DataDir)
	assert.Equal(t, "sekrit", cfg.AuthToken)
	assert.Equal(t, "chdman", cfg.ChdmanPath)
	assert.Equal(t, "dolphin-tool", cfg.DolphinToolPath)
	assert.Equal(t, "/data/dolphin-user", cfg.TempUserDir)
	assert.Equal(t, SuggestConcurrency(), cfg.Concurrency)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_TOKEN", "sekrit")
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_CONCURRENCY", "3")
	t.Setenv("DATA_DIR", "/srv/discpress")
	t.Setenv("CHDMAN_PATH", "/opt/mame/chdman")
	t.Setenv("DOLPHIN_TOOL_PATH", "/opt/dolphin/dolphin-tool")
	t.Setenv("TEMP_USER_DIR", "/tmp/dolphin")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, "/srv/discpress", cfg.DataDir)
	assert.Equal(t, "/opt/mame/chdman", cfg.ChdmanPath)
	assert.Equal(t, "/opt/dolphin/dolphin-tool", cfg.DolphinToolPath)
	assert.Equal(t, "/tmp/dolphin", cfg.TempUserDir)
}

func TestLoadTempUserDirFollowsDataDir(t *testing.T) {
	t.Setenv("AUTH_TOKEN", "sekrit")
	t.Setenv("DATA_DIR", "/srv/discpress")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/discpress/dolphin-user", cfg.TempUserDir)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing auth token", func(t *testing.T) {
		t.Setenv("AUTH_TOKEN", "")
		_, err := Load()
		assert.ErrorContains(t, err, "AUTH_TOKEN")
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("AUTH_TOKEN", "sekrit")
		t.Setenv("PORT", "not-a-port")
		_, err := Load()
		assert.ErrorContains(t, err, "PORT")
	})

	t.Run("bad concurrency", func(t *testing.T) {
		t.Setenv("AUTH_TOKEN", "sekrit")
		t.Setenv("MAX_CONCURRENCY", "lots")
		_, err := Load()
		assert.ErrorContains(t, err, "MAX_CONCURRENCY")
	})
}

func TestSuggestConcurrency(t *testing.T) {
	n := SuggestConcurrency()
	assert.GreaterOrEqual(t, n, 1)
	assert.LessOrEqual(t, n, 16)
}
