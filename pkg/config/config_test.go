package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, FetchModeBrowser, cfg.FetchMode)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 40*time.Second, cfg.PageLoadTimeout())
	assert.Equal(t, time.Second, cfg.SettleDelay())
	assert.Equal(t, 24, cfg.HarvestIntervalHours)
	assert.Equal(t, 14, cfg.MaxBarrenDates)
}

func TestLoadFile_EnvironmentOverrides(t *testing.T) {
	t.Setenv("FETCH_MODE", "http")
	t.Setenv("HARVEST_MAX_COUNT", "10")
	t.Setenv("SETTLE_DELAY_MS", "0")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, FetchModeHTTP, cfg.FetchMode)
	assert.Equal(t, 10, cfg.HarvestMaxCount)
	assert.Equal(t, time.Duration(0), cfg.SettleDelay())
}

func TestLoadFile_ReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_PORT=9090\nLOG_LEVEL=debug\n"), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadFile_InvalidFetchMode(t *testing.T) {
	t.Setenv("FETCH_MODE", "carrier-pigeon")

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestLoadFile_NonPositiveMaxBarrenDates(t *testing.T) {
	t.Setenv("MAX_BARREN_DATES", "0")

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
