package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := load(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, time.Second, cfg.ProcessPollInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.AuthPollInterval)
	assert.Equal(t, "LeagueClientUx.exe", cfg.ProcessName)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "masterybox.yaml", `
log_level: debug
server_retry_interval: 2s
cache_backend: sqlite
cdragon_version: "14.1"
`)
	t.Setenv("MASTERYBOX_SERVER_RETRY_INTERVAL", "500ms")
	t.Setenv("MASTERYBOX_CACHE_DIR", "/tmp/mb")

	cfg, err := load(path, filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.ServerRetryInterval)
	assert.Equal(t, BackendSQLite, cfg.CacheBackend)
	assert.Equal(t, "14.1", cfg.CDragonVersion)
	assert.Equal(t, "/tmp/mb", cfg.CacheDir)
	assert.Equal(t, filepath.Join("/tmp/mb", "masterybox.db"), cfg.SQLitePath())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	dotenv := writeFile(t, dir, ".env", "MASTERYBOX_AUTH_POLL_INTERVAL=250ms\n")
	t.Cleanup(func() { os.Unsetenv("MASTERYBOX_AUTH_POLL_INTERVAL") })

	cfg, err := load("", dotenv)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.AuthPollInterval)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")

	_, err := load(writeFile(t, dir, "bad.yaml", "log_level: [nope"), dotenv)
	require.Error(t, err)

	_, err = load(writeFile(t, dir, "backend.yaml", "cache_backend: redis"), dotenv)
	require.ErrorContains(t, err, "cache_backend")

	_, err = load(writeFile(t, dir, "interval.yaml", "process_poll_interval: 0s"), dotenv)
	require.ErrorContains(t, err, "process_poll_interval")

	_, err = load(writeFile(t, dir, "level.yaml", "log_level: loud"), dotenv)
	require.Error(t, err)
}
