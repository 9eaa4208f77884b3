package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads, restoring them after the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DOC_EVOLVE_ROOT", "DOC_EVOLVE_AUTHOR", "DOC_EVOLVE_LOG_LEVEL", "DOC_EVOLVE_STATE_FILE",
		"DOC_EVOLVE_VERIFY", "DOC_EVOLVE_LOCK_TIMEOUT", "DOC_EVOLVE_COLOR",
		"DOC_EVOLVE_WATCH_SCHEDULE", "DOC_EVOLVE_WATCH_IGNORE",
		"DOC_EVOLVE_INDEX_PATH", "DOC_EVOLVE_DOCS_DIR", "DOC_EVOLVE_MANIFEST_PATH",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "state.json", cfg.StateFile)
	assert.Equal(t, 5*time.Second, cfg.LockTimeout)
	assert.Equal(t, ColorAuto, cfg.Color)
	assert.False(t, cfg.Verify)
	assert.Empty(t, cfg.WatchIgnore)
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("DOC_EVOLVE_AUTHOR", "alice")
	t.Setenv("DOC_EVOLVE_VERIFY", "true")
	t.Setenv("DOC_EVOLVE_LOCK_TIMEOUT", "250ms")
	t.Setenv("DOC_EVOLVE_WATCH_IGNORE", "drafts/**,*.tmp")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.Author)
	assert.True(t, cfg.Verify)
	assert.Equal(t, 250*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, []string{"drafts/**", "*.tmp"}, cfg.WatchIgnore)
}

func TestLoad_Dotenv(t *testing.T) {
	clearEnv(t)
	dotenv := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("DOC_EVOLVE_AUTHOR=bob\nDOC_EVOLVE_STATE_FILE=state.yaml\n"), 0644))
	t.Setenv("DOC_EVOLVE_STATE_FILE", "state.yml")

	cfg, err := Load(dotenv)
	require.NoError(t, err)
	assert.Equal(t, "bob", cfg.Author)
	assert.Equal(t, "state.yml", cfg.StateFile, "environment wins over dotenv")
}

func TestLoad_Invalid(t *testing.T) {
	t.Run("Color", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DOC_EVOLVE_COLOR", "rainbow")
		_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})

	t.Run("Log Level", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DOC_EVOLVE_LOG_LEVEL", "chatty")
		_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})

	t.Run("Duration", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DOC_EVOLVE_LOCK_TIMEOUT", "soon")
		_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		assert.Error(t, err)
	})
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	level, err = ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}
