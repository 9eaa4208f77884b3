// Package config loads the command-line settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// ColorMode controls colored output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Config holds the settings shared by every command.
type Config struct {
	Root        string        `env:"DOC_EVOLVE_ROOT"`
	Author      string        `env:"DOC_EVOLVE_AUTHOR"`
	LogLevel    string        `env:"DOC_EVOLVE_LOG_LEVEL" envDefault:"info"`
	StateFile   string        `env:"DOC_EVOLVE_STATE_FILE" envDefault:"state.json"`
	Verify      bool          `env:"DOC_EVOLVE_VERIFY" envDefault:"false"`
	LockTimeout time.Duration `env:"DOC_EVOLVE_LOCK_TIMEOUT" envDefault:"5s"`
	Color       ColorMode     `env:"DOC_EVOLVE_COLOR" envDefault:"auto"`

	// Watch
	WatchSchedule string   `env:"DOC_EVOLVE_WATCH_SCHEDULE"`
	WatchIgnore   []string `env:"DOC_EVOLVE_WATCH_IGNORE" envSeparator:","`

	// Discovery
	IndexPath    string `env:"DOC_EVOLVE_INDEX_PATH" envDefault:"index/memory_index.csv"`
	DocsDir      string `env:"DOC_EVOLVE_DOCS_DIR" envDefault:"docs/auto-docs"`
	ManifestPath string `env:"DOC_EVOLVE_MANIFEST_PATH" envDefault:"docs/meta/docs_manifest.json"`
}

// Load reads the optional dotenv files, then parses the environment.
// Variables already set in the environment win over dotenv values.
func Load(dotenvFiles ...string) (*Config, error) {
	if len(dotenvFiles) == 0 {
		dotenvFiles = []string{".env"}
	}
	for _, f := range dotenvFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	switch cfg.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return nil, fmt.Errorf("invalid DOC_EVOLVE_COLOR %q (want auto, always or never)", cfg.Color)
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseLevel maps a level name (debug, info, warn, error) to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid DOC_EVOLVE_LOG_LEVEL %q: %w", name, err)
	}
	return level, nil
}
