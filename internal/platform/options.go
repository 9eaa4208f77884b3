package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/docevolve/pkg/core"
)

// options holds the internal configuration for a docevolve store.
type options struct {
	repository  core.Repository
	logger      *slog.Logger
	systemDir   string
	stateFile   string
	verify      bool
	lockTimeout time.Duration
}

// Option defines a functional option for configuring a store.
type Option func(*options)

// defaultOptions returns the default configuration.
func defaultOptions() *options {
	return &options{
		lockTimeout: 5 * time.Second,
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger for the storage adapter.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithRepository allows injecting a custom storage adapter (e.g. in-memory).
// If provided, the default state file adapter will be skipped.
func WithRepository(repo core.Repository) Option {
	return func(o *options) {
		o.repository = repo
	}
}

// WithSystemDir allows specifying the reserved directory name.
// Defaults to ".doc_evolve".
func WithSystemDir(name string) Option {
	return func(o *options) {
		o.systemDir = name
	}
}

// WithStateFile allows specifying the snapshot file name inside the system
// directory. The extension selects the format: ".json" (default), ".yaml" or ".yml".
func WithStateFile(name string) Option {
	return func(o *options) {
		o.stateFile = name
	}
}

// WithVerify enables hash re-verification on load.
// A stored hash that does not match its content fails with core.ErrMalformedState.
func WithVerify(enabled bool) Option {
	return func(o *options) {
		o.verify = enabled
	}
}

// WithLockTimeout sets how long Lock waits for another process to release
// the state. Zero waits until the context is done.
func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.lockTimeout = d
	}
}
