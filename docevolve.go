package docevolve

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/docevolve/internal/platform"
	"github.com/aretw0/docevolve/pkg/adapters/fs"
	"github.com/aretw0/docevolve/pkg/core"
)

// DefaultSystemDir is the reserved directory holding the state of a store.
const DefaultSystemDir = fs.DefaultSystemDir

// --- Types ---

// Store is a public alias for the document history store.
type Store = core.Store

// Document is a public alias for a tracked document history.
type Document = core.Document

// Version is a public alias for an immutable content snapshot.
type Version = core.Version

// Metadata is a public alias for version metadata.
type Metadata = core.Metadata

// Summary is a public alias for the content-free view of a version.
type Summary = core.Summary

// Diff is a public alias for the comparison of two versions.
type Diff = core.Diff

// DocumentStatus is a public alias for the working-copy state of a document.
type DocumentStatus = core.DocumentStatus

// --- Errors ---

var (
	ErrNotFound       = core.ErrNotFound
	ErrIO             = core.ErrIO
	ErrMalformedState = core.ErrMalformedState
	ErrNotText        = core.ErrNotText
	ErrRootNotFound   = platform.ErrRootNotFound
)

// --- Configuration ---

// Option defines a functional option for configuring a store.
type Option = platform.Option

// WithLogger sets the logger for the storage adapter.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithSystemDir allows specifying the reserved directory name (e.g. ".doc_evolve").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithStateFile allows specifying the snapshot file name (e.g. "state.yaml").
func WithStateFile(name string) Option {
	return platform.WithStateFile(name)
}

// WithVerify enables hash re-verification when the state is loaded.
func WithVerify(enabled bool) Option {
	return platform.WithVerify(enabled)
}

// WithLockTimeout sets how long Lock waits for the state lock.
func WithLockTimeout(d time.Duration) Option {
	return platform.WithLockTimeout(d)
}

// --- Factory ---

// New opens the store rooted at root, creating its system directory if needed.
func New(root string, opts ...Option) (*core.Store, error) {
	return platform.New(root, opts...)
}

// Open is New with an explicit context.
func Open(ctx context.Context, root string, opts ...Option) (*core.Store, error) {
	return platform.Open(ctx, root, opts...)
}

// Lock acquires the advisory cross-process lock of the store rooted at root.
func Lock(ctx context.Context, root string, opts ...Option) (func(), error) {
	return platform.Lock(ctx, root, opts...)
}

// --- Utils ---

// Digest returns the hex-encoded SHA-256 of content.
func Digest(content string) string {
	return core.Digest(content)
}

// FindRoot recursively looks upwards for a directory holding the default system directory.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir, "")
}
