package fs

import (
	"context"
	"errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/docevolve/pkg/core"
)

const (
	// DefaultSystemDir is the reserved directory under the store root.
	DefaultSystemDir = ".doc_evolve"
	// DefaultStateFile is the snapshot file name inside the system directory.
	DefaultStateFile = "state.json"
	// lockFileName is the advisory lock inside the system directory.
	lockFileName = "state.lock"
)

// Config holds the configuration for the filesystem repository.
type Config struct {
	Root        string
	SystemDir   string        // e.g. ".doc_evolve"
	StateFile   string        // e.g. "state.json"; the extension selects the serializer
	Verify      bool          // re-check every stored hash on load
	LockTimeout time.Duration // zero waits until the context is done
	Logger      *slog.Logger
}

// Repository implements core.Repository with a single snapshot file.
type Repository struct {
	// Path is the absolute location of the state file.
	Path string

	config     Config
	serializer Serializer
	lockPath   string

	mu       sync.RWMutex
	lastLoad *time.Time
	lastSave *time.Time
	docCount int
}

// NewRepository creates a new state file repository.
// It fails when the state file extension has no serializer.
func NewRepository(config Config) (*Repository, error) {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	if config.StateFile == "" {
		config.StateFile = DefaultStateFile
	}

	root, err := filepath.Abs(config.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve root %s: %w", core.ErrIO, config.Root, err)
	}
	config.Root = root

	ext := filepath.Ext(config.StateFile)
	serializer, ok := DefaultSerializers()[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported state file format %q", ext)
	}

	systemPath := filepath.Join(root, config.SystemDir)
	return &Repository{
		Path:       filepath.Join(systemPath, config.StateFile),
		config:     config,
		serializer: serializer,
		lockPath:   filepath.Join(systemPath, lockFileName),
	}, nil
}

// SystemPath returns the reserved directory holding the state file.
func (r *Repository) SystemPath() string {
	return filepath.Dir(r.Path)
}

// Initialize creates the reserved system directory. It is idempotent.
func (r *Repository) Initialize(ctx context.Context) error {
	if err := os.MkdirAll(r.SystemPath(), 0755); err != nil {
		return fmt.Errorf("%w: failed to create state directory: %w", core.ErrIO, err)
	}
	return nil
}

// Load reads the snapshot. A missing file yields an empty registry; an
// unparsable one is core.ErrMalformedState and is never repaired.
func (r *Repository) Load(ctx context.Context) (map[string]*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.Path)
	if errors.Is(err, iofs.ErrNotExist) {
		if r.config.Logger != nil {
			r.config.Logger.Debug("no state file, starting empty", "path", r.Path)
		}
		r.recordLoad(0)
		return make(map[string]*core.Document), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read state: %w", core.ErrIO, err)
	}

	s, err := r.serializer.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrMalformedState, r.Path, err)
	}

	docs, err := decodeState(s, r.config.Verify)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Path, err)
	}

	if r.config.Logger != nil {
		r.config.Logger.Debug("state loaded", "path", r.Path, "documents", len(docs), "verify", r.config.Verify)
	}
	r.recordLoad(len(docs))
	return docs, nil
}

// Save rewrites the whole snapshot atomically (temp file + rename).
func (r *Repository) Save(ctx context.Context, docs map[string]*core.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := r.serializer.Encode(encodeState(docs))
	if err != nil {
		return fmt.Errorf("%w: failed to serialize state: %w", core.ErrIO, err)
	}

	if err := os.MkdirAll(r.SystemPath(), 0755); err != nil {
		return fmt.Errorf("%w: failed to create state directory: %w", core.ErrIO, err)
	}

	if err := writeFileAtomic(r.Path, data, 0644); err != nil {
		return fmt.Errorf("%w: failed to write state: %w", core.ErrIO, err)
	}

	if r.config.Logger != nil {
		r.config.Logger.Debug("state saved", "path", r.Path, "documents", len(docs), "bytes", len(data))
	}
	r.recordSave(len(docs))
	return nil
}

func (r *Repository) recordLoad(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastLoad = &now
	r.docCount = n
}

func (r *Repository) recordSave(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.lastSave = &now
	r.docCount = n
}

var _ core.Repository = (*Repository)(nil)
