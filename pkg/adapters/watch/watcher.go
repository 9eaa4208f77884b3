// Package watch records new versions of tracked documents as they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"

	"github.com/aretw0/docevolve/pkg/adapters/fs"
	"github.com/aretw0/docevolve/pkg/core"
)

// DefaultDebounce is the quiet window applied to each path.
const DefaultDebounce = 50 * time.Millisecond

// AutoMessage is the "message" metadata of versions recorded by the watcher.
const AutoMessage = "auto: watch"

// Config holds the watcher settings.
type Config struct {
	// Author is recorded as "author" metadata when set.
	Author string
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// Ignore lists doublestar patterns matched against root-relative paths.
	Ignore []string
	// Schedule is an optional cron spec (e.g. "@every 5m") for full reconciles.
	Schedule string
	// SystemDir is always ignored. Defaults to ".doc_evolve".
	SystemDir string
	Logger    *slog.Logger
}

// Watcher updates tracked documents on Write/Create events.
//
// The store is not safe for concurrent use; the watcher serializes every
// access to it.
type Watcher struct {
	store  *core.Store
	cfg    Config
	ignore []string

	// tracked is fixed at construction: absolute path -> document name.
	tracked map[string]string

	mu        sync.Mutex
	updates   int
	lastEvent *time.Time
	lastError error
	running   bool
}

// New creates a watcher over the documents currently tracked by store.
func New(store *core.Store, cfg Config) (*Watcher, error) {
	if store == nil {
		return nil, errors.New("watcher requires a store")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.SystemDir == "" {
		cfg.SystemDir = fs.DefaultSystemDir
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	ignore := []string{cfg.SystemDir, cfg.SystemDir + "/**"}
	for _, p := range cfg.Ignore {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", p, doublestar.ErrBadPattern)
		}
		ignore = append(ignore, p)
	}

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			return nil, fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
		}
	}

	w := &Watcher{
		store:   store,
		cfg:     cfg,
		ignore:  ignore,
		tracked: make(map[string]string),
	}
	for _, name := range store.ListDocuments() {
		if doc, ok := store.Document(name); ok {
			w.tracked[filepath.Clean(doc.Path)] = name
		}
	}
	return w, nil
}

// Paths returns the absolute paths of the watched documents, sorted.
func (w *Watcher) Paths() []string {
	return slices.Sorted(maps.Keys(w.tracked))
}

// Run watches until ctx is done. Pending debounced updates are flushed
// before it returns.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.dirs() {
		if err := fsw.Add(dir); err != nil {
			w.cfg.Logger.Warn("cannot watch directory", "dir", dir, "error", err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var scheduler *cron.Cron
	if w.cfg.Schedule != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(w.cfg.Schedule, func() {
			if _, err := w.Reconcile(runCtx); err != nil {
				w.cfg.Logger.Error("scheduled reconcile failed", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", w.cfg.Schedule, err)
		}
	}

	queue := make(chan string, 64)
	d := newDebouncer(w.cfg.Debounce, func(path string) {
		select {
		case queue <- path:
		case <-runCtx.Done():
		}
	})

	done := make(chan struct{})
	lifecycle.Go(runCtx, func(ctx context.Context) error {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return nil
			case path := <-queue:
				w.update(ctx, path)
			}
		}
	}, lifecycle.WithErrorHandler(func(err error) {
		w.cfg.Logger.Error("watch worker panic", "error", err)
	}))

	if scheduler != nil {
		scheduler.Start()
	}

	w.setRunning(true)
	defer w.setRunning(false)
	w.cfg.Logger.Info("watching documents", "documents", len(w.Paths()), "schedule", w.cfg.Schedule)

	err = w.loop(runCtx, fsw, d)

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	pending := d.stop()
	cancel()
	<-done
	for drained := false; !drained; {
		select {
		case path := <-queue:
			if !slices.Contains(pending, path) {
				pending = append(pending, path)
			}
		default:
			drained = true
		}
	}

	// The flush must still reach the state file once ctx is done.
	flushCtx := context.WithoutCancel(ctx)
	for _, path := range pending {
		w.update(flushCtx, path)
	}
	return err
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher, d *debouncer) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			if path, ok := w.accept(event); ok {
				d.add(path)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.cfg.Logger.Error("fsnotify error", "error", err)
		}
	}
}

// accept filters a filesystem event down to a tracked, non-ignored path.
func (w *Watcher) accept(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return "", false
	}

	path := filepath.Clean(event.Name)
	_, tracked := w.tracked[path]
	if !tracked || w.shouldIgnore(path) {
		return "", false
	}

	w.cfg.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())
	return path, true
}

// shouldIgnore matches path (relative to the store root) against the ignore patterns.
func (w *Watcher) shouldIgnore(path string) bool {
	rel, err := filepath.Rel(w.store.Root(), path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	base := filepath.Base(path)

	for _, pattern := range w.ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// update records a new version of path if its content changed.
func (w *Watcher) update(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.lastEvent = &now

	v, err := w.store.UpdateDocument(ctx, path, w.metadata())
	switch {
	case errors.Is(err, core.ErrNotFound):
		// Removed between the event and the update (e.g. editor swap files).
		w.cfg.Logger.Debug("document vanished", "path", path)
	case err != nil:
		w.lastError = err
		w.cfg.Logger.Error("auto update failed", "path", path, "error", err)
	case v != nil:
		w.updates++
		w.cfg.Logger.Info("recorded version", "document", w.tracked[path], "version", v.Number)
	}
}

// Reconcile records a version for every tracked document that changed.
func (w *Watcher) Reconcile(ctx context.Context) ([]*core.Version, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	created, err := w.store.UpdateAll(ctx, w.metadata())
	w.updates += len(created)
	if err != nil {
		w.lastError = err
		return created, err
	}
	w.cfg.Logger.Debug("reconciled", "created", len(created))
	return created, nil
}

func (w *Watcher) metadata() core.Metadata {
	md := core.Metadata{"message": AutoMessage}
	if w.cfg.Author != "" {
		md["author"] = w.cfg.Author
	}
	return md
}

// dirs returns the distinct parent directories of the tracked documents.
func (w *Watcher) dirs() []string {
	seen := make(map[string]struct{})
	for _, path := range w.Paths() {
		seen[filepath.Dir(path)] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

func (w *Watcher) setRunning(running bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.running = running
}

// WatcherState exposes internal state for observability.
type WatcherState struct {
	Running   bool       `json:"running" yaml:"running"`
	Documents int        `json:"documents" yaml:"documents"`
	Updates   int        `json:"updates" yaml:"updates"`
	Schedule  string     `json:"schedule,omitempty" yaml:"schedule,omitempty"`
	LastEvent *time.Time `json:"last_event,omitempty" yaml:"last_event,omitempty"`
	LastError string     `json:"last_error,omitempty" yaml:"last_error,omitempty"`
}

// State implements introspection.Introspectable.
func (w *Watcher) State() any {
	w.mu.Lock()
	defer w.mu.Unlock()

	st := WatcherState{
		Running:   w.running,
		Documents: len(w.tracked),
		Updates:   w.updates,
		Schedule:  w.cfg.Schedule,
		LastEvent: w.lastEvent,
	}
	if w.lastError != nil {
		st.LastError = w.lastError.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (w *Watcher) ComponentType() string {
	return "watcher"
}

var _ introspection.Introspectable = (*Watcher)(nil)
var _ introspection.Component = (*Watcher)(nil)
