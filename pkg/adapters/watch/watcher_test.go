package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/docevolve/pkg/adapters/fs"
	"github.com/aretw0/docevolve/pkg/core"
)

// setupStore tracks the given files (name -> content) under a fresh root.
func setupStore(t *testing.T, files map[string]string) (*core.Store, string) {
	t.Helper()
	root := t.TempDir()
	repo, err := fs.NewRepository(fs.Config{Root: root})
	require.NoError(t, err)
	store, err := core.Open(context.TODO(), root, repo)
	require.NoError(t, err)

	for name, content := range files {
		path := filepath.Join(store.Root(), filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		_, err := store.TrackDocument(context.TODO(), path, nil)
		require.NoError(t, err)
	}
	return store, store.Root()
}

func TestDebouncer(t *testing.T) {
	var mu sync.Mutex
	var emitted []string
	d := newDebouncer(20*time.Millisecond, func(path string) {
		mu.Lock()
		defer mu.Unlock()
		emitted = append(emitted, path)
	})

	for range 5 {
		d.add("a")
	}
	d.add("b")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(emitted) == 2
	}, time.Second, 5*time.Millisecond)

	d.add("c")
	pending := d.stop()
	assert.Equal(t, []string{"c"}, pending)

	d.add("d")
	time.Sleep(40 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b"}, emitted, "stopped debouncer must not emit")
}

func TestNew_Validation(t *testing.T) {
	store, _ := setupStore(t, nil)

	_, err := New(nil, Config{})
	assert.Error(t, err)

	_, err = New(store, Config{Ignore: []string{"[broken"}})
	assert.Error(t, err)

	_, err = New(store, Config{Schedule: "every now and then"})
	assert.Error(t, err)

	w, err := New(store, Config{Schedule: "@every 1m"})
	require.NoError(t, err)
	assert.Equal(t, DefaultDebounce, w.cfg.Debounce)
}

func TestWatcher_Accept(t *testing.T) {
	store, root := setupStore(t, map[string]string{
		"notes/a.md":   "a",
		"drafts/b.md":  "b",
		"keep/c.txt":   "c",
		"keep/tmp.bak": "d",
	})
	w, err := New(store, Config{Ignore: []string{"drafts/**", "*.bak"}})
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		op   fsnotify.Op
		want bool
	}{
		{"Tracked Write", "notes/a.md", fsnotify.Write, true},
		{"Tracked Create", "keep/c.txt", fsnotify.Create, true},
		{"Chmod Only", "notes/a.md", fsnotify.Chmod, false},
		{"Remove", "notes/a.md", fsnotify.Remove, false},
		{"Untracked", "notes/other.md", fsnotify.Write, false},
		{"Ignored Dir", "drafts/b.md", fsnotify.Write, false},
		{"Ignored Extension", "keep/tmp.bak", fsnotify.Write, false},
		{"State Dir", ".doc_evolve/state.json", fsnotify.Write, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := fsnotify.Event{Name: filepath.Join(root, filepath.FromSlash(tt.path)), Op: tt.op}
			_, ok := w.accept(event)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestWatcher_Update(t *testing.T) {
	store, root := setupStore(t, map[string]string{"a.txt": "one"})
	w, err := New(store, Config{Author: "bot"})
	require.NoError(t, err)
	path := filepath.Join(root, "a.txt")

	// Unchanged content records nothing.
	w.update(context.TODO(), path)
	doc, _ := store.Document("a.txt")
	assert.Equal(t, 1, doc.CurrentVersion)

	require.NoError(t, os.WriteFile(path, []byte("two"), 0644))
	w.update(context.TODO(), path)

	doc, _ = store.Document("a.txt")
	require.Equal(t, 2, doc.CurrentVersion)
	latest, _ := doc.Latest()
	assert.Equal(t, core.Metadata{"message": AutoMessage, "author": "bot"}, latest.Metadata)

	// A vanished file is skipped.
	require.NoError(t, os.Remove(path))
	w.update(context.TODO(), path)

	st := w.State().(WatcherState)
	assert.Equal(t, 1, st.Updates)
	assert.Empty(t, st.LastError)
	assert.NotNil(t, st.LastEvent)
	assert.Equal(t, "watcher", w.ComponentType())
}

func TestWatcher_Reconcile(t *testing.T) {
	store, root := setupStore(t, map[string]string{"a.txt": "a", "b.txt": "b"})
	w, err := New(store, Config{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("b2"), 0644))
	created, err := w.Reconcile(context.TODO())
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, 2, created[0].Number)
	assert.Equal(t, AutoMessage, created[0].Metadata["message"])
}

func TestWatcher_Run(t *testing.T) {
	store, root := setupStore(t, map[string]string{"docs/a.md": "first"})
	w, err := New(store, Config{Debounce: 10 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		return w.State().(WatcherState).Running
	}, time.Second, 5*time.Millisecond)

	path := filepath.Join(root, "docs", "a.md")
	require.NoError(t, os.WriteFile(path, []byte("second"), 0644))

	assert.Eventually(t, func() bool {
		return w.State().(WatcherState).Updates == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	// The state file reflects the new version.
	repo, err := fs.NewRepository(fs.Config{Root: root})
	require.NoError(t, err)
	reopened, err := core.Open(context.TODO(), root, repo)
	require.NoError(t, err)
	doc, ok := reopened.Document("docs/a.md")
	require.True(t, ok)
	assert.Equal(t, 2, doc.CurrentVersion)
}
