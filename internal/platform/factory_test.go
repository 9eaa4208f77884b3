package platform

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/docevolve/pkg/adapters/fs"
	"github.com/aretw0/docevolve/pkg/core"
)

type memoryRepository struct {
	docs map[string]*core.Document
}

func (m *memoryRepository) Initialize(ctx context.Context) error { return nil }

func (m *memoryRepository) Load(ctx context.Context) (map[string]*core.Document, error) {
	if m.docs == nil {
		return map[string]*core.Document{}, nil
	}
	return m.docs, nil
}

func (m *memoryRepository) Save(ctx context.Context, docs map[string]*core.Document) error {
	m.docs = docs
	return nil
}

func TestNew_DefaultStateFile(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	require.NoError(t, err)
	assert.NotNil(t, store)

	_, err = os.Stat(filepath.Join(root, fs.DefaultSystemDir))
	assert.NoError(t, err, "system directory should be created")
}

func TestNew_Options(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0644))

	store, err := New(root, WithSystemDir(".history"), WithStateFile("snapshot.yaml"))
	require.NoError(t, err)
	_, err = store.TrackDocument(context.TODO(), file, nil)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, ".history", "snapshot.yaml"))
	assert.NoError(t, err)
}

func TestNew_UnsupportedStateFile(t *testing.T) {
	_, err := New(t.TempDir(), WithStateFile("state.ini"))
	assert.Error(t, err)
}

func TestNew_WithRepository(t *testing.T) {
	root := t.TempDir()
	repo := &memoryRepository{}
	file := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0644))

	store, err := New(root, WithRepository(repo))
	require.NoError(t, err)
	_, err = store.TrackDocument(context.TODO(), file, nil)
	require.NoError(t, err)

	assert.Contains(t, repo.docs, "a.txt")
	_, err = os.Stat(filepath.Join(root, fs.DefaultSystemDir))
	assert.True(t, os.IsNotExist(err), "injected repository should not touch disk")
}

func TestLock(t *testing.T) {
	root := t.TempDir()
	_, err := New(root)
	require.NoError(t, err)

	unlock, err := Lock(context.TODO(), root, WithLockTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = Lock(context.TODO(), root, WithLockTimeout(20*time.Millisecond))
	assert.ErrorIs(t, err, fs.ErrLocked)
	unlock()

	t.Run("Without Locker", func(t *testing.T) {
		unlock, err := Lock(context.TODO(), root, WithRepository(&memoryRepository{}))
		require.NoError(t, err)
		unlock()
	})
}
