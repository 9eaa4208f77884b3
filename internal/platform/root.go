package platform

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/aretw0/docevolve/pkg/adapters/fs"
)

// ErrRootNotFound is returned by FindRoot when no ancestor holds a store.
var ErrRootNotFound = errors.New("store root not found")

// FindRoot recursively looks upwards for a store root indicator: a directory
// containing the reserved system directory (".doc_evolve" unless systemDir is set).
// If found, returns the absolute path to the root.
func FindRoot(startDir, systemDir string) (string, error) {
	if systemDir == "" {
		systemDir = fs.DefaultSystemDir
	}

	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if isDir(filepath.Join(dir, systemDir)) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
