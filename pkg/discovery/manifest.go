package discovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultManifestPattern selects the documents listed in a manifest.
const DefaultManifestPattern = "*.md"

// ManifestEntry describes one document of the manifest.
type ManifestEntry struct {
	Path      string `json:"path" yaml:"path"`
	Name      string `json:"name" yaml:"name"`
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`
}

// Manifest is the index of generated documents.
type Manifest struct {
	GeneratedAt string          `json:"generated_at" yaml:"generated_at"`
	Docs        []ManifestEntry `json:"docs" yaml:"docs"`
}

// ManifestBuilder writes the manifest of a docs directory.
type ManifestBuilder struct {
	// DocsDir is scanned for documents.
	DocsDir string
	// Path is the manifest file.
	Path string
	// RelTo is the directory entry paths are made relative to.
	// Empty keeps them absolute.
	RelTo string
	// Pattern is a doublestar pattern matched below DocsDir.
	Pattern string

	now func() time.Time
}

// BuildManifest is a shortcut for ManifestBuilder.Build.
func BuildManifest(docsDir, manifestPath, relTo, pattern string) (Manifest, error) {
	b := &ManifestBuilder{DocsDir: docsDir, Path: manifestPath, RelTo: relTo, Pattern: pattern}
	return b.Build()
}

// Build scans DocsDir and rewrites the manifest.
//
// A missing or empty manifest is reset to the default (no documents) and
// returned as is, without scanning. A corrupt manifest is replaced.
func (b *ManifestBuilder) Build() (Manifest, error) {
	if err := os.MkdirAll(filepath.Dir(b.Path), 0755); err != nil {
		return Manifest{}, fmt.Errorf("failed to create manifest dir: %w", err)
	}

	raw, err := os.ReadFile(b.Path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		def := Manifest{Docs: []ManifestEntry{}}
		return def, b.write(def)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		m = Manifest{}
	}

	docs, err := b.scan()
	if err != nil {
		return Manifest{}, err
	}

	m.GeneratedAt = b.clock().UTC().Format(time.RFC3339Nano)
	m.Docs = docs
	return m, b.write(m)
}

// scan lists the matching documents, sorted by name.
func (b *ManifestBuilder) scan() ([]ManifestEntry, error) {
	docs := []ManifestEntry{}
	if _, err := os.Stat(b.DocsDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return docs, nil
		}
		return nil, fmt.Errorf("failed to stat docs dir: %w", err)
	}

	pattern := b.Pattern
	if pattern == "" {
		pattern = DefaultManifestPattern
	}
	matches, err := doublestar.Glob(os.DirFS(b.DocsDir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid manifest pattern %q: %w", pattern, err)
	}
	slices.Sort(matches)

	for _, match := range matches {
		full := filepath.Join(b.DocsDir, filepath.FromSlash(match))
		info, err := os.Stat(full)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", full, err)
		}

		p := full
		if b.RelTo != "" {
			if rel, err := filepath.Rel(b.RelTo, full); err == nil {
				p = rel
			}
		}
		docs = append(docs, ManifestEntry{
			Path:      filepath.ToSlash(p),
			Name:      filepath.Base(full),
			UpdatedAt: info.ModTime().UTC().Format(time.RFC3339Nano),
		})
	}
	return docs, nil
}

func (b *ManifestBuilder) write(m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(b.Path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func (b *ManifestBuilder) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now()
}
