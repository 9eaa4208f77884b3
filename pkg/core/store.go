package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"
)

// Store is the registry of tracked documents.
//
// A Store is meant to live for one load-mutate-save cycle (one CLI command).
// It performs no locking; callers sharing a Store across goroutines must
// serialize access themselves.
type Store struct {
	root      string
	repo      Repository
	documents map[string]*Document
}

// Open resolves root, prepares the repository and loads the persisted state.
func Open(ctx context.Context, root string, repo Repository) (*Store, error) {
	if repo == nil {
		return nil, errors.New("store requires a repository")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve root %s: %w", ErrIO, root, err)
	}

	if err := repo.Initialize(ctx); err != nil {
		return nil, err
	}

	// The root exists once the repository is initialized; resolve symlinks so
	// names computed against resolved file paths stay relative.
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	docs, err := repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = make(map[string]*Document)
	}

	return &Store{root: abs, repo: repo, documents: docs}, nil
}

// Root returns the absolute root directory of the store.
func (s *Store) Root() string {
	return s.root
}

// ResolveName returns the logical document name and absolute path of filePath.
// Names are slash-separated paths relative to the root, or the absolute path
// when the file lies outside of it.
func (s *Store) ResolveName(filePath string) (name, absPath string, err error) {
	absPath, err = filepath.Abs(filePath)
	if err != nil {
		return "", "", fmt.Errorf("%w: resolve %s: %w", ErrIO, filePath, err)
	}
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}

	rel, err := filepath.Rel(s.root, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return absPath, absPath, nil
	}
	return filepath.ToSlash(rel), absPath, nil
}

// readFile loads the text of a document file, mapping errors to kinds.
func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: document not found: %s: %w", ErrNotFound, path, err)
		}
		return "", fmt.Errorf("%w: read %s: %w", ErrIO, path, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: read %s: %w", ErrIO, path, ErrNotText)
	}
	return string(data), nil
}

// TrackDocument starts (or continues) tracking the file at filePath.
//
// Workflow:
//  1. Read the file; a missing file is ErrNotFound.
//  2. Derive the document name and create an empty history if needed.
//  3. If the content changed, append a version and persist the whole store.
//
// The history is returned whether or not a version was added. Metadata is
// only recorded on new versions.
func (s *Store) TrackDocument(ctx context.Context, filePath string, metadata Metadata) (*Document, error) {
	name, absPath, err := s.ResolveName(filePath)
	if err != nil {
		return nil, err
	}

	content, err := readFile(absPath)
	if err != nil {
		return nil, err
	}

	doc, existed := s.documents[name]
	if !existed {
		doc = NewDocument(name, absPath)
		s.documents[name] = doc
	}

	if doc.HasChanged(content) {
		doc.AppendVersion(content, metadata)
		if err := s.persist(ctx, doc, existed); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

// UpdateDocument records a new version of an already tracked file.
//
// An untracked file is tracked first and its latest version returned.
// When the content is unchanged, UpdateDocument returns (nil, nil): no new
// version is not an error.
func (s *Store) UpdateDocument(ctx context.Context, filePath string, metadata Metadata) (*Version, error) {
	name, absPath, err := s.ResolveName(filePath)
	if err != nil {
		return nil, err
	}

	content, err := readFile(absPath)
	if err != nil {
		return nil, err
	}

	doc, ok := s.documents[name]
	if !ok {
		doc, err := s.TrackDocument(ctx, filePath, metadata)
		if err != nil {
			return nil, err
		}
		latest, _ := doc.Latest()
		return latest, nil
	}

	if !doc.HasChanged(content) {
		return nil, nil
	}

	v := doc.AppendVersion(content, metadata)
	if err := s.persist(ctx, doc, true); err != nil {
		return nil, err
	}
	return v, nil
}

// persist saves the registry after doc received a new version. On failure the
// in-memory append is undone so memory keeps matching what is on disk.
func (s *Store) persist(ctx context.Context, doc *Document, existed bool) error {
	if err := s.repo.Save(ctx, s.documents); err != nil {
		doc.Versions = doc.Versions[:len(doc.Versions)-1]
		doc.CurrentVersion--
		if !existed {
			delete(s.documents, doc.Name)
		}
		return err
	}
	return nil
}

// Document returns the history tracked under name.
func (s *Store) Document(name string) (*Document, bool) {
	doc, ok := s.documents[name]
	return doc, ok
}

// ListDocuments returns the names of all tracked documents, sorted.
func (s *Store) ListDocuments() []string {
	names := make([]string, 0, len(s.documents))
	for name := range s.documents {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// History returns the ordered version summaries of name.
// An untracked document has an empty history.
func (s *Store) History(name string) []Summary {
	doc, ok := s.documents[name]
	if !ok {
		return []Summary{}
	}
	out := make([]Summary, 0, len(doc.Versions))
	for _, v := range doc.Versions {
		out = append(out, v.Summary())
	}
	return out
}

// lookup finds a document and one of its versions.
func (s *Store) lookup(name string, number int) (*Document, *Version, error) {
	doc, ok := s.documents[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: document not found: %s", ErrNotFound, name)
	}
	v, ok := doc.Version(number)
	if !ok {
		return doc, nil, fmt.Errorf("%w: version %d not found for %s", ErrNotFound, number, name)
	}
	return doc, v, nil
}

// RestoreVersion writes the content of a stored version to outputPath, or
// over the document's tracked path when outputPath is empty.
// The store itself is not modified: restoring does not record a version.
func (s *Store) RestoreVersion(ctx context.Context, name string, number int, outputPath string) (*Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, v, err := s.lookup(name, number)
	if err != nil {
		return nil, err
	}

	target := outputPath
	if target == "" {
		target = doc.Path
	}

	if err := os.WriteFile(target, []byte(v.Content), 0644); err != nil {
		return nil, fmt.Errorf("%w: restore %s to %s: %w", ErrIO, name, target, err)
	}
	return v, nil
}

// Diff is the coarse comparison of two versions of a document.
type Diff struct {
	Version1 int  `json:"version1" yaml:"version1"`
	Version2 int  `json:"version2" yaml:"version2"`
	LinesV1  int  `json:"lines_v1" yaml:"lines_v1"`
	LinesV2  int  `json:"lines_v2" yaml:"lines_v2"`
	Changed  bool `json:"changed" yaml:"changed"`
}

// DiffVersions compares the line counts and hashes of two versions.
func (s *Store) DiffVersions(name string, v1, v2 int) (Diff, error) {
	_, a, err := s.lookup(name, v1)
	if err != nil {
		return Diff{}, err
	}
	_, b, err := s.lookup(name, v2)
	if err != nil {
		return Diff{}, err
	}

	return Diff{
		Version1: v1,
		Version2: v2,
		LinesV1:  a.LineCount(),
		LinesV2:  b.LineCount(),
		Changed:  a.Hash != b.Hash,
	}, nil
}

// DocumentState describes a tracked file compared to its latest version.
type DocumentState string

const (
	StateUnchanged DocumentState = "unchanged"
	StateModified  DocumentState = "modified"
	StateMissing   DocumentState = "missing"
)

// DocumentStatus is one row of Store.Status.
type DocumentStatus struct {
	Name           string        `json:"name" yaml:"name"`
	Path           string        `json:"path" yaml:"path"`
	CurrentVersion int           `json:"current_version" yaml:"current_version"`
	State          DocumentState `json:"state" yaml:"state"`
}

// Status compares every tracked file on disk with its latest version.
func (s *Store) Status(ctx context.Context) ([]DocumentStatus, error) {
	out := make([]DocumentStatus, 0, len(s.documents))
	for _, name := range s.ListDocuments() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc := s.documents[name]
		st := DocumentStatus{Name: name, Path: doc.Path, CurrentVersion: doc.CurrentVersion}

		content, err := readFile(doc.Path)
		switch {
		case errors.Is(err, ErrNotFound):
			st.State = StateMissing
		case errors.Is(err, ErrNotText):
			st.State = StateModified
		case err != nil:
			return nil, err
		case doc.HasChanged(content):
			st.State = StateModified
		default:
			st.State = StateUnchanged
		}
		out = append(out, st)
	}
	return out, nil
}

// UpdateAll runs UpdateDocument for every tracked file that still exists and
// returns the versions that were created.
func (s *Store) UpdateAll(ctx context.Context, metadata Metadata) ([]*Version, error) {
	var created []*Version
	for _, name := range s.ListDocuments() {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		doc := s.documents[name]
		v, err := s.UpdateDocument(ctx, doc.Path, metadata)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return created, err
		}
		if v != nil {
			created = append(created, v)
		}
	}
	return created, nil
}
