package core

import "fmt"

// Document is the append-only version history of one tracked file.
type Document struct {
	// Name is the logical key: the path relative to the store root, or the
	// absolute path for files outside of it.
	Name string
	// Path is the absolute location that was tracked. Restore writes here by default.
	Path           string
	Versions       []*Version
	CurrentVersion int
}

// NewDocument creates an empty history.
func NewDocument(name, path string) *Document {
	return &Document{Name: name, Path: path}
}

// AppendVersion records content as the next version.
// It does not check for changes; call HasChanged first.
func (d *Document) AppendVersion(content string, metadata Metadata) *Version {
	d.CurrentVersion++
	v := NewVersion(content, d.CurrentVersion, metadata)
	d.Versions = append(d.Versions, v)
	return v
}

// Version returns the version with the given number.
func (d *Document) Version(number int) (*Version, bool) {
	for _, v := range d.Versions {
		if v.Number == number {
			return v, true
		}
	}
	return nil, false
}

// Latest returns the most recent version.
func (d *Document) Latest() (*Version, bool) {
	if len(d.Versions) == 0 {
		return nil, false
	}
	return d.Versions[len(d.Versions)-1], true
}

// HasChanged reports whether content differs from the latest version.
// Comparison is by digest. An empty history always reports a change.
func (d *Document) HasChanged(content string) bool {
	latest, ok := d.Latest()
	if !ok {
		return true
	}
	return Digest(content) != latest.Hash
}

// Validate checks the numbering invariant (versions are 1..N with no gaps)
// and, when verifyHashes is set, that every stored hash matches its content.
func (d *Document) Validate(verifyHashes bool) error {
	for i, v := range d.Versions {
		if v == nil {
			return fmt.Errorf("%w: document %q has an empty version at position %d", ErrMalformedState, d.Name, i)
		}
		if v.Number != i+1 {
			return fmt.Errorf("%w: document %q version at position %d is numbered %d", ErrMalformedState, d.Name, i, v.Number)
		}
		if verifyHashes {
			if err := v.Verify(); err != nil {
				return fmt.Errorf("document %q: %w", d.Name, err)
			}
		}
	}
	if d.CurrentVersion != len(d.Versions) {
		return fmt.Errorf("%w: document %q current_version %d does not match %d versions", ErrMalformedState, d.Name, d.CurrentVersion, len(d.Versions))
	}
	return nil
}
