// Package core holds the domain model of docevolve: versions, document
// histories and the Store that orchestrates them.
//
// The core never prints or logs. Persistence is delegated to a Repository,
// which keeps the domain independent of the state file format.
package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"strings"
	"time"
)

// Metadata represents the free-form string pairs attached to a version
// (e.g. "message", "author"). Absent keys are simply omitted.
type Metadata map[string]string

// Clone returns a copy of m. A nil receiver yields an empty, non-nil map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	maps.Copy(out, m)
	return out
}

// timestampLayout is the ISO-8601 layout used for new versions.
const timestampLayout = time.RFC3339Nano

// legacyTimestampLayout matches naive ISO-8601 timestamps (no zone offset)
// found in state files written by older tools.
const legacyTimestampLayout = "2006-01-02T15:04:05.999999999"

// Version is an immutable snapshot of a document's content.
type Version struct {
	Content   string
	Number    int
	Timestamp string
	Hash      string
	Metadata  Metadata
}

// NewVersion creates a snapshot of content with the given number.
// The timestamp is taken now and the hash is computed from content.
func NewVersion(content string, number int, metadata Metadata) *Version {
	return &Version{
		Content:   content,
		Number:    number,
		Timestamp: time.Now().Format(timestampLayout),
		Hash:      Digest(content),
		Metadata:  metadata.Clone(),
	}
}

// Digest returns the hex-encoded SHA-256 of the UTF-8 bytes of content.
func Digest(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Verify checks that Hash is the digest of Content.
func (v *Version) Verify() error {
	if got := Digest(v.Content); got != v.Hash {
		return fmt.Errorf("%w: version %d hash mismatch (stored %s, computed %s)", ErrMalformedState, v.Number, v.Hash, got)
	}
	return nil
}

// Time parses the stored timestamp.
func (v *Version) Time() (time.Time, error) {
	if t, err := time.Parse(timestampLayout, v.Timestamp); err == nil {
		return t, nil
	}
	return time.ParseInLocation(legacyTimestampLayout, v.Timestamp, time.Local)
}

// LineCount returns the number of newline-separated lines in the content.
// An empty document counts as one (empty) line.
func (v *Version) LineCount() int {
	return strings.Count(v.Content, "\n") + 1
}

// Summary describes a version without its content.
type Summary struct {
	Number    int      `json:"version" yaml:"version"`
	Timestamp string   `json:"timestamp" yaml:"timestamp"`
	Hash      string   `json:"hash" yaml:"hash"`
	Metadata  Metadata `json:"metadata" yaml:"metadata"`
}

// Summary returns the display summary of v.
func (v *Version) Summary() Summary {
	return Summary{
		Number:    v.Number,
		Timestamp: v.Timestamp,
		Hash:      v.Hash,
		Metadata:  v.Metadata.Clone(),
	}
}
