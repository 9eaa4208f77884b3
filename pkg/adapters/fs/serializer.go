package fs

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/docevolve/pkg/core"
)

// versionRecord is the on-disk form of a core.Version.
type versionRecord struct {
	Version   int               `json:"version" yaml:"version"`
	Timestamp string            `json:"timestamp" yaml:"timestamp"`
	Hash      string            `json:"hash" yaml:"hash"`
	Metadata  map[string]text   `json:"metadata" yaml:"metadata"`
	Content   text              `json:"content" yaml:"content"`
}

// text is a string written to YAML as a double-quoted scalar, so values such
// as a lone "\n" read back unchanged.
type text string

func (t text) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Style: yaml.DoubleQuotedStyle, Value: string(t)}, nil
}

// documentRecord is the on-disk form of a core.Document.
type documentRecord struct {
	Name           string          `json:"name" yaml:"name"`
	Path           string          `json:"path" yaml:"path"`
	CurrentVersion int             `json:"current_version" yaml:"current_version"`
	Versions       []versionRecord `json:"versions" yaml:"versions"`
}

// stateFile is the whole persisted snapshot.
type stateFile struct {
	Documents map[string]documentRecord `json:"documents" yaml:"documents"`
}

// Serializer defines how the snapshot is written in a specific file format.
type Serializer interface {
	// Encode converts the snapshot to bytes.
	Encode(s stateFile) ([]byte, error)
	// Decode parses bytes produced by Encode (or a compatible writer).
	Decode(data []byte) (stateFile, error)
}

// DefaultSerializers returns the standard set of serializers keyed by state
// file extension.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		".json": JSONSerializer{},
		".yaml": YAMLSerializer{},
		".yml":  YAMLSerializer{},
	}
}

// --- JSON Serializer ---

// JSONSerializer writes the snapshot as indented JSON.
type JSONSerializer struct{}

func (JSONSerializer) Encode(s stateFile) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	// Document content is stored verbatim; do not rewrite <, > and &.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (JSONSerializer) Decode(data []byte) (stateFile, error) {
	var s stateFile
	if err := json.Unmarshal(data, &s); err != nil {
		return stateFile{}, fmt.Errorf("invalid json: %w", err)
	}
	return s, nil
}

// --- YAML Serializer ---

// YAMLSerializer writes the snapshot as YAML with the same field names.
type YAMLSerializer struct{}

func (YAMLSerializer) Encode(s stateFile) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (YAMLSerializer) Decode(data []byte) (stateFile, error) {
	var s stateFile
	if err := yaml.Unmarshal(data, &s); err != nil {
		return stateFile{}, fmt.Errorf("invalid yaml: %w", err)
	}
	return s, nil
}

// --- Mapping ---

func toVersionRecord(v *core.Version) versionRecord {
	return versionRecord{
		Version:   v.Number,
		Timestamp: v.Timestamp,
		Hash:      v.Hash,
		Metadata:  toTextMap(v.Metadata),
		Content:   text(v.Content),
	}
}

// fromVersionRecord trusts the stored hash and timestamp; they are not recomputed.
func fromVersionRecord(r versionRecord) *core.Version {
	return &core.Version{
		Content:   string(r.Content),
		Number:    r.Version,
		Timestamp: r.Timestamp,
		Hash:      r.Hash,
		Metadata:  fromTextMap(r.Metadata),
	}
}

func toTextMap(m core.Metadata) map[string]text {
	out := make(map[string]text, len(m))
	for k, v := range m {
		out[k] = text(v)
	}
	return out
}

func fromTextMap(m map[string]text) core.Metadata {
	out := make(core.Metadata, len(m))
	for k, v := range m {
		out[k] = string(v)
	}
	return out
}

func toDocumentRecord(d *core.Document) documentRecord {
	rec := documentRecord{
		Name:           d.Name,
		Path:           d.Path,
		CurrentVersion: d.CurrentVersion,
		Versions:       make([]versionRecord, 0, len(d.Versions)),
	}
	for _, v := range d.Versions {
		rec.Versions = append(rec.Versions, toVersionRecord(v))
	}
	return rec
}

func fromDocumentRecord(r documentRecord) *core.Document {
	doc := core.NewDocument(r.Name, r.Path)
	doc.CurrentVersion = r.CurrentVersion
	for _, v := range r.Versions {
		doc.Versions = append(doc.Versions, fromVersionRecord(v))
	}
	return doc
}

// encodeState maps the registry to its on-disk form.
func encodeState(docs map[string]*core.Document) stateFile {
	s := stateFile{Documents: make(map[string]documentRecord, len(docs))}
	for name, doc := range docs {
		s.Documents[name] = toDocumentRecord(doc)
	}
	return s
}

// decodeState maps the on-disk form back and validates the history invariants.
func decodeState(s stateFile, verifyHashes bool) (map[string]*core.Document, error) {
	docs := make(map[string]*core.Document, len(s.Documents))
	for name, rec := range s.Documents {
		if rec.Name == "" {
			rec.Name = name
		}
		if rec.Name != name {
			return nil, fmt.Errorf("%w: document key %q holds document named %q", core.ErrMalformedState, name, rec.Name)
		}
		doc := fromDocumentRecord(rec)
		if err := doc.Validate(verifyHashes); err != nil {
			return nil, err
		}
		docs[name] = doc
	}
	return docs, nil
}
