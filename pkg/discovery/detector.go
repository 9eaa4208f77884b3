// Package discovery turns entries of an external CSV memory index into
// placeholder markdown documents, keeps a manifest of those documents and
// feeds them to the history store.
package discovery

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// DefaultTenant is used for index rows without a tenant_id.
const DefaultTenant = "default"

// ErrUnsafeName is returned when an index id or tenant cannot be used as
// part of a file name inside DocsDir.
var ErrUnsafeName = errors.New("unsafe name in index")

// noPreview is written when a row carries no content_preview.
const noPreview = "(no preview)"

// Change is a newly discovered index entry and the document written for it.
type Change struct {
	ID       string `json:"id" yaml:"id"`
	DocPath  string `json:"doc_path" yaml:"doc_path"`
	TenantID string `json:"tenant_id" yaml:"tenant_id"`
}

// seenState is the detector's own bookkeeping file.
type seenState struct {
	SeenIDs       []string `json:"seen_ids"`
	LastCheckedAt string   `json:"last_checked_at,omitempty"`
}

// Detector discovers new rows of a CSV index.
type Detector struct {
	// IndexPath is the CSV file to read.
	IndexPath string
	// DocsDir receives one "<tenant>_<id>.md" document per new row.
	DocsDir string
	// StatePath stores the ids already seen.
	StatePath string

	now func() time.Time
}

// Detect reads the index and writes a document for every row not seen before.
// A missing index yields no changes. The seen ids are saved only when the
// whole index was processed.
func (d *Detector) Detect(ctx context.Context) ([]Change, error) {
	state := d.loadState()
	seen := make(map[string]struct{}, len(state.SeenIDs))
	for _, id := range state.SeenIDs {
		seen[id] = struct{}{}
	}

	f, err := os.Open(d.IndexPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Change{}, nil
		}
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	defer f.Close()

	if err := os.MkdirAll(d.DocsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create docs dir: %w", err)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return []Change{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.TrimSpace(h)] = i
	}

	changes := []Change{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read index: %w", err)
		}

		row := indexRow{columns: columns, record: record}
		id := row.get("id")
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}

		tenant := row.get("tenant_id")
		if tenant == "" {
			tenant = DefaultTenant
		}
		if !safeName(id) || !safeName(tenant) {
			return nil, fmt.Errorf("%w: id %q, tenant_id %q", ErrUnsafeName, id, tenant)
		}
		seen[id] = struct{}{}
		docPath := filepath.Join(d.DocsDir, fmt.Sprintf("%s_%s.md", tenant, id))
		if err := os.WriteFile(docPath, []byte(d.render(id, tenant, row)), 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", docPath, err)
		}
		changes = append(changes, Change{ID: id, DocPath: docPath, TenantID: tenant})
	}

	state.SeenIDs = make([]string, 0, len(seen))
	for id := range seen {
		state.SeenIDs = append(state.SeenIDs, id)
	}
	slices.Sort(state.SeenIDs)
	state.LastCheckedAt = d.clock().UTC().Format(time.RFC3339Nano)
	if err := d.saveState(state); err != nil {
		return nil, err
	}
	return changes, nil
}

// safeName reports whether s stays a single path element.
func safeName(s string) bool {
	return !strings.ContainsAny(s, `/\`) && !strings.Contains(s, "..") && filepath.Base(s) == s
}

// render builds the placeholder document of one index row.
func (d *Detector) render(id, tenant string, row indexRow) string {
	createdAt := row.get("created_at")
	if createdAt == "" {
		createdAt = d.clock().UTC().Format(time.RFC3339Nano)
	}
	preview := row.get("content_preview")
	if preview == "" {
		preview = noPreview
	}

	lines := []string{
		"# Memory " + id,
		"",
		"- tenant_id: " + tenant,
		"- workspace_id: " + row.get("workspace_id"),
		"- scope: " + row.get("scope"),
		"- agent_id: " + row.get("agent_id"),
		"- source: " + row.get("source"),
		"- created_at: " + createdAt,
		"",
		"## Preview",
		"",
		preview,
	}
	return strings.Join(lines, "\n")
}

func (d *Detector) clock() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now()
}

// loadState reads the seen ids. A missing or unreadable file starts over.
func (d *Detector) loadState() seenState {
	data, err := os.ReadFile(d.StatePath)
	if err != nil {
		return seenState{}
	}
	var s seenState
	if err := json.Unmarshal(data, &s); err != nil {
		return seenState{}
	}
	return s
}

func (d *Detector) saveState(s seenState) error {
	if err := os.MkdirAll(filepath.Dir(d.StatePath), 0755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(d.StatePath, data, 0644); err != nil {
		return fmt.Errorf("failed to save detector state: %w", err)
	}
	return nil
}

// indexRow gives named access to a CSV record.
type indexRow struct {
	columns map[string]int
	record  []string
}

func (r indexRow) get(column string) string {
	i, ok := r.columns[column]
	if !ok || i >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[i])
}
