package fs

import (
	"path/filepath"
	"time"

	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path      string     `json:"path" yaml:"path"`
	SystemDir string     `json:"system_dir" yaml:"system_dir"`
	Format    string     `json:"format" yaml:"format"`
	Verify    bool       `json:"verify" yaml:"verify"`
	Documents int        `json:"documents" yaml:"documents"`
	LastLoad  *time.Time `json:"last_load,omitempty" yaml:"last_load,omitempty"`
	LastSave  *time.Time `json:"last_save,omitempty" yaml:"last_save,omitempty"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RepositoryState{
		Path:      r.Path,
		SystemDir: r.config.SystemDir,
		Format:    filepath.Ext(r.Path),
		Verify:    r.config.Verify,
		Documents: r.docCount,
		LastLoad:  r.lastLoad,
		LastSave:  r.lastSave,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "state-file"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
