package core

import "context"

// Repository defines the contract for persisting the store's registry.
// Adhering to this interface keeps the core independent of the state file
// format (JSON, YAML) and location.
type Repository interface {
	// Initialize ensures the underlying storage is ready (e.g. creates the
	// reserved state directory). It must be idempotent.
	Initialize(ctx context.Context) error

	// Load returns the persisted registry keyed by document name.
	// A missing state yields an empty, non-nil map.
	Load(ctx context.Context) (map[string]*Document, error)

	// Save replaces the persisted registry with docs.
	Save(ctx context.Context, docs map[string]*Document) error
}
