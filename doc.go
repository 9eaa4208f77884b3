// Package docevolve is the Composition Root for the docevolve library.
//
// It connects the core history model (Domain Layer) with the state file
// adapter (Persistence Layer) using the Hexagonal Architecture pattern.
//
// Philosophy:
//
// docevolve is a lightweight, per-file version tracker. Every time a tracked
// file is recorded, its full content is snapshotted with a SHA-256 hash,
// a timestamp and free-form metadata. Snapshots are never discarded: restoring
// an old version writes it out without rewriting history.
//
// Features:
//
//   - **Hexagonal Architecture**: Core domain is isolated from persistence details.
//   - **Single Snapshot**: The whole store lives in one JSON (or YAML) file under ".doc_evolve/".
//   - **Atomic Saves**: The state file is replaced atomically after every mutation.
//   - **Content Addressing**: Unchanged content never produces a new version.
//   - **Extensible**: Other backends can be plugged in via `core.Repository`.
//
// Usage:
//
//	store, err := docevolve.New("./docs", docevolve.WithLogger(logger))
//
//	// Record the current content of a file
//	doc, err := store.TrackDocument(ctx, "docs/guide.md", docevolve.Metadata{"message": "Initial"})
//
//	// Bring version 1 back
//	_, err = store.RestoreVersion(ctx, "docs/guide.md", 1, "")
package docevolve
