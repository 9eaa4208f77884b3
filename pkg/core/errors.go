package core

import "errors"

// Error kinds. Callers match them with errors.Is.
var (
	// ErrNotFound is returned when a file, document or version is absent.
	ErrNotFound = errors.New("not found")
	// ErrIO is returned when a path or the state file cannot be read or written.
	ErrIO = errors.New("i/o failure")
	// ErrMalformedState is returned when the state file exists but cannot be parsed
	// or violates the history invariants. It is fatal; nothing is repaired.
	ErrMalformedState = errors.New("malformed state")
	// ErrNotText is returned, wrapped in ErrIO, when a document file is not
	// valid UTF-8.
	ErrNotText = errors.New("not valid UTF-8 text")
)
