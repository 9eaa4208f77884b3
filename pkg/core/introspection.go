package core

import (
	"github.com/aretw0/introspection"
)

// StoreState exposes internal state for observability.
type StoreState struct {
	Root           string `json:"root" yaml:"root"`
	Documents      int    `json:"documents" yaml:"documents"`
	Versions       int    `json:"versions" yaml:"versions"`
	RepositoryType string `json:"repository_type" yaml:"repository_type"`
	Repository     any    `json:"repository,omitempty" yaml:"repository,omitempty"`
}

// State implements introspection.Introspectable.
func (s *Store) State() any {
	versions := 0
	for _, doc := range s.documents {
		versions += len(doc.Versions)
	}

	state := StoreState{
		Root:           s.root,
		Documents:      len(s.documents),
		Versions:       versions,
		RepositoryType: "repository",
	}
	if comp, ok := s.repo.(introspection.Component); ok {
		state.RepositoryType = comp.ComponentType()
	}
	if in, ok := s.repo.(introspection.Introspectable); ok {
		state.Repository = in.State()
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Store) ComponentType() string {
	return "store"
}

var _ introspection.Introspectable = (*Store)(nil)
var _ introspection.Component = (*Store)(nil)
