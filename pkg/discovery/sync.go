package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/docevolve/pkg/core"
	"github.com/aretw0/docevolve/pkg/policy"
)

// SyncContext is the policy context of a discovery run.
var SyncContext = policy.Context{
	"source": "docd",
	"intent": "docs",
	"repo":   "doc_evolution_system",
}

// Tracker records document versions. *core.Store implements it.
type Tracker interface {
	TrackDocument(ctx context.Context, filePath string, metadata core.Metadata) (*core.Document, error)
}

// Result is the outcome of a discovery run.
type Result struct {
	Blocked  bool      `json:"blocked" yaml:"blocked"`
	Reason   string    `json:"reason,omitempty" yaml:"reason,omitempty"`
	Manifest *Manifest `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	Changes  []Change  `json:"changes,omitempty" yaml:"changes,omitempty"`
	Tracked  []string  `json:"tracked,omitempty" yaml:"tracked,omitempty"`
}

// Syncer runs one discovery cycle.
type Syncer struct {
	Gate     *policy.Gate
	Detector *Detector
	Manifest *ManifestBuilder
	// Tracker is optional. When set, every new document is tracked.
	Tracker Tracker
	Logger  *slog.Logger
}

// Sync is a shortcut for Syncer.Run.
func Sync(ctx context.Context, gate *policy.Gate, detector *Detector, manifest *ManifestBuilder, tracker Tracker) (Result, error) {
	s := &Syncer{Gate: gate, Detector: detector, Manifest: manifest, Tracker: tracker}
	return s.Run(ctx)
}

// Run checks the policy, rebuilds the manifest, detects new index rows and
// tracks the documents written for them.
// A policy denial is not an error: the result is marked Blocked.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	if err := s.Gate.Check(SyncContext); err != nil {
		s.log().Warn("discovery blocked", "reason", err)
		return Result{Blocked: true, Reason: err.Error()}, nil
	}

	var res Result
	if s.Manifest != nil {
		m, err := s.Manifest.Build()
		if err != nil {
			return Result{}, err
		}
		res.Manifest = &m
	}

	changes, err := s.Detector.Detect(ctx)
	if err != nil {
		return Result{}, err
	}
	res.Changes = changes
	s.log().Debug("discovery detected changes", "count", len(changes))

	if s.Tracker == nil {
		return res, nil
	}
	for _, c := range changes {
		doc, err := s.Tracker.TrackDocument(ctx, c.DocPath, core.Metadata{
			"message": fmt.Sprintf("discovered memory %s", c.ID),
			"author":  "docd",
		})
		if err != nil {
			return res, err
		}
		res.Tracked = append(res.Tracked, doc.Name)
	}
	return res, nil
}

func (s *Syncer) log() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}
