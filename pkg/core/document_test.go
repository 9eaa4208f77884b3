package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/docevolve/pkg/core"
)

func TestDocument_New(t *testing.T) {
	doc := core.NewDocument("test.txt", "/path/to/test.txt")

	if doc.Name != "test.txt" || doc.Path != "/path/to/test.txt" {
		t.Errorf("unexpected identity %q %q", doc.Name, doc.Path)
	}
	if doc.CurrentVersion != 0 || len(doc.Versions) != 0 {
		t.Errorf("expected empty history, got %d/%d", doc.CurrentVersion, len(doc.Versions))
	}
	if _, ok := doc.Latest(); ok {
		t.Error("expected no latest version")
	}
}

func TestDocument_AppendVersion(t *testing.T) {
	doc := core.NewDocument("test.txt", "/path/to/test.txt")

	for i := 1; i <= 5; i++ {
		v := doc.AppendVersion(fmt.Sprintf("Version %d content", i), nil)
		if v.Number != i {
			t.Fatalf("expected version %d, got %d", i, v.Number)
		}
		if doc.CurrentVersion != i {
			t.Fatalf("expected current version %d, got %d", i, doc.CurrentVersion)
		}
	}

	for i, v := range doc.Versions {
		if v.Number != i+1 {
			t.Errorf("version at %d has number %d", i, v.Number)
		}
	}
	if err := doc.Validate(true); err != nil {
		t.Errorf("valid history rejected: %v", err)
	}
}

func TestDocument_Version(t *testing.T) {
	doc := core.NewDocument("test.txt", "/path/to/test.txt")
	doc.AppendVersion("Version 1", nil)
	doc.AppendVersion("Version 2", nil)

	t.Run("Existing", func(t *testing.T) {
		v, ok := doc.Version(1)
		if !ok || v.Content != "Version 1" {
			t.Errorf("expected Version 1, got %+v", v)
		}
		v, ok = doc.Version(2)
		if !ok || v.Content != "Version 2" {
			t.Errorf("expected Version 2, got %+v", v)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		for _, n := range []int{0, -1, 3} {
			if _, ok := doc.Version(n); ok {
				t.Errorf("version %d should not exist", n)
			}
		}
	})

	t.Run("Latest", func(t *testing.T) {
		latest, ok := doc.Latest()
		if !ok || latest.Number != 2 || latest.Content != "Version 2" {
			t.Errorf("unexpected latest %+v", latest)
		}
	})
}

func TestDocument_HasChanged(t *testing.T) {
	doc := core.NewDocument("test.txt", "/path/to/test.txt")

	if !doc.HasChanged("Any content") {
		t.Error("empty history must report a change")
	}

	doc.AppendVersion("Original content", nil)

	if doc.HasChanged("Original content") {
		t.Error("same content must not report a change")
	}
	if !doc.HasChanged("Modified content") {
		t.Error("different content must report a change")
	}
	if !doc.HasChanged("Original content\n") {
		t.Error("trailing newline is a change")
	}
}

func TestDocument_Validate(t *testing.T) {
	t.Run("Gap In Numbers", func(t *testing.T) {
		doc := core.NewDocument("a", "/a")
		doc.Versions = []*core.Version{core.NewVersion("x", 1, nil), core.NewVersion("y", 3, nil)}
		doc.CurrentVersion = 2

		if err := doc.Validate(false); !errors.Is(err, core.ErrMalformedState) {
			t.Errorf("expected ErrMalformedState, got %v", err)
		}
	})

	t.Run("Current Version Mismatch", func(t *testing.T) {
		doc := core.NewDocument("a", "/a")
		doc.AppendVersion("x", nil)
		doc.CurrentVersion = 4

		if err := doc.Validate(false); !errors.Is(err, core.ErrMalformedState) {
			t.Errorf("expected ErrMalformedState, got %v", err)
		}
	})

	t.Run("Hash Only Checked When Asked", func(t *testing.T) {
		doc := core.NewDocument("a", "/a")
		v := doc.AppendVersion("x", nil)
		v.Hash = "deadbeef"

		if err := doc.Validate(false); err != nil {
			t.Errorf("hash should be trusted without verification: %v", err)
		}
		if err := doc.Validate(true); !errors.Is(err, core.ErrMalformedState) {
			t.Errorf("expected ErrMalformedState with verification, got %v", err)
		}
	})
}
