package fs

import (
	"reflect"
	"strings"
	"testing"

	"github.com/aretw0/docevolve/pkg/core"
)

func sampleDocs() map[string]*core.Document {
	doc := core.NewDocument("notes/test.md", "/vault/notes/test.md")
	doc.AppendVersion("Version 1", core.Metadata{"author": "me", "message": "first"})
	doc.AppendVersion("Line 1\n  indented: yes\n\n<b>&</b> ünïcödé\n", nil)
	doc.AppendVersion("", core.Metadata{"message": "emptied"})
	return map[string]*core.Document{doc.Name: doc}
}

func TestSerializers_RoundTrip(t *testing.T) {
	for ext, s := range DefaultSerializers() {
		t.Run(ext, func(t *testing.T) {
			docs := sampleDocs()

			data, err := s.Encode(encodeState(docs))
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			decoded, err := s.Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			got, err := decodeState(decoded, true)
			if err != nil {
				t.Fatalf("decodeState failed: %v", err)
			}

			want := docs["notes/test.md"]
			doc, ok := got["notes/test.md"]
			if !ok {
				t.Fatalf("document missing after round-trip")
			}
			if doc.Name != want.Name || doc.Path != want.Path || doc.CurrentVersion != want.CurrentVersion {
				t.Errorf("identity mismatch: %+v", doc)
			}
			if len(doc.Versions) != len(want.Versions) {
				t.Fatalf("expected %d versions, got %d", len(want.Versions), len(doc.Versions))
			}
			for i := range want.Versions {
				if !reflect.DeepEqual(doc.Versions[i], want.Versions[i]) {
					t.Errorf("version %d mismatch:\nwant %#v\ngot  %#v", i+1, want.Versions[i], doc.Versions[i])
				}
			}
		})
	}
}

func TestSerializers_RoundTripWhitespace(t *testing.T) {
	contents := []string{"\n", "\n\n", "   ", " \n\t", "\t", "trailing  \n\n\n", "\r\n", "  leading", "- item", "key: value", "#", "null", "~", "\"quoted\"", "'"}

	for ext, s := range DefaultSerializers() {
		t.Run(ext, func(t *testing.T) {
			doc := core.NewDocument("ws.txt", "/vault/ws.txt")
			for _, c := range contents {
				doc.AppendVersion(c, core.Metadata{"message": c})
			}

			data, err := s.Encode(encodeState(map[string]*core.Document{doc.Name: doc}))
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			decoded, err := s.Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			got, err := decodeState(decoded, true)
			if err != nil {
				t.Fatalf("decodeState failed: %v\n%s", err, data)
			}

			versions := got["ws.txt"].Versions
			if len(versions) != len(contents) {
				t.Fatalf("expected %d versions, got %d", len(contents), len(versions))
			}
			for i, c := range contents {
				if versions[i].Content != c {
					t.Errorf("version %d: expected content %q, got %q", i+1, c, versions[i].Content)
				}
				if versions[i].Metadata["message"] != c {
					t.Errorf("version %d: expected message %q, got %q", i+1, c, versions[i].Metadata["message"])
				}
			}
		})
	}
}

func TestJSONSerializer_Layout(t *testing.T) {
	data, err := JSONSerializer{}.Encode(encodeState(sampleDocs()))
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)

	for _, key := range []string{`"documents"`, `"name"`, `"path"`, `"current_version": 3`, `"versions"`, `"version": 1`, `"timestamp"`, `"hash"`, `"metadata"`, `"content"`} {
		if !strings.Contains(s, key) {
			t.Errorf("expected %s in state layout:\n%s", key, s)
		}
	}
	if !strings.Contains(s, "<b>&</b>") {
		t.Errorf("content should not be HTML-escaped")
	}
	if !strings.Contains(s, `"metadata": {}`) {
		t.Errorf("empty metadata should be an empty object, got:\n%s", s)
	}
}

func TestJSONSerializer_DecodesLegacyState(t *testing.T) {
	// Layout written by the earlier tool: naive timestamps, ASCII escapes.
	legacy := `{
  "documents": {
    "test.txt": {
      "name": "test.txt",
      "path": "/tmp/x/test.txt",
      "current_version": 1,
      "versions": [
        {
          "version": 1,
          "timestamp": "2024-05-01T09:30:00.123456",
          "hash": "` + core.Digest("café") + `",
          "metadata": {"message": "Initial"},
          "content": "café"
        }
      ]
    }
  }
}`
	decoded, err := JSONSerializer{}.Decode([]byte(legacy))
	if err != nil {
		t.Fatal(err)
	}
	docs, err := decodeState(decoded, true)
	if err != nil {
		t.Fatal(err)
	}
	v, ok := docs["test.txt"].Latest()
	if !ok || v.Content != "café" || v.Timestamp != "2024-05-01T09:30:00.123456" {
		t.Errorf("unexpected version %+v", v)
	}
	if _, err := v.Time(); err != nil {
		t.Errorf("legacy timestamp should parse: %v", err)
	}
}

func TestDecodeState_Invalid(t *testing.T) {
	t.Run("Name Mismatch", func(t *testing.T) {
		s := stateFile{Documents: map[string]documentRecord{
			"a.txt": {Name: "b.txt", Path: "/b.txt"},
		}}
		if _, err := decodeState(s, false); err == nil {
			t.Error("expected error for mismatched key")
		}
	})

	t.Run("Missing Name Uses Key", func(t *testing.T) {
		s := stateFile{Documents: map[string]documentRecord{
			"a.txt": {Path: "/a.txt"},
		}}
		docs, err := decodeState(s, false)
		if err != nil {
			t.Fatal(err)
		}
		if docs["a.txt"].Name != "a.txt" {
			t.Errorf("expected key as name, got %q", docs["a.txt"].Name)
		}
	})

	t.Run("Nil Metadata Becomes Empty", func(t *testing.T) {
		s := stateFile{Documents: map[string]documentRecord{
			"a.txt": {Name: "a.txt", CurrentVersion: 1, Versions: []versionRecord{
				{Version: 1, Hash: core.Digest("x"), Content: "x"},
			}},
		}}
		docs, err := decodeState(s, true)
		if err != nil {
			t.Fatal(err)
		}
		if docs["a.txt"].Versions[0].Metadata == nil {
			t.Error("metadata should never be nil")
		}
	})
}
