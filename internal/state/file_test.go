package state

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	s := NewFileStore(path)

	in := map[string]Record{
		"selenium":   {Name: "selenium", PID: 4311, StartedAt: time.Now().UTC().Truncate(time.Second)},
		"playwright": {Name: "playwright", PID: 4312, StartedAt: time.Now().UTC().Truncate(time.Second)},
	}
	if err := s.Save(context.Background(), in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("records = %d", len(out))
	}
	if got := out["selenium"]; got.PID != 4311 || !got.StartedAt.Equal(in["selenium"].StartedAt) {
		t.Fatalf("record mismatch: %+v", got)
	}
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	out, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("missing state file should not error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty table, got %d", len(out))
	}
}

func TestFileStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFileStore(path).Load(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFileStoreFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s := NewFileStore(path)
	if err := s.Save(context.Background(), map[string]Record{
		"selenium": {Name: "selenium", PID: 7, StartedAt: time.Unix(0, 0).UTC()},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("parse: %v", err)
	}
	rec := raw["selenium"]
	for _, key := range []string{"name", "pid", "startTime"} {
		if _, ok := rec[key]; !ok {
			t.Fatalf("persisted record missing %q: %v", key, rec)
		}
	}
}

func TestFileStoreSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "state.json"))
	if err := s.Save(context.Background(), map[string]Record{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "state.json" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}
