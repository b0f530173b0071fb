package state

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps the table as a single JSON document. This is the default
// backend: the state must only survive between short-lived CLI invocations
// on one machine.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path. The parent directory is
// created on first save, not here.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(_ context.Context) (map[string]Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Record{}, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	table := make(map[string]Record)
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	return table, nil
}

// Save writes the table via a temp file and rename. Best effort: rename is
// atomic on POSIX filesystems, but no cross-invocation locking is held.
func (s *FileStore) Save(_ context.Context, table map[string]Record) error {
	if table == nil {
		table = map[string]Record{}
	}
	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
