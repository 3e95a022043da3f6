package authz

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Persister loads and saves the authorization state. Load returns
// (nil, nil) when nothing has been persisted yet. Save must finish with the
// state before returning; the store reuses its maps across calls.
type Persister interface {
	Load() (*State, error)
	Save(*State) error
}

// FileStore persists the state as one indented JSON document. Writes go
// through a temp file and rename so a crash mid-save cannot truncate the
// previous document.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore and ensures its directory exists.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("rules store: mkdir %s: %w", dir, err)
		}
	}
	return &FileStore{path: path}, nil
}

func (f *FileStore) Load() (*State, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("rules store: read: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("rules store: unmarshal: %w", err)
	}
	return &st, nil
}

func (f *FileStore) Save(st *State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("rules store: marshal: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("rules store: write: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("rules store: rename: %w", err)
	}
	return nil
}
