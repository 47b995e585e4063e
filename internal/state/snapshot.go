package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StateKey is the fixed key the serialized state lives under.
const StateKey = "parkease_state"

// SnapshotStore persists the whole AppState as one record. Load returns
// (nil, nil) when no snapshot exists yet.
type SnapshotStore interface {
	Load() (*AppState, error)
	Save(*AppState) error
	Clear() error
}

// FileSnapshotStore keeps the state as a JSON file. Dates are serialized
// as RFC 3339 strings and come back as time.Time values on load.
type FileSnapshotStore struct {
	path string
}

// NewFileSnapshotStore builds a snapshot store under dir for the given
// key. The key is sanitized so a phone number can be part of it.
func NewFileSnapshotStore(dir, key string) *FileSnapshotStore {
	return &FileSnapshotStore{path: filepath.Join(dir, sanitizeKey(key)+".json")}
}

func (f *FileSnapshotStore) Load() (*AppState, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading state snapshot: %w", err)
	}
	var st AppState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decoding state snapshot: %w", err)
	}
	return &st, nil
}

func (f *FileSnapshotStore) Save(st *AppState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating snapshot dir: %w", err)
	}
	if err := os.WriteFile(f.path, raw, 0o644); err != nil {
		return fmt.Errorf("writing state snapshot: %w", err)
	}
	return nil
}

func (f *FileSnapshotStore) Clear() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing state snapshot: %w", err)
	}
	return nil
}

func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, key)
}
