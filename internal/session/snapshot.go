// Package session owns the client's game session: the in-memory Store that
// every event and user action funnels through, and the small resume hint
// persisted between process restarts.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoSnapshot is returned by Load when no resume hint is stored.
var ErrNoSnapshot = errors.New("no resume snapshot")

// Snapshot is the resume hint written while a game is in progress. It is
// deliberately partial: full state always comes back from the server.
type Snapshot struct {
	PlayerName       string `json:"playerName"`
	RoomCode         string `json:"roomCode"`
	SinglePlayerMode bool   `json:"singlePlayerMode"`
	Score            int    `json:"score"`
	Round            int    `json:"round"`
}

// SnapshotStore persists a Snapshot.
type SnapshotStore interface {
	Save(s *Snapshot) error
	Load() (*Snapshot, error) // returns ErrNoSnapshot if none exists
	Delete() error
	Path() string
	Close() error
}

// Storage backends accepted by OpenSnapshotStore.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// OpenSnapshotStore opens the configured backend inside the data directory.
func OpenSnapshotStore(backend string) (SnapshotStore, error) {
	switch backend {
	case "", BackendFile:
		return NewFileSnapshotStore()
	case BackendSQLite:
		dir, err := ensureDataDir()
		if err != nil {
			return nil, err
		}
		return NewSQLiteSnapshotStore(filepath.Join(dir, "duelword.db"))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// fileStore writes the snapshot as JSON in the XDG data directory.
type fileStore struct {
	path string // full path to resume.json
}

// NewFileSnapshotStore returns a SnapshotStore backed by the XDG data directory.
// Path: $XDG_DATA_HOME/duelword/resume.json or ~/.local/share/duelword/resume.json
func NewFileSnapshotStore() (SnapshotStore, error) {
	dir, err := ensureDataDir()
	if err != nil {
		return nil, err
	}
	return &fileStore{path: filepath.Join(dir, "resume.json")}, nil
}

// DataDir returns the duelword-specific XDG data directory.
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "duelword"), nil
}

func ensureDataDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", fmt.Errorf("resolving data directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	return dir, nil
}

func (f *fileStore) Path() string { return f.path }

func (f *fileStore) Close() error { return nil }

// Save marshals s to JSON and writes it atomically via a temp file + os.Rename.
func (f *fileStore) Save(s *Snapshot) (err error) {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to persist resume snapshot: %w", err)
	}

	// Same directory so os.Rename is atomic.
	tmp, err := os.CreateTemp(filepath.Dir(f.path), "resume-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist resume snapshot: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist resume snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist resume snapshot: %w", err)
	}
	if err = os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to persist resume snapshot: %w", err)
	}
	return nil
}

// Load reads and unmarshals the snapshot file.
// Returns ErrNoSnapshot if the file does not exist.
func (f *fileStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to read resume snapshot: %w", err)
	}

	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse resume snapshot: %w", err)
	}
	return &s, nil
}

// Delete removes the snapshot file from disk.
func (f *fileStore) Delete() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete resume snapshot: %w", err)
	}
	return nil
}
