// Package store implements the persistence boundary: on every message or
// operation-state mutation the full snapshot is written to disk as JSON
// via atomic rename, and on startup a previously persisted snapshot
// rehydrates the engine. No schema versioning is attempted.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"polyglot/internal/event"
	"polyglot/internal/logging"
	"polyglot/internal/message"
	"polyglot/internal/opstate"
)

// ErrNotFound is returned by Load when no snapshot has been saved yet.
var ErrNotFound = errors.New("snapshot not found")

const snapshotFile = "state.json"

// Snapshot is the JSON-serializable projection of the whole session.
type Snapshot struct {
	Messages []message.Message                 `json:"messages"`
	States   map[string]opstate.OperationState `json:"states"`
}

// Exporter is the slice of the engine the store needs: the current full
// snapshot on demand.
type Exporter interface {
	Export() ([]message.Message, map[string]opstate.OperationState)
}

// FileStore persists snapshots under a base directory using atomic
// writes. Safe for concurrent use.
type FileStore struct {
	dir string
	mu  sync.Mutex
	log *logging.Logger
}

// NewFileStore creates the directory if needed and returns a FileStore.
func NewFileStore(dir string, logger *logging.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir, log: logger}, nil
}

// Save persists the snapshot atomically.
func (fs *FileStore) Save(snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	return atomicWriteFile(filepath.Join(fs.dir, snapshotFile), data, 0644)
}

// Load reads the persisted snapshot, if any.
func (fs *FileStore) Load() (Snapshot, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(filepath.Join(fs.dir, snapshotFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

// Watch subscribes to the bus and re-saves the full snapshot on every
// message submission and state mutation. Save errors are logged, not
// propagated: persistence must never break a pipeline.
func (fs *FileStore) Watch(bus *event.Bus, src Exporter) {
	save := func(event.Event) {
		msgs, states := src.Export()
		if err := fs.Save(Snapshot{Messages: msgs, States: states}); err != nil {
			fs.log.Error("snapshot save failed", "error", err)
		}
	}
	bus.Subscribe(event.TypeMessageSubmitted, save)
	bus.Subscribe(event.TypeStateChanged, save)
}

// atomicWriteFile writes data to path via a temp file in the same
// directory followed by rename, so readers never observe a partial
// snapshot.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
