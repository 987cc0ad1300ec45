// Package filestate implements state.StatePersistence as a single JSON file
// on disk: read-through on construction, flushed on PersistAll. It backs
// the CLI's default --state-file flag and is grounded on the teacher's
// ports/storage.SessionStore contract, narrowed to this package's
// get/save/persist shape.
package filestate

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/taskflowhq/taskflow/internal/observability/logging"
)

// Store is a JSON-file-backed StatePersistence. All state lives in memory
// between Load and PersistAll; PersistAll is the only point that touches
// disk on the write path.
type Store struct {
	mu     sync.Mutex
	path   string
	data   map[string]map[string]any
	logger logging.Logger
}

// Load opens path, reading any existing JSON object of
// {id: {state...}} shape into memory. A missing file is treated as an
// empty store rather than an error, matching a fresh --state-file's first
// run.
func Load(path string, logger logging.Logger) (*Store, error) {
	s := &Store{path: path, data: make(map[string]map[string]any), logger: logging.OrNop(logger)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, err
	}
	return s, nil
}

// RetrieveAll returns a defensive-copied snapshot of every object's state
// currently in memory.
func (s *Store) RetrieveAll(ctx context.Context) (map[string]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]map[string]any, len(s.data))
	for id, v := range s.data {
		out[id] = cloneMap(v)
	}
	return out, nil
}

// GetObjectState returns a defensive copy of id's in-memory state, or nil
// if none is recorded.
func (s *Store) GetObjectState(id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return cloneMap(s.data[id])
}

// SaveObjectState stores a defensive copy of data under id in memory; the
// change is not written to disk until PersistAll runs.
func (s *Store) SaveObjectState(id string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[id] = cloneMap(data)
}

// PersistAll writes the full in-memory state map to s.path as indented
// JSON, the engine's flush point between TASK_PROCESSING_PRE_START and
// TASK_PROCESSING_POST_DONE.
func (s *Store) PersistAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return err
	}
	s.logger.Debug("filestate: persisted %d object states to %q", len(s.data), s.path)
	return nil
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
