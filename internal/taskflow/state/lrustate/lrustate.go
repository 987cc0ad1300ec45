// Package lrustate implements state.StatePersistence on top of
// hashicorp/golang-lru/v2, for a host that wants a bounded in-memory cache
// of recently-touched task state without standing up a real remote KV
// store. PersistAll is a no-op flush point: a host wiring a real backend in
// its place keeps the same interface.
package lrustate

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/taskflowhq/taskflow/internal/observability/logging"
)

// Store is an LRU-backed StatePersistence. It is safe for concurrent use,
// though the engine itself never calls it concurrently (spec section 5).
type Store struct {
	mu     sync.Mutex
	cache  *lru.Cache[string, map[string]any]
	logger logging.Logger
}

// New builds an lrustate.Store holding at most size entries. A size <= 0
// defaults to 1024, matching the teacher's defensive defaulting style for
// cache construction parameters.
func New(size int, logger logging.Logger) (*Store, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, map[string]any](size)
	if err != nil {
		return nil, err
	}
	return &Store{cache: cache, logger: logging.OrNop(logger)}, nil
}

// RetrieveAll returns a snapshot of every entry currently resident in the
// LRU cache. Entries evicted by capacity pressure are not recoverable,
// which is the explicit tradeoff of choosing a bounded cache over a durable
// backend.
func (s *Store) RetrieveAll(ctx context.Context) (map[string]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]map[string]any, s.cache.Len())
	for _, key := range s.cache.Keys() {
		if v, ok := s.cache.Peek(key); ok {
			out[key] = cloneMap(v)
		}
	}
	return out, nil
}

// GetObjectState returns a defensive copy of id's cached state, or nil if
// absent or evicted.
func (s *Store) GetObjectState(id string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.cache.Get(id)
	if !ok {
		return nil
	}
	return cloneMap(v)
}

// SaveObjectState stores a defensive copy of data under id, evicting the
// least-recently-used entry if the cache is at capacity.
func (s *Store) SaveObjectState(id string, data map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Add(id, cloneMap(data))
}

// PersistAll is a no-op for the in-memory cache; it exists so a host can
// swap this implementation for a durable one without changing call sites.
func (s *Store) PersistAll(ctx context.Context) error {
	s.logger.Debug("lrustate: persist_all_state no-op flush point reached (%d entries cached)", s.cache.Len())
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
