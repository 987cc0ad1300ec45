// Package kvstore implements the process-local scratchpad shared across a
// single Engine.ProcessContext run: hooks and processors read and write it,
// and the dispatcher replaces its own view by value-copy at every boundary.
package kvstore

// Store is a string-keyed map of arbitrary values. Copying a Store value
// still shares its backing map, so a callee holding a copy can write into
// the caller's data; Clone is the explicit copy point that plays the role
// copy.deepcopy(self.store) plays in the source implementation.
type Store struct {
	data map[string]any
}

// New returns an empty Store.
func New() Store {
	return Store{data: make(map[string]any)}
}

// Save sets key to value, last-writer-wins.
func (s *Store) Save(key string, value any) {
	if s.data == nil {
		s.data = make(map[string]any)
	}
	s.data[key] = value
}

// Get returns the value for key and whether it was present.
func (s Store) Get(key string) (any, bool) {
	if s.data == nil {
		return nil, false
	}
	v, ok := s.data[key]
	return v, ok
}

// Has reports whether key is present.
func (s Store) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Len returns the number of keys currently stored.
func (s Store) Len() int {
	return len(s.data)
}

// Clone returns a deep-enough copy of s: a new backing map with the same
// key/value pairs. Values themselves are not recursively cloned (the source
// relies on copy.deepcopy, but taskflow's contract only requires that two
// Store values never share a mutable backing map).
func (s Store) Clone() Store {
	cloned := make(map[string]any, len(s.data))
	for k, v := range s.data {
		cloned[k] = v
	}
	return Store{data: cloned}
}

// Keys returns the store's keys in unspecified order, mainly for
// introspection/debugging and the status API.
func (s Store) Keys() []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys
}
