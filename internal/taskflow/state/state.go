// Package state defines the StatePersistence contract (spec section 3):
// long-term task state, read-through on construction, explicit flush. It is
// grounded on the teacher's ports.SessionStore/ports/storage.SessionStore
// shape (context.Context-first methods, an explicit Save/flush boundary)
// but narrowed to the spec's get/save/persist contract rather than a full
// CRUD session store.
package state

import "context"

// StatePersistence is the abstract long-term state cache an Engine consults
// between TASK_PROCESSING_PRE_START and TASK_PROCESSING_POST_DONE.
// GetObjectState and SaveObjectState both deal in defensive copies so a
// caller can never alias the backing store's internals.
type StatePersistence interface {
	// RetrieveAll loads every known object's state from the backing store.
	// engine.New calls it once while constructing an Engine and fails if it
	// returns an error.
	RetrieveAll(ctx context.Context) (map[string]map[string]any, error)

	// GetObjectState returns a defensive copy of id's stored state, or nil
	// if none is recorded.
	GetObjectState(id string) map[string]any

	// SaveObjectState stores a defensive copy of data under id.
	SaveObjectState(id string, data map[string]any)

	// PersistAll flushes any in-memory changes to the backing store. The
	// engine calls this once for every task a ProcessContext run processes,
	// between that task's TASK_PROCESSING_PRE_START and
	// TASK_PROCESSING_POST_DONE.
	PersistAll(ctx context.Context) error
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
