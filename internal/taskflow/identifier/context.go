// Package identifier implements the typed (context_type, context_name)
// scoping pair, its ordered/de-duplicated collection, and the identifier
// model built on top of them (Identifier / Identifiers). It is a direct Go
// port of the equivalent types in _examples/original_source's Task.py,
// restructured in the teacher's idiom (value receivers where the original
// used object identity, explicit Clone instead of copy.deepcopy).
package identifier

import (
	"fmt"

	"github.com/taskflowhq/taskflow/internal/taskflow/canon"
)

// Context is a typed (type, name) scoping pair, e.g. ("Environment",
// "production") or ("Command", "apply"). Equality is structural on both
// fields.
type Context struct {
	Type string
	Name string
}

// String returns the canonical "<type>:<name>" form.
func (c Context) String() string {
	return fmt.Sprintf("%s:%s", c.Type, c.Name)
}

// Equal reports whether c and other name the same (type, name) pair.
func (c Context) Equal(other Context) bool {
	return c.Type == other.Type && c.Name == other.Name
}

// Contexts is an ordered sequence of Context values with set semantics:
// inserting a duplicate is a no-op. An empty Contexts distinguishes
// "unscoped" from "scoped to everything listed".
type Contexts struct {
	items []Context
}

// NewContexts builds a Contexts from zero or more values, de-duplicating as
// Add would.
func NewContexts(items ...Context) Contexts {
	var cs Contexts
	for _, item := range items {
		cs.Add(item)
	}
	return cs
}

// Add appends c unless an equal Context is already present.
func (cs *Contexts) Add(c Context) {
	for _, existing := range cs.items {
		if existing.Equal(c) {
			return
		}
	}
	cs.items = append(cs.items, c)
}

// IsEmpty reports whether cs has no entries.
func (cs Contexts) IsEmpty() bool {
	return len(cs.items) == 0
}

// Len returns the number of distinct contexts.
func (cs Contexts) Len() int {
	return len(cs.items)
}

// At returns the i'th context in insertion order.
func (cs Contexts) At(i int) Context {
	return cs.items[i]
}

// All returns a copy of the underlying slice, safe for the caller to range
// over without risking aliasing cs's internal storage.
func (cs Contexts) All() []Context {
	out := make([]Context, len(cs.items))
	copy(out, cs.items)
	return out
}

// Contains reports whether target is present in cs.
func (cs Contexts) Contains(target Context) bool {
	for _, existing := range cs.items {
		if existing.Equal(target) {
			return true
		}
	}
	return false
}

// SharesAny reports whether cs and other have at least one Context in
// common.
func (cs Contexts) SharesAny(other Contexts) bool {
	for _, c := range other.items {
		if cs.Contains(c) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of cs.
func (cs Contexts) Clone() Contexts {
	return Contexts{items: append([]Context(nil), cs.items...)}
}

// UniqueID is a SHA-256 content hash of cs's canonical JSON form, computed
// from the current contents on every call so it always reflects the latest
// Add.
func (cs Contexts) UniqueID() string {
	digest, err := canon.Sha256Hex(cs.asAny())
	if err != nil {
		panic(err)
	}
	return digest
}

// asAny renders cs for canonical-JSON hashing.
func (cs Contexts) asAny() any {
	list := make([]any, 0, len(cs.items))
	for _, c := range cs.items {
		list = append(list, map[string]any{
			"ContextType": c.Type,
			"ContextName": c.Name,
		})
	}
	return list
}
