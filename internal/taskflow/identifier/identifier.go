package identifier

import "github.com/taskflowhq/taskflow/internal/taskflow/canon"

// Closed set of identifier types with first-class engine semantics. Any
// other string is an opaque, processor-private identifier type and is
// forwarded untouched (spec section 3 / design note in section 9: a sum
// type with a catch-all variant, implemented here as plain string constants
// rather than a Go interface hierarchy so callers can still declare their
// own processor-private types).
const (
	TypeManifestName   = "ManifestName"
	TypeLabel          = "Label"
	TypeExecutionScope = "ExecutionScope"
)

// ExecutionScope identifier keys.
const (
	ScopeInclude = "INCLUDE"
	ScopeExclude = "EXCLUDE"
)

// Identifier is a typed (type, key, value?, contexts) tuple used both for
// task selection and dependency expression.
type Identifier struct {
	Type     string
	Key      string
	Value    *string
	Contexts Contexts
}

// New builds an unscoped Identifier (no contexts).
func New(identifierType, key string, value *string) Identifier {
	return Identifier{Type: identifierType, Key: key, Value: value}
}

// NewContextual builds an Identifier scoped to the given contexts.
func NewContextual(identifierType, key string, value *string, contexts Contexts) Identifier {
	return Identifier{Type: identifierType, Key: key, Value: value, Contexts: contexts}
}

// IsContextual reports whether id carries at least one Context.
func (id Identifier) IsContextual() bool {
	return id.Contexts.Len() > 0
}

// UniqueID is a content hash of (Type, Key, Value?, Contexts), used for
// de-duplication on insert into an Identifiers collection. It mirrors the
// source's Identifier._calc_unique_id.
func (id Identifier) UniqueID() string {
	data := map[string]any{
		"IdentifierType":     id.Type,
		"IdentifierKey":      id.Key,
		"IdentifierContexts": id.Contexts.asAny(),
	}
	if id.Value != nil {
		data["IdentifierValue"] = *id.Value
	}
	digest, err := canon.Sha256Hex(data)
	if err != nil {
		// canon.MarshalSorted only fails on unsupported Go types, which
		// cannot occur for the map literal built above.
		panic(err)
	}
	return digest
}

// MatchesAnyContext reports whether id has the same (type, key, value) as
// the query and is either unscoped or shares at least one context with
// targetContexts.
func (id Identifier) MatchesAnyContext(identifierType, key string, value *string, targetContexts Contexts) bool {
	if id.Type != identifierType || id.Key != key || !valueEqual(id.Value, value) {
		return false
	}
	if id.Contexts.IsEmpty() {
		return true
	}
	for _, target := range targetContexts.All() {
		if id.Contexts.Contains(target) {
			return true
		}
	}
	return false
}

// Equal implements the source's Identifier.__eq__: same type, same key,
// same value; contexts match if both are empty or at least one context of
// other is contained in id.
func (id Identifier) Equal(other Identifier) bool {
	if id.Type != other.Type || id.Key != other.Key || !valueEqual(id.Value, other.Value) {
		return false
	}
	if id.Contexts.IsEmpty() && other.Contexts.IsEmpty() {
		return true
	}
	for _, c := range other.Contexts.All() {
		if id.Contexts.Contains(c) {
			return true
		}
	}
	return false
}

func valueEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Clone returns an independent copy of id.
func (id Identifier) Clone() Identifier {
	cloned := id
	cloned.Contexts = id.Contexts.Clone()
	if id.Value != nil {
		v := *id.Value
		cloned.Value = &v
	}
	return cloned
}
