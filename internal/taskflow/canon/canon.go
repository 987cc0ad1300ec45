// Package canon provides the deterministic JSON encoding used for content
// hashes across taskflow: identifier unique IDs and the task checksum.
// Implementers of the content-hash invariants in spec section 3 must route
// through MarshalSorted so two semantically equal values always hash the
// same way regardless of map iteration order.
package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
)

// MarshalSorted encodes v as JSON with object keys sorted lexicographically
// at every nesting level, so the result is stable across map iterations.
func MarshalSorted(v any) ([]byte, error) {
	normalized := normalize(v)
	return json.Marshal(normalized)
}

// Sha256Hex returns the lowercase hex SHA-256 digest of MarshalSorted(v).
func Sha256Hex(v any) (string, error) {
	encoded, err := MarshalSorted(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// normalize walks v (as produced by json.Marshal-compatible values, or raw
// Go maps/slices) and turns every map[string]any into an orderedMap whose
// MarshalJSON emits keys in sorted order.
func normalize(v any) any {
	switch value := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]pair, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, pair{key: k, value: normalize(value[k])})
		}
		return orderedMap(pairs)
	case []any:
		out := make([]any, len(value))
		for i, elem := range value {
			out[i] = normalize(elem)
		}
		return out
	default:
		return value
	}
}

type pair struct {
	key   string
	value any
}

type orderedMap []pair

func (m orderedMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(p.key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := json.Marshal(p.value)
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
