package task

// keysToLower lower-cases every top-level map key in data, recursing only
// into values that are themselves maps. A list value is kept exactly as
// given — its elements, including any nested maps such as dependency or
// contextual-identifier entries, are never touched. This mirrors the
// reference implementation's keys_to_lower precisely: it is the reason a
// manifest's metadata.dependencies[].identifierType (a list element) still
// reads back in its original case even after metadata as a whole has been
// normalized.
func keysToLower(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		lowerKey := toLower(k)
		if nested, ok := v.(map[string]any); ok {
			out[lowerKey] = keysToLower(nested)
			continue
		}
		out[lowerKey] = v
	}
	return out
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
