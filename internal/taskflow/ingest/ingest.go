// Package ingest implements the two pure functions that lift a manifest's
// metadata into taskflow Identifier values (spec section 4.1), plus a YAML
// decoder for the external manifest wire schema (spec section 6). Decoding
// manifest files is explicitly out of the orchestration core's scope; it
// lives here as a collaborator package the demo CLI uses, the way
// k8s.io/apimachinery's unstructured types let the kubetask controllers
// accept arbitrary YAML without a compiled-in schema.
package ingest

import "github.com/taskflowhq/taskflow/internal/taskflow/identifier"

// BuildNonContextualIdentifiers walks metadata["identifiers"], adding one
// unscoped Identifier per well-formed entry to a copy of seed. Malformed
// entries (missing type/key) are silently skipped, since manifest content
// is caller data the core does not validate beyond what identifier
// extraction needs.
func BuildNonContextualIdentifiers(metadata map[string]any, seed identifier.Identifiers) identifier.Identifiers {
	result := seed.Clone()

	raw, ok := metadata["identifiers"]
	if !ok {
		return result
	}
	entries, ok := raw.([]any)
	if !ok {
		return result
	}

	for _, entryRaw := range entries {
		entry, ok := entryRaw.(map[string]any)
		if !ok {
			continue
		}
		idType, hasType := stringField(entry, "type")
		key, hasKey := stringField(entry, "key")
		if !hasType || !hasKey {
			continue
		}
		value := optionalValue(entry)
		result.Add(identifier.New(idType, key, value))
	}

	return result
}

// BuildContextualIdentifiers walks metadata["contextualIdentifiers"],
// expanding each entry's contexts[] into an identifier.Contexts and adding
// one contextual Identifier per well-formed entry to a copy of seed.
func BuildContextualIdentifiers(metadata map[string]any, seed identifier.Identifiers) identifier.Identifiers {
	result := seed.Clone()

	raw, ok := metadata["contextualIdentifiers"]
	if !ok {
		return result
	}
	entries, ok := raw.([]any)
	if !ok {
		return result
	}

	for _, entryRaw := range entries {
		entry, ok := entryRaw.(map[string]any)
		if !ok {
			continue
		}

		var contexts identifier.Contexts
		if rawContexts, ok := entry["contexts"].([]any); ok {
			for _, ctxRaw := range rawContexts {
				ctx, ok := ctxRaw.(map[string]any)
				if !ok {
					continue
				}
				ctxType, hasType := stringField(ctx, "type")
				names, hasNames := ctx["names"].([]any)
				if !hasType || !hasNames {
					continue
				}
				for _, nameRaw := range names {
					name, ok := nameRaw.(string)
					if !ok {
						continue
					}
					contexts.Add(identifier.Context{Type: ctxType, Name: name})
				}
			}
		}

		idType, hasType := stringField(entry, "type")
		key, hasKey := stringField(entry, "key")
		if !hasType || !hasKey {
			continue
		}
		value := optionalValue(entry)
		result.Add(identifier.NewContextual(idType, key, value, contexts))
	}

	return result
}

func stringField(m map[string]any, key string) (string, bool) {
	raw, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// optionalValue reads "val" or "value" from entry, preferring "value" when
// both are present, matching the source's val/value precedence.
func optionalValue(entry map[string]any) *string {
	var value *string
	if v, ok := stringField(entry, "val"); ok {
		value = &v
	}
	if v, ok := stringField(entry, "value"); ok {
		value = &v
	}
	return value
}
