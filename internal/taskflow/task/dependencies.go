package task

import "github.com/taskflowhq/taskflow/internal/taskflow/identifier"

// extractDependencies reads metadata.dependencies[] (each entry naming an
// identifierType of ManifestName or Label, and a list of {key, value?}
// references) into an ordered slice of Identifier used by the planner to
// expand the dependency graph. Declaration order is preserved; it is the
// tie-break the planner uses within a single task's own dependency list.
func extractDependencies(metadata map[string]any) []identifier.Identifier {
	raw, ok := metadata["dependencies"]
	if !ok {
		return nil
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil
	}

	var deps []identifier.Identifier
	for _, entryRaw := range entries {
		entry, ok := entryRaw.(map[string]any)
		if !ok {
			continue
		}
		depType, hasType := entry["identifierType"].(string)
		refsRaw, hasRefs := entry["identifiers"].([]any)
		if !hasType || !hasRefs {
			continue
		}
		for _, refRaw := range refsRaw {
			ref, ok := refRaw.(map[string]any)
			if !ok {
				continue
			}
			key, ok := ref["key"].(string)
			if !ok {
				continue
			}
			switch depType {
			case identifier.TypeManifestName:
				deps = append(deps, identifier.New(identifier.TypeManifestName, key, nil))
			case identifier.TypeLabel:
				value, _ := ref["value"].(string)
				deps = append(deps, identifier.New(identifier.TypeLabel, key, &value))
			}
		}
	}
	return deps
}
