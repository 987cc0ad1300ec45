package task

import "github.com/taskflowhq/taskflow/internal/taskflow/identifier"

// MatchName reports whether t carries an unscoped (or context-matching)
// ManifestName identifier equal to name.
func (t Task) MatchName(name string) bool {
	return t.identifiers.MatchesAnyContext(identifier.TypeManifestName, name, nil, identifier.Contexts{})
}

// MatchLabel reports whether t carries a Label identifier equal to
// (key, value).
func (t Task) MatchLabel(key, value string) bool {
	return t.identifiers.MatchesAnyContext(identifier.TypeLabel, key, &value, identifier.Contexts{})
}

// QualifiesForProcessing governs scope filtering (spec section 4.3). target
// must be an ExecutionScope/"processing" identifier carrying Command and
// Environment contexts; any other target always qualifies (no scope filter
// in effect). Exclusion dominates inclusion: a task matched by both an
// EXCLUDE and an INCLUDE rule for the same target is excluded.
func (t Task) QualifiesForProcessing(target identifier.Identifier) bool {
	if target.Type != identifier.TypeExecutionScope || target.Key != "processing" {
		return true
	}

	var targetCommand, targetEnvironment string
	for _, ctx := range target.Contexts.All() {
		switch ctx.Type {
		case "Command":
			targetCommand = ctx.Name
		case "Environment":
			targetEnvironment = ctx.Name
		}
	}

	qualifies := true
	requireCommand, requireEnvironment := false, false
	var requiredCommands, requiredEnvironments []string

	for _, candidate := range t.identifiers.All() {
		if candidate.Type != identifier.TypeExecutionScope {
			continue
		}
		switch candidate.Key {
		case identifier.ScopeExclude:
			for _, ctx := range candidate.Contexts.All() {
				if ctx.Type == "Command" && ctx.Name == targetCommand {
					qualifies = false
				}
				if ctx.Type == "Environment" && ctx.Name == targetEnvironment {
					qualifies = false
				}
			}
		case identifier.ScopeInclude:
			for _, ctx := range candidate.Contexts.All() {
				if ctx.Type == "Command" {
					requireCommand = true
					requiredCommands = append(requiredCommands, ctx.Name)
				}
				if ctx.Type == "Environment" {
					requireEnvironment = true
					requiredEnvironments = append(requiredEnvironments, ctx.Name)
				}
			}
		}
	}

	if qualifies && requireCommand && len(requiredCommands) > 0 && !contains(requiredCommands, targetCommand) {
		qualifies = false
	}
	if qualifies && requireEnvironment && len(requiredEnvironments) > 0 && !contains(requiredEnvironments, targetEnvironment) {
		qualifies = false
	}

	return qualifies
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// MatchNameOrLabelIdentifier reports whether id (a ManifestName or Label
// identifier, possibly contextual, or a processing-scope ExecutionScope
// identifier) matches t. A processing-scope id delegates to
// QualifiesForProcessing; any other non-ManifestName/Label type never
// matches.
func (t Task) MatchNameOrLabelIdentifier(id identifier.Identifier) bool {
	if id.Type == identifier.TypeExecutionScope && id.Key == "processing" {
		return t.QualifiesForProcessing(id)
	}
	if id.Type != identifier.TypeManifestName && id.Type != identifier.TypeLabel {
		return false
	}

	// NOTE: this mirrors the source's match_name_or_label_identifier
	// exactly, including its quirk of returning on the FIRST non-scope
	// identifier it considers when the query id is non-contextual — it
	// does not keep scanning for a later match. Open question in spec
	// section 9 says not to guess intent beyond the source; preserved as
	// observed in _examples/original_source.
	for _, taskIdentifier := range t.identifiers.All() {
		if taskIdentifier.Type == identifier.TypeExecutionScope && taskIdentifier.Key == "processing" {
			continue
		}

		basicMatch := false
		switch taskIdentifier.Type {
		case identifier.TypeManifestName:
			basicMatch = taskIdentifier.Key == id.Key
		case identifier.TypeLabel:
			basicMatch = taskIdentifier.Key == id.Key && valueEqual(taskIdentifier.Value, id.Value)
		}

		if id.Contexts.Len() == 0 {
			return basicMatch
		}

		if basicMatch {
			for _, taskCtx := range taskIdentifier.Contexts.All() {
				for _, idCtx := range id.Contexts.All() {
					if idCtx.Equal(taskCtx) {
						return true
					}
				}
			}
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
