// Package task implements the immutable Task value (spec section 3, 4.2):
// constructed once from (kind, version, spec, metadata), it derives its
// identifiers, dependencies, annotations, checksum and id and exposes the
// matching/scope predicates the engine's planner relies on.
package task

import (
	"fmt"

	"github.com/taskflowhq/taskflow/internal/taskflow/canon"
	"github.com/taskflowhq/taskflow/internal/taskflow/identifier"
	"github.com/taskflowhq/taskflow/internal/taskflow/ingest"
)

// Task is an immutable post-construction value wrapping a manifest's kind,
// version, spec payload, derived identifiers, dependency identifiers,
// annotations, content checksum and id.
type Task struct {
	kind           string
	version        string
	metadata       map[string]any
	spec           map[string]any
	identifiers    identifier.Identifiers
	dependencies   []identifier.Identifier
	annotations    map[string]string
	checksum       string
	id             string
	canBePersisted bool
}

// New constructs a Task from a manifest's kind, version, spec and metadata.
// Identifiers are derived from the raw metadata exactly as supplied — the
// wire schema's "identifiers"/"contextualIdentifiers" keys and everything
// beneath them are mixed-case by convention, and normalization must not run
// before extraction reads them. Only afterwards is metadata (and spec)
// lower-cased for storage on the Task and for extractDependencies/
// extractAnnotations, which read top-level keys the manifest schema already
// writes lowercase ("dependencies", "annotations").
func New(kind, version string, spec, metadata map[string]any) Task {
	rawMetadata := nilToEmpty(metadata)

	ids := ingest.BuildContextualIdentifiers(
		rawMetadata,
		ingest.BuildNonContextualIdentifiers(rawMetadata, identifier.NewIdentifiers()),
	)

	normalizedMetadata := keysToLower(rawMetadata)
	normalizedSpec := keysToLower(nilToEmpty(spec))

	t := Task{
		kind:        kind,
		version:     version,
		metadata:    normalizedMetadata,
		spec:        normalizedSpec,
		identifiers: ids,
		annotations: extractAnnotations(normalizedMetadata),
	}
	t.dependencies = extractDependencies(normalizedMetadata)
	t.checksum = t.calculateChecksum()
	t.id, t.canBePersisted = t.determineID()
	return t
}

func nilToEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// Kind returns the manifest's kind.
func (t Task) Kind() string { return t.kind }

// Version returns the manifest's version.
func (t Task) Version() string { return t.version }

// Metadata returns the normalized (lower-cased keys) metadata map. Callers
// must not mutate the returned map; it is not defensively copied for
// read-heavy hot paths, matching the teacher's convention of documenting
// non-mutation contracts rather than copying on every read
// (ports/tools.GetAttachmentContext is the one place the teacher does copy,
// precisely because that value crosses a goroutine boundary; Task's fields
// do not).
func (t Task) Metadata() map[string]any { return t.metadata }

// Spec returns the normalized (lower-cased keys) opaque spec payload handed
// to the TaskProcessor.
func (t Task) Spec() map[string]any { return t.spec }

// Identifiers returns the task's derived identifier collection.
func (t Task) Identifiers() identifier.Identifiers { return t.identifiers }

// Dependencies returns the ordered dependency identifiers extracted from
// metadata.dependencies.
func (t Task) Dependencies() []identifier.Identifier {
	out := make([]identifier.Identifier, len(t.dependencies))
	copy(out, t.dependencies)
	return out
}

// Annotations returns the free-form annotation map copied from
// metadata.annotations.
func (t Task) Annotations() map[string]string { return t.annotations }

// Checksum returns the SHA-256 hex digest of the canonical JSON of
// {kind, version, metadata?, spec?}, omitting empty sub-objects.
func (t Task) Checksum() string { return t.checksum }

// ID returns the task's identity: the first ManifestName identifier's key
// if one exists, else the checksum.
func (t Task) ID() string { return t.id }

// CanBePersisted reports whether ID() came from a named ManifestName
// identifier (true) or fell back to the content checksum (false).
func (t Task) CanBePersisted() bool { return t.canBePersisted }

func (t Task) calculateChecksum() string {
	data := map[string]any{
		"kind":    t.kind,
		"version": t.version,
	}
	if len(t.metadata) > 0 {
		data["metadata"] = t.metadata
	}
	if len(t.spec) > 0 {
		data["spec"] = t.spec
	}
	digest, err := canon.Sha256Hex(data)
	if err != nil {
		panic(err)
	}
	return digest
}

func (t Task) determineID() (id string, persistable bool) {
	id = t.checksum
	for _, id2 := range t.identifiers.All() {
		if id2.Contexts.Len() > 0 {
			continue
		}
		if id2.Type != identifier.TypeManifestName {
			continue
		}
		if id2.Key == "" {
			continue
		}
		return id2.Key, true
	}
	return id, false
}

func extractAnnotations(metadata map[string]any) map[string]string {
	out := make(map[string]string)
	raw, ok := metadata["annotations"]
	if !ok {
		return out
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return out
	}
	for k, v := range m {
		out[k] = toString(v)
	}
	return out
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
