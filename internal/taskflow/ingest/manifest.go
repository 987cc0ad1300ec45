package ingest

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Manifest is the external wire shape described in spec section 6: a
// user-authored document identifying a task's kind/version, its metadata
// (identifiers, contextual identifiers, dependencies, annotations), and an
// opaque spec payload handed to whichever TaskProcessor claims kind+version.
type Manifest struct {
	Kind     string         `yaml:"kind"`
	Version  string         `yaml:"version"`
	Metadata map[string]any `yaml:"metadata"`
	Spec     map[string]any `yaml:"spec"`
}

// DecodeManifestYAML reads a single YAML document from r into a Manifest.
// It performs no schema validation beyond what's needed to find kind and
// version; everything else is handed to taskflow's identifier/dependency
// extraction unchanged.
func DecodeManifestYAML(r io.Reader) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Kind == "" {
		return Manifest{}, fmt.Errorf("decode manifest: missing required field %q", "kind")
	}
	if m.Version == "" {
		return Manifest{}, fmt.Errorf("decode manifest: missing required field %q", "version")
	}
	return m, nil
}

// DecodeManifestsYAML reads every YAML document in r (separated by `---`)
// into a slice of Manifest, for multi-document manifest files.
func DecodeManifestsYAML(r io.Reader) ([]Manifest, error) {
	dec := yaml.NewDecoder(r)
	var manifests []Manifest
	for {
		var m Manifest
		err := dec.Decode(&m)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode manifest: %w", err)
		}
		if m.Kind == "" || m.Version == "" {
			return nil, fmt.Errorf("decode manifest: kind and version are required")
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}
