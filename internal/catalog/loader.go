package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed mappings.yaml
var defaultDocument []byte

// DefaultDocument returns a copy of the embedded catalog document.
func DefaultDocument() []byte {
	out := make([]byte, len(defaultDocument))
	copy(out, defaultDocument)

	return out
}

// LoadFile loads and parses a YAML catalog file from the given path.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a File.
func Parse(data []byte) (*File, error) {
	var f File

	err := yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	applyDefaults(&f)

	return &f, nil
}

// applyDefaults fills in default values and lower-cases state keys.
func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = "1"
	}

	for i := range f.Input {
		in := &f.Input[i]
		if in.Entity == "" {
			in.Entity = EntityTaxUnit
		}

		for j, s := range in.States {
			in.States[j] = strings.ToLower(strings.TrimSpace(s))
		}
	}

	for i := range f.Output {
		out := &f.Output[i]
		if out.Source == "" {
			out.Source = SourceEngine
		}
		for j := range out.Overrides {
			out.Overrides[j].State = strings.ToLower(strings.TrimSpace(out.Overrides[j].State))
		}
	}
}

// Marshal serializes a File to YAML.
func Marshal(f *File) ([]byte, error) {
	return yaml.Marshal(f)
}

// Load parses and compiles a catalog document.
func Load(data []byte, states StateSet) (*Catalog, error) {
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}

	return New(f, states)
}

// LoadPath compiles the catalog at path, or the embedded default when path is empty.
func LoadPath(path string, states StateSet) (*Catalog, error) {
	if path == "" {
		return LoadDefault(states)
	}

	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	return New(f, states)
}

// LoadDefault compiles the embedded catalog.
func LoadDefault(states StateSet) (*Catalog, error) {
	return Load(defaultDocument, states)
}
