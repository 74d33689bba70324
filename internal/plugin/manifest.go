package plugin

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// ManifestName is the file name of the manifest at the root of a checkout.
const ManifestName = "Manifest"

// DefaultPriority is used when a manifest does not set one.
const DefaultPriority int64 = 0

// Manifest describes a plugin checkout.
//
//	priority = 5
//
//	[dependencies.libnya]
//	git = "https://github.com/Arukana/libnya.git"
type Manifest struct {
	Priority     int64
	Dependencies map[string]Dependency

	// Internal: path of the manifest file
	path string
}

// Dependency is one entry of the dependencies table.
type Dependency struct {
	Git string `toml:"git"`
}

// NamedDependency is a dependency with its table key.
type NamedDependency struct {
	Name string
	Dependency
}

type rawManifest struct {
	Priority     any                   `toml:"priority"`
	Dependencies map[string]Dependency `toml:"dependencies"`
}

// LoadManifest reads and parses the manifest file at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadManifest, &FSError{Op: OpRead, Path: path, Err: err})
	}

	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.path = path
	return m, nil
}

// ParseManifest parses manifest contents.
func ParseManifest(data []byte) (*Manifest, error) {
	var raw rawManifest
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseManifest, err)
	}

	priority, err := parsePriority(raw.Priority)
	if err != nil {
		return nil, err
	}

	return &Manifest{
		Priority:     priority,
		Dependencies: raw.Dependencies,
	}, nil
}

func parsePriority(v any) (int64, error) {
	switch p := v.(type) {
	case nil:
		return DefaultPriority, nil
	case int64:
		return p, nil
	case int:
		return int64(p), nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrParseInteger, p)
	}
}

// Path returns the manifest file path, empty for parsed contents.
func (m *Manifest) Path() string {
	return m.path
}

// SortedDependencies returns the dependencies ordered by name.
func (m *Manifest) SortedDependencies() []NamedDependency {
	out := make([]NamedDependency, 0, len(m.Dependencies))
	for name, dep := range m.Dependencies {
		out = append(out, NamedDependency{Name: name, Dependency: dep})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// String returns a string representation of the manifest.
func (m *Manifest) String() string {
	return "priority " + strconv.FormatInt(m.Priority, 10) + ", " +
		strconv.Itoa(len(m.Dependencies)) + " dependencies"
}
