// Package loader reads configuration sources into nested maps: TOML files
// and environment variables. Maps from several sources are combined with
// DeepMerge before being decoded into typed configuration.
package loader

import "os"

// Loader is the interface for configuration loaders.
type Loader interface {
	// Load reads configuration from the source and returns a map.
	// Returns nil, nil if the source doesn't exist (not an error).
	Load() (map[string]any, error)
}

// FileSystem reads whole files. Tests substitute an in-memory version.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the real file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the OS file system.
func DefaultFS() FileSystem {
	return OSFS{}
}
