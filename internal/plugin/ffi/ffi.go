// Package ffi opens native shared objects and binds their exported C symbols
// to typed Go function variables.
//
// The package is deliberately small: an Opener turns a path into an Object,
// and an Object binds symbols by exact name. Callers decide the Go signature
// of each symbol by the type of the function pointer they pass to Bind.
package ffi

import "fmt"

// Opener opens shared objects.
type Opener interface {
	// Open loads the shared object at path. The only failure it reports is
	// the loader refusing the file.
	Open(path string) (Object, error)
}

// Object is one loaded shared object.
type Object interface {
	// Bind resolves the symbol name and stores a callable in fptr, which must
	// be a pointer to a func variable. It reports false, leaving fptr
	// untouched, when the symbol is not exported.
	Bind(name string, fptr any) bool

	// Close releases the OS handle. It must be called exactly once.
	Close() error
}

// LoadError carries the loader diagnostic for a shared object that could
// not be opened.
type LoadError struct {
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s", e.Path, e.Message)
}

// Default returns the platform loader.
func Default() Opener {
	return dlOpener{}
}
