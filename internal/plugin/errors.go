package plugin

import (
	"errors"
	"fmt"
)

// Plugin system errors.
var (
	// ErrNotFound is returned when no mounted plugin has the requested name.
	ErrNotFound = errors.New("plugin not mounted")

	// ErrInconsistent is returned when a handle located by name cannot be
	// removed from the registry.
	ErrInconsistent = errors.New("plugin registry is inconsistent")

	// ErrLeftOnMount is returned by Mount when the plugin raised the unmount
	// flag from its install or start hook.
	ErrLeftOnMount = errors.New("plugin unmounted itself while starting")

	// ErrInstallFormat is returned when a remote URL does not name an
	// account and a repository.
	ErrInstallFormat = errors.New("remote url is not of the form <host>/<account>/<repository>.git")

	// ErrInstallExists is returned when the checkout of a plugin already exists.
	ErrInstallExists = errors.New("plugin is already installed")

	// ErrReadManifest is returned when the manifest cannot be read.
	ErrReadManifest = errors.New("manifest is unreadable")

	// ErrParseManifest is returned when the manifest is not valid TOML.
	ErrParseManifest = errors.New("manifest is unparsable")

	// ErrParseInteger is returned when the manifest priority is not an integer.
	ErrParseInteger = errors.New("manifest priority is not an integer")
)

// FSError records a failed filesystem operation on a plugin path.
type FSError struct {
	Op   string
	Path string
	Err  error
}

func (e *FSError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FSError) Unwrap() error {
	return e.Err
}

// Filesystem operations reported by FSError.
const (
	OpCreate = "create"
	OpRead   = "read"
	OpRemove = "remove"
	OpRename = "rename"
)
