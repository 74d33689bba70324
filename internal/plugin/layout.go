package plugin

import (
	"errors"
	"os"
	"path/filepath"
)

// RootEnv overrides the managed plugin root.
const RootEnv = "NEKO_PATH"

// Managed directory names.
const (
	rootDir = ".neko"
	gitDir  = "git"
	libDir  = "lib"
)

// Layout locates checkouts and artifacts under a managed root:
//
//	<root>/git/<account>@<repo>/       source checkout, with its Manifest
//	<root>/lib/<account>@<repo>.<ext>  compiled shared object
type Layout struct {
	Root string
}

// DefaultRoot returns $NEKO_PATH, else $HOME/.neko.
func DefaultRoot() (string, error) {
	if root := os.Getenv(RootEnv); root != "" {
		return root, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if home == "" {
		return "", errors.New("home directory is not set")
	}
	return filepath.Join(home, rootDir), nil
}

// DefaultLayout returns the layout rooted at DefaultRoot.
func DefaultLayout() (Layout, error) {
	root, err := DefaultRoot()
	if err != nil {
		return Layout{}, err
	}
	return Layout{Root: root}, nil
}

// GitDir returns the checkout directory.
func (l Layout) GitDir() string {
	return filepath.Join(l.Root, gitDir)
}

// LibDir returns the artifact directory.
func (l Layout) LibDir() string {
	return filepath.Join(l.Root, libDir)
}

// Checkout returns the source checkout of the plugin name.
func (l Layout) Checkout(name string) string {
	return filepath.Join(l.GitDir(), name)
}

// Manifest returns the manifest path of the plugin name.
func (l Layout) Manifest(name string) string {
	return filepath.Join(l.Checkout(name), ManifestName)
}

// Artifact returns the shared object of the plugin name.
func (l Layout) Artifact(name string) string {
	return filepath.Join(l.LibDir(), name+"."+LibExt)
}

// Ensure creates the managed directories.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.GitDir(), l.LibDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &FSError{Op: OpCreate, Path: dir, Err: err}
		}
	}
	return nil
}

// Installed returns the names of every checkout.
func (l Layout) Installed() ([]string, error) {
	entries, err := os.ReadDir(l.GitDir())
	if err != nil {
		return nil, &FSError{Op: OpRead, Path: l.GitDir(), Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// IsInstalled reports whether the checkout of name exists.
func (l Layout) IsInstalled(name string) bool {
	_, err := os.Stat(l.Checkout(name))
	return err == nil
}
