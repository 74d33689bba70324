// Package installer fetches, builds and registers plugins from git remotes.
package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/arukana/neko/internal/integration/git"
	"github.com/arukana/neko/internal/plugin"
)

// Installer manages plugin checkouts and artifacts under a registry's layout.
// Every operation runs to completion on the calling goroutine.
type Installer struct {
	registry *plugin.Registry
	layout   plugin.Layout
	git      *git.Client
	builder  Builder
	logger   *logrus.Logger

	remote string
	branch string
}

// Option configures an Installer.
type Option func(*Installer)

// WithGit sets the git client.
func WithGit(client *git.Client) Option {
	return func(i *Installer) {
		i.git = client
	}
}

// WithBuilder sets the builder.
func WithBuilder(b Builder) Option {
	return func(i *Installer) {
		i.builder = b
	}
}

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(i *Installer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithRemote sets the remote updates fetch from.
func WithRemote(name string) Option {
	return func(i *Installer) {
		i.remote = name
	}
}

// WithBranch sets the branch updates reset to.
func WithBranch(name string) Option {
	return func(i *Installer) {
		i.branch = name
	}
}

// New returns an installer mounting into reg.
func New(reg *plugin.Registry, opts ...Option) *Installer {
	i := &Installer{
		registry: reg,
		layout:   reg.Layout(),
		git:      git.New(),
		logger:   logrus.New(),
		remote:   git.DefaultRemote,
		branch:   git.DefaultBranch,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.builder == nil {
		i.builder = CommandBuilder{
			Command: DefaultBuildCommand,
			Stdout:  i.logger.WriterLevel(logrus.DebugLevel),
			Stderr:  i.logger.WriterLevel(logrus.DebugLevel),
		}
	}
	return i
}

// Install clones url, builds and mounts it, then installs or updates every
// dependency its manifest lists. It returns the plugin name.
func (i *Installer) Install(ctx context.Context, url string) (string, error) {
	id, err := plugin.ParseIdentifier(url)
	if err != nil {
		return "", err
	}
	name := id.String()
	log := i.logger.WithFields(logrus.Fields{"plugin": name, "url": url})

	dest := i.layout.Checkout(name)
	if _, err := os.Stat(dest); err == nil {
		return name, fmt.Errorf("%s: %w", name, plugin.ErrInstallExists)
	}
	if err := i.layout.Ensure(); err != nil {
		return name, err
	}

	log.Info("cloning plugin")
	if _, err := i.git.Clone(ctx, url, dest); err != nil {
		return name, err
	}

	if err := i.Build(ctx, name); err != nil {
		return name, err
	}
	if err := i.registry.Mount(name); err != nil {
		return name, err
	}
	log.Info("plugin installed")

	if err := i.dependencies(ctx, name); err != nil {
		return name, err
	}
	return name, nil
}

// dependencies installs the dependencies of name, updating those already
// installed.
func (i *Installer) dependencies(ctx context.Context, name string) error {
	manifest, err := plugin.LoadManifest(i.layout.Manifest(name))
	if err != nil {
		return err
	}

	for _, dep := range manifest.SortedDependencies() {
		id, err := plugin.ParseIdentifier(dep.Git)
		if err != nil {
			return fmt.Errorf("dependency %s: %w", dep.Name, err)
		}

		i.logger.WithFields(logrus.Fields{
			"plugin":     name,
			"dependency": id.String(),
		}).Debug("resolving dependency")

		if i.layout.IsInstalled(id.String()) {
			err = i.Update(ctx, id.String())
		} else {
			_, err = i.Install(ctx, dep.Git)
		}
		if err != nil {
			return fmt.Errorf("dependency %s: %w", dep.Name, err)
		}
	}
	return nil
}

// Update fetches every branch of the remote, hard resets the checkout to
// the tip of the configured branch, then rebuilds and remounts.
func (i *Installer) Update(ctx context.Context, name string) error {
	log := i.logger.WithField("plugin", name)

	repo, err := i.git.Open(i.layout.Checkout(name))
	if err != nil {
		return err
	}
	remote, err := repo.Remote(i.remote)
	if err != nil {
		return err
	}

	log.WithField("remote", remote.FetchURL).Info("fetching plugin")
	if err := repo.Fetch(ctx, remote, git.AllBranches); err != nil {
		return err
	}

	branch, err := repo.Branch(i.branch)
	if err != nil {
		return err
	}
	object, err := repo.Object(branch.Hash)
	if err != nil {
		return err
	}
	if err := repo.ResetHard(object); err != nil {
		return err
	}
	log.WithField("commit", branch.Hash).Debug("checkout reset")

	if err := i.Build(ctx, name); err != nil {
		return err
	}
	if err := i.registry.Mount(name); err != nil {
		return err
	}
	log.Info("plugin updated")
	return nil
}

// Build compiles the checkout of name and moves <repository>.<ext> from the
// checkout root to the artifact directory.
func (i *Installer) Build(ctx context.Context, name string) error {
	dir := i.layout.Checkout(name)
	i.logger.WithField("plugin", name).Info("building plugin")

	if err := i.builder.Build(ctx, dir); err != nil {
		return err
	}

	if err := os.MkdirAll(i.layout.LibDir(), 0o755); err != nil {
		return &plugin.FSError{Op: plugin.OpCreate, Path: i.layout.LibDir(), Err: err}
	}

	src := filepath.Join(dir, plugin.RepositoryOf(name)+"."+plugin.LibExt)
	dst := i.layout.Artifact(name)
	if err := os.Rename(src, dst); err != nil {
		return &plugin.FSError{Op: plugin.OpRename, Path: src, Err: err}
	}
	return nil
}

// Uninstall ends and releases name if it is mounted, then removes its
// artifact and checkout. Both removals are attempted; the first failure is
// returned.
func (i *Installer) Uninstall(name string) error {
	if err := i.registry.Release(name, true); err != nil && !errors.Is(err, plugin.ErrNotFound) {
		return err
	}

	var first error
	artifact := i.layout.Artifact(name)
	if err := os.Remove(artifact); err != nil {
		first = &plugin.FSError{Op: plugin.OpRemove, Path: artifact, Err: err}
	}

	checkout := i.layout.Checkout(name)
	if _, err := os.Stat(checkout); err != nil {
		if first == nil {
			first = &plugin.FSError{Op: plugin.OpRemove, Path: checkout, Err: err}
		}
	} else if err := os.RemoveAll(checkout); err != nil && first == nil {
		first = &plugin.FSError{Op: plugin.OpRemove, Path: checkout, Err: err}
	}

	if first != nil {
		return first
	}
	i.logger.WithField("plugin", name).Info("plugin uninstalled")
	return nil
}
