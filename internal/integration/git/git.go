package git

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Defaults used when refreshing a checkout.
const (
	DefaultRemote = "origin"
	DefaultBranch = "master"

	// AllBranches mirrors every remote branch onto the local branch of the
	// same name.
	AllBranches = "+refs/heads/*:refs/heads/*"
)

// Client runs git commands.
type Client struct {
	binary string
	env    []string
}

// Option configures a Client.
type Option func(*Client)

// WithBinary sets the git executable.
func WithBinary(path string) Option {
	return func(c *Client) {
		c.binary = path
	}
}

// WithEnv appends environment variables to every command.
func WithEnv(env ...string) Option {
	return func(c *Client) {
		c.env = append(c.env, env...)
	}
}

// New creates a client that runs the git found in PATH.
func New(opts ...Option) *Client {
	c := &Client{
		binary: "git",
		// Never block on a credential prompt.
		env: []string{"GIT_TERMINAL_PROMPT=0"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clone clones url into dest and opens the result.
func (c *Client) Clone(ctx context.Context, url, dest string) (*Repository, error) {
	if _, err := c.command("", "clone", "--quiet", "--", url, dest).run(ctx); err != nil {
		return nil, phaseError(PhaseClone, err)
	}
	return &Repository{client: c, path: dest}, nil
}

// Open opens the repository rooted at path.
func (c *Client) Open(path string) (*Repository, error) {
	info, err := os.Stat(filepath.Join(path, ".git"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, phaseError(PhaseOpen, fmt.Errorf("%s: %w", path, ErrNotRepository))
		}
		return nil, phaseError(PhaseOpen, err)
	}
	if !info.IsDir() {
		return nil, phaseError(PhaseOpen, fmt.Errorf("%s: %w", path, ErrNotRepository))
	}

	repo := &Repository{client: c, path: path}
	if _, err := repo.git(context.Background(), "rev-parse", "--git-dir"); err != nil {
		return nil, phaseError(PhaseOpen, err)
	}
	return repo, nil
}

// gitCommand represents a git command to execute.
type gitCommand struct {
	binary string
	env    []string
	dir    string
	args   []string
}

func (c *Client) command(dir string, args ...string) *gitCommand {
	return &gitCommand{binary: c.binary, env: c.env, dir: dir, args: args}
}

// run executes the git command and returns its standard output.
func (c *gitCommand) run(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, c.binary, c.args...)
	if c.dir != "" {
		cmd.Dir = c.dir
	}
	cmd.Env = append(os.Environ(), c.env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git %s: %s", strings.Join(c.args, " "), msg)
	}

	return stdout.String(), nil
}
