package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// ErrBuildExit is returned when the build command exits unsuccessfully.
var ErrBuildExit = errors.New("build exited with failure")

// BuildError is a build that could not run or did not succeed.
type BuildError struct {
	Dir string
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s: %v", e.Dir, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Builder compiles a checkout in place.
type Builder interface {
	Build(ctx context.Context, dir string) error
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, dir string) error

// Build calls f.
func (f BuilderFunc) Build(ctx context.Context, dir string) error {
	return f(ctx, dir)
}

// DefaultBuildCommand builds a checkout with its Makefile.
var DefaultBuildCommand = []string{"make"}

// CommandBuilder runs an external command in the checkout directory.
type CommandBuilder struct {
	Command []string
	Stdout  io.Writer
	Stderr  io.Writer
}

// Build runs the command in dir.
func (b CommandBuilder) Build(ctx context.Context, dir string) error {
	command := b.Command
	if len(command) == 0 {
		command = DefaultBuildCommand
	}

	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = dir
	cmd.Stdout = b.Stdout
	cmd.Stderr = b.Stderr

	if err := cmd.Start(); err != nil {
		return &BuildError{Dir: dir, Err: err}
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &BuildError{Dir: dir, Err: fmt.Errorf("%w: %v", ErrBuildExit, exitErr)}
		}
		return &BuildError{Dir: dir, Err: err}
	}
	return nil
}
