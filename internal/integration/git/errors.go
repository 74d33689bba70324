package git

import (
	"errors"
	"fmt"
)

// Error types for git operations.
var (
	// ErrNotRepository indicates the path is not a git repository.
	ErrNotRepository = errors.New("not a git repository")

	// ErrBranchNotFound indicates the branch was not found.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrRemoteNotFound indicates the remote was not found.
	ErrRemoteNotFound = errors.New("remote not found")

	// ErrObjectNotFound indicates the object id does not resolve.
	ErrObjectNotFound = errors.New("object not found")

	// ErrNoTarget indicates a branch that does not point at a commit.
	ErrNoTarget = errors.New("branch has no target")
)

// Phase names the step of an operation that failed.
type Phase string

// Operation phases.
const (
	PhaseClone  Phase = "clone"
	PhaseOpen   Phase = "open"
	PhaseRemote Phase = "remote"
	PhaseFetch  Phase = "fetch"
	PhaseBranch Phase = "branch"
	PhaseObject Phase = "object"
	PhaseReset  Phase = "reset"
)

// Error is a failed git operation tagged with its phase.
type Error struct {
	Phase Phase
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("git %s: %v", e.Phase, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func phaseError(phase Phase, err error) error {
	return &Error{Phase: phase, Err: err}
}

// IsPhase reports whether err is a git error raised in phase.
func IsPhase(err error, phase Phase) bool {
	var gitErr *Error
	return errors.As(err, &gitErr) && gitErr.Phase == phase
}
