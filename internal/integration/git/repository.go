package git

import (
	"context"
	"fmt"
	"strings"
)

// Repository is an opened checkout.
type Repository struct {
	client *Client
	path   string
}

// Path returns the repository root path.
func (r *Repository) Path() string {
	return r.path
}

// Object is a resolved git object.
type Object struct {
	// Hash is the full object id.
	Hash string

	// Type is commit, tree, blob or tag.
	Type string
}

// Object resolves hash to an object of the repository.
func (r *Repository) Object(hash string) (*Object, error) {
	if hash == "" {
		return nil, phaseError(PhaseObject, ErrObjectNotFound)
	}

	kind, err := r.git(context.Background(), "cat-file", "-t", hash)
	if err != nil {
		return nil, phaseError(PhaseObject, fmt.Errorf("%s: %w: %v", hash, ErrObjectNotFound, err))
	}

	return &Object{Hash: hash, Type: strings.TrimSpace(kind)}, nil
}

// ResetHard moves the current branch, index and working tree to obj.
func (r *Repository) ResetHard(obj *Object) error {
	if _, err := r.git(context.Background(), "reset", "--hard", "--quiet", obj.Hash); err != nil {
		return phaseError(PhaseReset, err)
	}
	return nil
}

// Head returns the commit id of HEAD.
func (r *Repository) Head() (string, error) {
	out, err := r.git(context.Background(), "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// git executes a git command in the repository.
func (r *Repository) git(ctx context.Context, args ...string) (string, error) {
	return r.client.command(r.path, args...).run(ctx)
}
