package git

import (
	"context"
	"fmt"
	"strings"
)

// Branch is a local branch.
type Branch struct {
	// Name is the short branch name (e.g., "master").
	Name string

	// Ref is the full reference name.
	Ref string

	// Hash is the commit the branch points at.
	Hash string
}

// Branch looks up a local branch and the commit it points at.
func (r *Repository) Branch(name string) (*Branch, error) {
	ref := "refs/heads/" + name

	if _, err := r.git(context.Background(), "show-ref", "--verify", "--quiet", ref); err != nil {
		return nil, phaseError(PhaseBranch, fmt.Errorf("%s: %w", name, ErrBranchNotFound))
	}

	out, err := r.git(context.Background(), "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		return nil, phaseError(PhaseBranch, fmt.Errorf("%s: %w", name, ErrNoTarget))
	}

	return &Branch{
		Name: name,
		Ref:  ref,
		Hash: strings.TrimSpace(out),
	}, nil
}
