package git

import (
	"context"
	"fmt"
	"strings"
)

// Remote represents a git remote.
type Remote struct {
	// Name is the remote name (e.g., "origin").
	Name string

	// FetchURL is the URL used for fetching.
	FetchURL string
}

// Remote looks up a configured remote.
func (r *Repository) Remote(name string) (*Remote, error) {
	url, err := r.git(context.Background(), "remote", "get-url", name)
	if err != nil {
		return nil, phaseError(PhaseRemote, fmt.Errorf("%s: %w: %v", name, ErrRemoteNotFound, err))
	}

	return &Remote{
		Name:     name,
		FetchURL: strings.TrimSpace(url),
	}, nil
}

// Fetch fetches refspecs from remote. Local branches, including the checked
// out one, may be updated in place.
func (r *Repository) Fetch(ctx context.Context, remote *Remote, refspecs ...string) error {
	args := []string{"fetch", "--quiet", "--update-head-ok", remote.Name}
	args = append(args, refspecs...)

	if _, err := r.git(ctx, args...); err != nil {
		return phaseError(PhaseFetch, err)
	}
	return nil
}
