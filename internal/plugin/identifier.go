package plugin

import (
	"fmt"
	"strings"
)

// Identifier is the canonical name of a plugin, <account>@<repository>,
// lower-cased. It names both the checkout and the artifact.
type Identifier struct {
	Account    string
	Repository string
}

// ParseIdentifier derives the identifier of a remote URL. Both
// https://host/Account/Repo.git and user@host:Account/Repo.git are accepted,
// as is any local path ending in Account/Repo.git.
func ParseIdentifier(url string) (Identifier, error) {
	if !strings.HasSuffix(url, ".git") {
		return Identifier{}, fmt.Errorf("%q: %w", url, ErrInstallFormat)
	}
	middle := strings.LastIndexByte(url, '/')
	if middle < 0 {
		return Identifier{}, fmt.Errorf("%q: %w", url, ErrInstallFormat)
	}
	left := strings.LastIndexAny(url[:middle], ":/")
	if left < 0 {
		return Identifier{}, fmt.Errorf("%q: %w", url, ErrInstallFormat)
	}

	end := len(url) - len(".git")
	if middle+1 > end {
		return Identifier{}, fmt.Errorf("%q: %w", url, ErrInstallFormat)
	}
	id := Identifier{
		Account:    strings.ToLower(url[left+1 : middle]),
		Repository: strings.ToLower(url[middle+1 : end]),
	}
	if id.Account == "" || id.Repository == "" {
		return Identifier{}, fmt.Errorf("%q: %w", url, ErrInstallFormat)
	}
	return id, nil
}

// String returns <account>@<repository>.
func (id Identifier) String() string {
	return id.Account + "@" + id.Repository
}

// RepositoryOf returns the repository part of a plugin name, or the name
// itself when it carries no account.
func RepositoryOf(name string) string {
	if i := strings.IndexByte(name, '@'); i >= 0 {
		return name[i+1:]
	}
	return name
}
