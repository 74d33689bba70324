// Package git drives the git binary to fetch and refresh plugin checkouts.
//
// Every failure is reported as an *Error tagged with the phase that failed,
// so callers can tell a network problem during fetch from a corrupted
// checkout during open:
//
//	client := git.New()
//
//	repo, err := client.Clone(ctx, "https://github.com/Arukana/libnya.git", dest)
//	if err != nil {
//	    var gitErr *git.Error
//	    if errors.As(err, &gitErr) && gitErr.Phase == git.PhaseClone {
//	        // ...
//	    }
//	}
//
// Refreshing a checkout to the tip of its remote master branch:
//
//	repo, _ := client.Open(dest)
//	remote, _ := repo.Remote(git.DefaultRemote)
//	_ = repo.Fetch(ctx, remote, git.AllBranches)
//	branch, _ := repo.Branch(git.DefaultBranch)
//	object, _ := repo.Object(branch.Hash)
//	_ = repo.ResetHard(object)
package git
