package helpers

import (
	"testing"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
)

// SetupTestGitRepo initializes a git repository in a temporary directory with
// HEAD pointing at branch and, when origin is non-empty, an "origin" remote.
// Returns the absolute path to the checkout.
func SetupTestGitRepo(t *testing.T, branch, origin string) string {
	t.Helper()
	dir := t.TempDir()
	InitGitRepo(t, dir, branch, origin)
	return dir
}

// InitGitRepo is SetupTestGitRepo for an existing directory.
func InitGitRepo(t *testing.T, dir, branch, origin string) {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))
	if err := repo.Storer.SetReference(head); err != nil {
		t.Fatalf("failed to set HEAD: %v", err)
	}
	if origin == "" {
		return
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{origin}}); err != nil {
		t.Fatalf("failed to create remote: %v", err)
	}
}
