// Package testutil provides helpers for creating temporary git repositories
// that act as remotes in backend and end-to-end tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TestRepo is a builder for temporary git repositories with controlled
// commits, branches and tags. Its path doubles as a remote URL.
type TestRepo struct {
	t    testing.TB
	path string
	repo *gogit.Repository
	time time.Time
}

// NewTestRepo creates and initializes a new repository, with "main" as the
// initial branch, in a temporary directory.
func NewTestRepo(t testing.TB) *TestRepo {
	t.Helper()
	dir := t.TempDir()

	repo, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{DefaultBranch: plumbing.Main},
	})
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}

	return &TestRepo{
		t:    t,
		path: dir,
		repo: repo,
		time: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Path returns the repository root directory.
func (r *TestRepo) Path() string {
	return r.path
}

// URL returns a remote URL for the repository.
func (r *TestRepo) URL() string {
	return r.path
}

// AddCommit creates a new commit with the given message. A file named after
// the commit time is created to ensure each commit has changes.
// Returns the commit SHA.
func (r *TestRepo) AddCommit(message string) string {
	r.t.Helper()
	return r.AddFile(fmt.Sprintf("file-%d.txt", r.time.Add(time.Minute).Unix()), message, message)
}

// AddFile writes content to name (slash separated, relative to the root),
// stages it and commits. Returns the commit SHA.
func (r *TestRepo) AddFile(name, content, message string) string {
	r.t.Helper()
	path := filepath.Join(r.path, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.t.Fatalf("creating directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		r.t.Fatalf("writing file: %v", err)
	}
	return r.commit(name, message)
}

// AddSymlink creates a symbolic link name pointing at target and commits it.
func (r *TestRepo) AddSymlink(name, target, message string) string {
	r.t.Helper()
	path := filepath.Join(r.path, filepath.FromSlash(name))
	if err := os.Symlink(target, path); err != nil {
		r.t.Fatalf("creating symlink %s: %v", name, err)
	}
	return r.commit(name, message)
}

func (r *TestRepo) commit(name, message string) string {
	r.t.Helper()
	r.time = r.time.Add(time.Minute)

	wt, err := r.repo.Worktree()
	if err != nil {
		r.t.Fatalf("getting worktree: %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		r.t.Fatalf("staging file: %v", err)
	}

	hash, err := wt.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  r.time,
		},
	})
	if err != nil {
		r.t.Fatalf("committing: %v", err)
	}

	return hash.String()
}

// CreateTag creates a lightweight tag pointing at the given SHA.
func (r *TestRepo) CreateTag(name, sha string) {
	r.t.Helper()
	ref := plumbing.NewReferenceFromStrings("refs/tags/"+name, sha)
	if err := r.repo.Storer.SetReference(ref); err != nil {
		r.t.Fatalf("creating tag %s: %v", name, err)
	}
}

// TagSha returns the commit a tag points at, or "" when it does not exist.
func (r *TestRepo) TagSha(name string) string {
	r.t.Helper()
	ref, err := r.repo.Reference(plumbing.NewTagReferenceName(name), true)
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}

// CreateBranch creates a new branch pointing at the given SHA.
func (r *TestRepo) CreateBranch(name, sha string) {
	r.t.Helper()
	ref := plumbing.NewReferenceFromStrings("refs/heads/"+name, sha)
	if err := r.repo.Storer.SetReference(ref); err != nil {
		r.t.Fatalf("creating branch %s: %v", name, err)
	}
}

// BranchSha returns the tip of a branch, or "" when it does not exist.
func (r *TestRepo) BranchSha(name string) string {
	r.t.Helper()
	ref, err := r.repo.Reference(plumbing.NewBranchReferenceName(name), true)
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}

// Checkout switches HEAD to the given branch.
func (r *TestRepo) Checkout(branch string) {
	r.t.Helper()
	wt, err := r.repo.Worktree()
	if err != nil {
		r.t.Fatalf("getting worktree: %v", err)
	}

	err = wt.Checkout(&gogit.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(branch),
	})
	if err != nil {
		r.t.Fatalf("checking out %s: %v", branch, err)
	}
}

// HeadSha returns the current HEAD commit SHA.
func (r *TestRepo) HeadSha() string {
	r.t.Helper()
	head, err := r.repo.Head()
	if err != nil {
		r.t.Fatalf("getting HEAD: %v", err)
	}
	return head.Hash().String()
}

// OpenHeadSha returns the HEAD commit of the repository at path.
func OpenHeadSha(t testing.TB, path string) string {
	t.Helper()
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("getting HEAD of %s: %v", path, err)
	}
	return head.Hash().String()
}

// OpenHeadBranch returns the short name of the branch checked out at path.
func OpenHeadBranch(t testing.TB, path string) string {
	t.Helper()
	repo, err := gogit.PlainOpen(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("getting HEAD of %s: %v", path, err)
	}
	return head.Name().Short()
}

// AppendGitConfig appends raw text to the .git/config of the repository at
// path. It can write sections go-git itself refuses to create.
func AppendGitConfig(t testing.TB, path, text string) {
	t.Helper()
	f, err := os.OpenFile(filepath.Join(path, ".git", "config"), os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("opening git config of %s: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		t.Fatalf("writing git config of %s: %v", path, err)
	}
}
