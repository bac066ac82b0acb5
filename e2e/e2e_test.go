// Package e2e contains end-to-end tests that run every git backend against
// the same purpose-built repositories and require identical outcomes.
//
// Each test creates a temporary remote, drives a Client through the public
// factory, and compares what is left on disk: the working copy HEAD, the
// branch, the remote's tags and the exported tree.
package e2e

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/git"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/testutil"
)

var backends = []git.Backend{git.BackendLibrary, git.BackendProcess}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(git.DefaultGitExecutable); err != nil {
		t.Skip("git executable not found on PATH")
	}
}

func newClient(t *testing.T, backend git.Backend, local, remote string) git.Client {
	t.Helper()
	client, err := git.NewClient(git.Repository{LocalPath: local, RemoteURL: remote}, git.Options{Backend: backend})
	require.NoError(t, err)
	return client
}

// newRemote returns a remote with main, feature and release/1.0 branches.
func newRemote(t *testing.T) *testutil.TestRepo {
	t.Helper()
	remote := testutil.NewTestRepo(t)
	remote.AddFile("README.md", "hello\n", "initial commit")
	remote.AddFile("docs/guide.md", "guide\n", "add guide")
	remote.CreateBranch("feature", remote.HeadSha())
	remote.CreateBranch("release/1.0", remote.HeadSha())
	return remote
}

// listTree returns the relative paths of the regular files under dir.
func listTree(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && d.Name() == ".git" {
			return filepath.SkipDir
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	require.NoError(t, err)
	sort.Strings(files)
	return files
}

// outcome is what one backend leaves behind after a scenario.
type outcome struct {
	Valid    bool
	Branch   string
	HeadSha  string
	Branches []string
	Files    []string
}

// eachBackend runs scenario once per backend and requires the outcomes to
// match.
func eachBackend(t *testing.T, scenario func(t *testing.T, backend git.Backend) outcome) {
	t.Helper()
	requireGit(t)
	results := map[git.Backend]outcome{}
	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			results[backend] = scenario(t, backend)
		})
	}
	require.Len(t, results, len(backends))
	require.Equal(t, results[git.BackendLibrary], results[git.BackendProcess])
}

func TestE2E_CloneDefaultBranch(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend git.Backend) outcome {
		ctx := context.Background()
		remote := newRemote(t)
		local := filepath.Join(t.TempDir(), "nested", "clone")
		client := newClient(t, backend, local, remote.URL())

		require.NoError(t, client.Clone(ctx, git.CloneOptions{}))
		valid, err := client.IsRepositoryValid(ctx)
		require.NoError(t, err)
		require.Equal(t, remote.HeadSha(), testutil.OpenHeadSha(t, local))

		return outcome{
			Valid:  valid,
			Branch: testutil.OpenHeadBranch(t, local),
			Files:  listTree(t, local),
		}
	})
}

func TestE2E_CloneBranch(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend git.Backend) outcome {
		ctx := context.Background()
		remote := newRemote(t)
		remote.Checkout("feature")
		remote.AddFile("feature.txt", "wip\n", "feature work")
		remote.Checkout("main")
		local := filepath.Join(t.TempDir(), "clone")

		require.NoError(t, newClient(t, backend, local, remote.URL()).Clone(ctx, git.CloneOptions{Branch: "feature"}))
		require.Equal(t, remote.BranchSha("feature"), testutil.OpenHeadSha(t, local))

		return outcome{
			Branch: testutil.OpenHeadBranch(t, local),
			Files:  listTree(t, local),
		}
	})
}

func TestE2E_EnumerateRemoteBranchesLeavesNoState(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend git.Backend) outcome {
		ctx := context.Background()
		remote := newRemote(t)
		local := filepath.Join(t.TempDir(), "absent")

		branches, err := newClient(t, backend, local, remote.URL()).EnumerateRemoteBranches(ctx)
		require.NoError(t, err)
		require.NoDirExists(t, local)
		sort.Strings(branches)
		return outcome{Branches: branches}
	})
}

func TestE2E_EnumerateRemoteBranchesPrefersRemoteURL(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend git.Backend) outcome {
		ctx := context.Background()
		origin := newRemote(t)
		other := testutil.NewTestRepo(t)
		other.AddFile("README.md", "other\n", "initial commit")
		other.CreateBranch("only-on-other", other.HeadSha())
		local := filepath.Join(t.TempDir(), "clone")
		require.NoError(t, newClient(t, backend, local, origin.URL()).Clone(ctx, git.CloneOptions{}))

		branches, err := newClient(t, backend, local, other.URL()).EnumerateRemoteBranches(ctx)
		require.NoError(t, err)
		sort.Strings(branches)
		return outcome{Branches: branches}
	})
}

func TestE2E_EnumerateRemoteBranchesOriginWithoutURL(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend git.Backend) outcome {
		repo := testutil.NewTestRepo(t)
		repo.AddCommit("initial commit")
		testutil.AppendGitConfig(t, repo.Path(), "[remote \"origin\"]\n\tfetch = +refs/heads/*:refs/remotes/origin/*\n")

		_, err := newClient(t, backend, repo.Path(), "").EnumerateRemoteBranches(context.Background())
		require.ErrorIs(t, err, errs.ErrConfiguration)
		return outcome{Valid: true}
	})
}

func TestE2E_UpdateDiscardsLocalChanges(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend git.Backend) outcome {
		ctx := context.Background()
		remote := newRemote(t)
		local := filepath.Join(t.TempDir(), "clone")
		client := newClient(t, backend, local, remote.URL())
		require.NoError(t, client.Clone(ctx, git.CloneOptions{}))

		require.NoError(t, os.WriteFile(filepath.Join(local, "README.md"), []byte("local edit\n"), 0o644))
		remote.AddFile("CHANGELOG.md", "1.0\n", "changelog")

		require.NoError(t, client.Update(ctx, git.UpdateOptions{}))
		require.Equal(t, remote.HeadSha(), testutil.OpenHeadSha(t, local))
		content, err := os.ReadFile(filepath.Join(local, "README.md"))
		require.NoError(t, err)
		require.Equal(t, "hello\n", string(content))

		return outcome{
			Branch: testutil.OpenHeadBranch(t, local),
			Files:  listTree(t, local),
		}
	})
}

func TestE2E_UpdateSwitchesToTrackingBranch(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend git.Backend) outcome {
		ctx := context.Background()
		remote := newRemote(t)
		local := filepath.Join(t.TempDir(), "clone")
		client := newClient(t, backend, local, remote.URL())
		require.NoError(t, client.Clone(ctx, git.CloneOptions{}))

		remote.Checkout("release/1.0")
		remote.AddFile("VERSION", "1.0.1\n", "bump")
		remote.Checkout("main")

		require.NoError(t, client.Update(ctx, git.UpdateOptions{Branch: "release/1.0"}))
		require.Equal(t, remote.BranchSha("release/1.0"), testutil.OpenHeadSha(t, local))

		return outcome{
			Branch: testutil.OpenHeadBranch(t, local),
			Files:  listTree(t, local),
		}
	})
}

func TestE2E_UpdateUnknownBranchKeepsCurrent(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend git.Backend) outcome {
		ctx := context.Background()
		remote := newRemote(t)
		local := filepath.Join(t.TempDir(), "clone")
		client := newClient(t, backend, local, remote.URL())
		require.NoError(t, client.Clone(ctx, git.CloneOptions{}))
		remote.AddFile("CHANGELOG.md", "1.0\n", "changelog")

		require.NoError(t, client.Update(ctx, git.UpdateOptions{Branch: "no-such-branch"}))
		require.Equal(t, remote.BranchSha("main"), testutil.OpenHeadSha(t, local))

		return outcome{
			Branch: testutil.OpenHeadBranch(t, local),
			Files:  listTree(t, local),
		}
	})
}

func TestE2E_UpdateClonesMissingRepository(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend git.Backend) outcome {
		ctx := context.Background()
		remote := newRemote(t)
		local := filepath.Join(t.TempDir(), "clone")

		require.NoError(t, newClient(t, backend, local, remote.URL()).Update(ctx, git.UpdateOptions{}))
		require.Equal(t, remote.HeadSha(), testutil.OpenHeadSha(t, local))
		return outcome{Valid: true, Files: listTree(t, local)}
	})
}

func TestE2E_TagPushesToRemote(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend git.Backend) outcome {
		ctx := context.Background()
		remote := newRemote(t)
		local := filepath.Join(t.TempDir(), "clone")
		client := newClient(t, backend, local, remote.URL())
		require.NoError(t, client.Clone(ctx, git.CloneOptions{}))

		require.NoError(t, client.Tag(ctx, "v1.0.0"))
		require.Equal(t, remote.HeadSha(), remote.TagSha("v1.0.0"))
		return outcome{}
	})
}

func TestE2E_TagRejectsOptionLikeName(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend git.Backend) outcome {
		ctx := context.Background()
		remote := newRemote(t)
		local := filepath.Join(t.TempDir(), "clone")
		client := newClient(t, backend, local, remote.URL())
		require.NoError(t, client.Clone(ctx, git.CloneOptions{}))

		for _, name := range []string{"-d", "--delete", "-f"} {
			require.ErrorIs(t, client.Tag(ctx, name), errs.ErrValidation, name)
		}
		require.NoError(t, client.Tag(ctx, "v1-rc"))
		require.Equal(t, remote.HeadSha(), remote.TagSha("v1-rc"))
		return outcome{Files: listTree(t, local)}
	})
}

func TestE2E_ArchiveExportsTree(t *testing.T) {
	eachBackend(t, func(t *testing.T, backend git.Backend) outcome {
		ctx := context.Background()
		remote := newRemote(t)
		local := filepath.Join(t.TempDir(), "clone")
		dest := filepath.Join(t.TempDir(), "export")
		client := newClient(t, backend, local, remote.URL())
		require.NoError(t, client.Clone(ctx, git.CloneOptions{}))
		require.NoError(t, os.WriteFile(filepath.Join(local, "untracked.txt"), []byte("x"), 0o644))

		require.NoError(t, client.Archive(ctx, dest))
		require.NoDirExists(t, filepath.Join(dest, ".git"))
		return outcome{Files: listTree(t, dest)}
	})
}
