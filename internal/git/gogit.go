package git

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chainguard-dev/clog"
	gogit "github.com/go-git/go-git/v5"
	gogitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
)

// Compile-time check that GoGitClient implements Client.
var _ Client = (*GoGitClient)(nil)

// GoGitClient implements Client in-process using go-git.
type GoGitClient struct {
	repo  Repository
	creds CredentialFunc
}

// NewGoGitClient returns a go-git backed client for repo. A nil creds uses
// RepositoryCredentials.
func NewGoGitClient(repo Repository, creds CredentialFunc) *GoGitClient {
	return &GoGitClient{repo: repo, creds: creds}
}

func (c *GoGitClient) credentials(ctx context.Context) CredentialFunc {
	if c.creds != nil {
		return c.creds
	}
	return RepositoryCredentials(ctx, c.repo)
}

func (c *GoGitClient) auth(ctx context.Context, remoteURL string) (transport.AuthMethod, error) {
	cred, err := resolveCredential(c.credentials(ctx), remoteURL)
	if err != nil {
		return nil, err
	}
	return authMethod(remoteURL, cred), nil
}

func (c *GoGitClient) open() (*gogit.Repository, error) {
	r, err := gogit.PlainOpen(c.repo.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("opening git repository at %s: %w", c.repo.LocalPath, err)
	}
	return r, nil
}

func (c *GoGitClient) IsRepositoryValid(_ context.Context) (bool, error) {
	if c.repo.LocalPath == "" {
		return false, errs.Configuration("local repository path is required")
	}
	_, err := gogit.PlainOpen(c.repo.LocalPath)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gogit.ErrRepositoryNotExists):
		return false, nil
	default:
		return false, fmt.Errorf("opening git repository at %s: %w", c.repo.LocalPath, err)
	}
}

func (c *GoGitClient) Clone(ctx context.Context, opts CloneOptions) error {
	if err := requireRemote(c.repo); err != nil {
		return err
	}
	if valid, err := c.IsRepositoryValid(ctx); err != nil {
		return err
	} else if valid {
		return errs.Operation("clone", "a repository already exists at "+c.repo.LocalPath, gogit.ErrRepositoryAlreadyExists)
	}
	if err := ensureUsableDirectory(c.repo.LocalPath); err != nil {
		return err
	}

	log := clog.FromContext(ctx)
	log.Debugf("Cloning '%s' into '%s'...", c.repo.RemoteURL, c.repo.LocalPath)
	log.Debugf("Clone options: %s", opts)

	auth, err := c.auth(ctx, c.repo.RemoteURL)
	if err != nil {
		return err
	}

	cloneOpts := &gogit.CloneOptions{
		URL:        c.repo.RemoteURL,
		Auth:       auth,
		RemoteName: originRemote,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
	}
	if opts.RecurseSubmodules || c.repo.RecurseSubmodules {
		cloneOpts.RecurseSubmodules = gogit.DefaultSubmoduleRecursionDepth
	}

	if _, err := gogit.PlainCloneContext(ctx, c.repo.LocalPath, false, cloneOpts); err != nil {
		return errs.Operation("clone", "", err)
	}
	return nil
}

func (c *GoGitClient) Update(ctx context.Context, opts UpdateOptions) error {
	valid, err := c.IsRepositoryValid(ctx)
	if err != nil {
		return err
	}
	if !valid {
		if err := ensureUsableDirectory(c.repo.LocalPath); err != nil {
			return err
		}
		clog.FromContext(ctx).Debugf("Repository not found at '%s', cloning...", c.repo.LocalPath)
		return c.Clone(ctx, CloneOptions{Branch: opts.Branch, RecurseSubmodules: opts.RecurseSubmodules})
	}

	log := clog.FromContext(ctx)
	log.Debugf("Using repository at '%s'...", c.repo.LocalPath)
	r, err := c.open()
	if err != nil {
		return err
	}
	wt, err := r.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	if opts.Branch != "" {
		branch, err := c.localBranch(ctx, r, opts.Branch)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			log.Errorf("Branch not found in repository: %v", err)
		case err != nil:
			return err
		default:
			if err := wt.Checkout(&gogit.CheckoutOptions{Branch: branch, Force: true}); err != nil {
				return errs.Operation("checkout "+branch.Short(), "", err)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	remoteURL, err := originURL(r, c.repo.RemoteURL)
	if err != nil {
		return err
	}
	auth, err := c.auth(ctx, remoteURL)
	if err != nil {
		return err
	}

	log.Debugf("Fetching commits from origin...")
	err = r.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: originRemote,
		RemoteURL:  c.repo.RemoteURL,
		RefSpecs:   []gogitconfig.RefSpec{originFetchSpec},
		Auth:       auth,
		Force:      true,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return errs.Operation("fetch origin", "", err)
	}

	target, err := fetchedTip(r)
	if err != nil {
		return err
	}

	log.Debugf("Resetting the index and working tree to FETCH_HEAD (%s)...", target)
	if err := wt.Reset(&gogit.ResetOptions{Commit: target, Mode: gogit.HardReset}); err != nil {
		return errs.Operation("reset --hard", "", err)
	}

	if opts.RecurseSubmodules || c.repo.RecurseSubmodules {
		return c.updateSubmodules(ctx, wt, auth)
	}
	return nil
}

func (c *GoGitClient) updateSubmodules(ctx context.Context, wt *gogit.Worktree, auth transport.AuthMethod) error {
	subs, err := wt.Submodules()
	if err != nil {
		return fmt.Errorf("listing submodules: %w", err)
	}
	err = subs.UpdateContext(ctx, &gogit.SubmoduleUpdateOptions{
		Init:              true,
		RecurseSubmodules: gogit.DefaultSubmoduleRecursionDepth,
		Auth:              auth,
	})
	if err != nil {
		return errs.Operation("submodule update", "", err)
	}
	return nil
}

// localBranch resolves the local branch for name: an existing local branch
// wins; otherwise a new one is created at origin/<name> and set to track it.
// A missing remote-tracking branch yields ErrNotFound.
func (c *GoGitClient) localBranch(ctx context.Context, r *gogit.Repository, name string) (plumbing.ReferenceName, error) {
	log := clog.FromContext(ctx)
	log.Debugf("Finding local branch '%s'...", name)

	local := plumbing.NewBranchReferenceName(name)
	_, err := r.Reference(local, true)
	if err == nil {
		log.Debugf("Using local branch '%s'...", local)
		return local, nil
	}
	if !errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", fmt.Errorf("looking up branch %s: %w", name, err)
	}

	log.Debugf("Local branch not found, finding tracked branch '%s'...", remoteTrackingName(name))
	tracked := plumbing.NewRemoteReferenceName(originRemote, name)
	remoteRef, err := r.Reference(tracked, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return "", errs.NotFound("tracked branch %q not found", remoteTrackingName(name))
	}
	if err != nil {
		return "", fmt.Errorf("looking up branch %s: %w", tracked, err)
	}

	if err := r.Storer.SetReference(plumbing.NewHashReference(local, remoteRef.Hash())); err != nil {
		return "", fmt.Errorf("creating branch %s: %w", name, err)
	}

	log.Debugf("Updating local branch to track remote branch '%s'...", tracked)
	err = r.CreateBranch(&gogitconfig.Branch{Name: name, Remote: originRemote, Merge: local})
	if err != nil && !errors.Is(err, gogit.ErrBranchExists) {
		return "", fmt.Errorf("configuring tracking for %s: %w", name, err)
	}
	return local, nil
}

func (c *GoGitClient) EnumerateRemoteBranches(ctx context.Context) ([]string, error) {
	log := clog.FromContext(ctx)
	log.Debugf("Enumerating remote branches...")

	valid, err := c.IsRepositoryValid(ctx)
	if err != nil {
		return nil, err
	}

	if valid {
		log.Debugf("Repository found at '%s'...", c.repo.LocalPath)
		r, err := c.open()
		if err != nil {
			return nil, err
		}
		remoteURL, err := originURL(r, c.repo.RemoteURL)
		if err != nil {
			return nil, err
		}
		log.Debugf("Using remote: origin, '%s'.", remoteURL)
		remote := gogit.NewRemote(memory.NewStorage(), &gogitconfig.RemoteConfig{
			Name: originRemote,
			URLs: []string{remoteURL},
		})
		return c.listBranches(ctx, remote, remoteURL)
	}

	if err := requireRemote(c.repo); err != nil {
		return nil, err
	}
	log.Debugf("Repository not found at '%s'...", c.repo.LocalPath)

	var branches []string
	err = withScratchRepository(ctx, c.repo.LocalPath, func(dir string) error {
		r, err := gogit.PlainInit(dir, false)
		if err != nil {
			return fmt.Errorf("initializing temporary repository: %w", err)
		}
		remote, err := r.CreateRemote(&gogitconfig.RemoteConfig{
			Name: originRemote,
			URLs: []string{c.repo.RemoteURL},
		})
		if err != nil {
			return fmt.Errorf("configuring temporary remote: %w", err)
		}
		branches, err = c.listBranches(ctx, remote, c.repo.RemoteURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return branches, nil
}

func (c *GoGitClient) listBranches(ctx context.Context, remote *gogit.Remote, remoteURL string) ([]string, error) {
	auth, err := c.auth(ctx, remoteURL)
	if err != nil {
		return nil, err
	}
	refs, err := remote.ListContext(ctx, &gogit.ListOptions{Auth: auth})
	if errors.Is(err, transport.ErrEmptyRemoteRepository) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errs.Operation("ls-remote", "", err)
	}

	remoteRefs := make([]RemoteRef, 0, len(refs))
	for _, ref := range refs {
		remoteRefs = append(remoteRefs, RemoteRef{CanonicalName: ref.Name().String()})
	}
	return BranchNames(remoteRefs), nil
}

func (c *GoGitClient) Tag(ctx context.Context, name string) error {
	if err := validateTagName(name); err != nil {
		return err
	}
	log := clog.FromContext(ctx)
	log.Debugf("Using repository at '%s'...", c.repo.LocalPath)
	r, err := c.open()
	if err != nil {
		return err
	}

	head, err := r.Head()
	if err != nil {
		return errs.Operation("tag "+name, "HEAD does not point to a commit", err)
	}

	log.Debugf("Creating tag '%s'...", name)
	created, err := r.CreateTag(name, head.Hash(), nil)
	if err != nil {
		return errs.Operation("tag "+name, "", err)
	}

	remoteURL, err := originURL(r, c.repo.RemoteURL)
	if err != nil {
		return err
	}
	auth, err := c.auth(ctx, remoteURL)
	if err != nil {
		return err
	}

	log.Debugf("Pushing '%s' to remote 'origin'...", created.Name())
	spec := gogitconfig.RefSpec(created.Name().String() + ":" + created.Name().String())
	err = r.PushContext(ctx, &gogit.PushOptions{
		RemoteName: originRemote,
		RemoteURL:  c.repo.RemoteURL,
		RefSpecs:   []gogitconfig.RefSpec{spec},
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return errs.Operation("push "+created.Name().String(), "", err)
	}
	return nil
}

func (c *GoGitClient) Archive(ctx context.Context, targetDirectory string) error {
	if targetDirectory == "" {
		return errs.Validation("archive target directory is required")
	}
	log := clog.FromContext(ctx)
	log.Debugf("Using repository at '%s'...", c.repo.LocalPath)
	r, err := c.open()
	if err != nil {
		return err
	}

	head, err := r.Head()
	if err != nil {
		return errs.Operation("archive", "HEAD does not point to a commit", err)
	}
	commit, err := r.CommitObject(head.Hash())
	if err != nil {
		return fmt.Errorf("loading commit %s: %w", head.Hash(), err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("loading tree of %s: %w", head.Hash(), err)
	}

	log.Debugf("Archiving HEAD ('%s', commit '%s') to '%s'...", head.Name(), head.Hash(), targetDirectory)
	return writeTree(ctx, tree, targetDirectory)
}

// originFetchSpec mirrors every remote head into refs/remotes/origin/.
var originFetchSpec = gogitconfig.RefSpec("+" + localBranchPrefix + "*:" + remoteTrackingBranchPrefix + originRemote + "/*")

// fetchedTip returns the commit a plain "git fetch origin" records in
// FETCH_HEAD for the checked-out branch: origin/<branch>, falling back to the
// remote's HEAD.
func fetchedTip(r *gogit.Repository) (plumbing.Hash, error) {
	head, err := r.Reference(plumbing.HEAD, false)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("reading HEAD: %w", err)
	}

	candidates := []plumbing.ReferenceName{}
	if head.Type() == plumbing.SymbolicReference && head.Target().IsBranch() {
		candidates = append(candidates, plumbing.NewRemoteReferenceName(originRemote, head.Target().Short()))
	}
	candidates = append(candidates, plumbing.NewRemoteHEADReferenceName(originRemote))

	for _, name := range candidates {
		ref, err := r.Reference(name, true)
		if err == nil {
			return ref.Hash(), nil
		}
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, fmt.Errorf("reading %s: %w", name, err)
		}
	}
	return plumbing.ZeroHash, errs.Operation("reset --hard FETCH_HEAD", "nothing was fetched for the current branch", nil)
}

// originURL returns the configured URL of origin, or fallback when the
// repository has no origin remote.
func originURL(r *gogit.Repository, fallback string) (string, error) {
	if fallback != "" {
		return fallback, nil
	}
	remote, err := r.Remote(originRemote)
	if err != nil {
		return "", errs.Configuration("remote URL is required: %v", err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", errs.Configuration("remote origin has no URL")
	}
	return urls[0], nil
}

// validateTagName rejects names git would read as an option.
func validateTagName(name string) error {
	switch {
	case name == "":
		return errs.Validation("tag name is required")
	case strings.HasPrefix(name, "-"):
		return errs.Validation("tag name %q must not start with '-'", name)
	}
	return nil
}

func requireRemote(repo Repository) error {
	if repo.RemoteURL == "" {
		return errs.Configuration("remote repository URL is required")
	}
	if repo.LocalPath == "" {
		return errs.Configuration("local repository path is required")
	}
	return nil
}
