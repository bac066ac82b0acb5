package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/chainguard-dev/clog"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
)

// Compile-time check that ProcessClient implements Client.
var _ Client = (*ProcessClient)(nil)

// DefaultGitExecutable is looked up on PATH.
const DefaultGitExecutable = "git"

// ProcessClient implements Client by running the git executable. Every
// invocation is built from Arguments so logs and error text never contain
// credentials.
type ProcessClient struct {
	repo    Repository
	creds   CredentialFunc
	gitPath string
}

// ProcessOption configures a ProcessClient.
type ProcessOption func(*ProcessClient)

// WithGitExecutable overrides the git executable.
func WithGitExecutable(path string) ProcessOption {
	return func(c *ProcessClient) {
		if path != "" {
			c.gitPath = path
		}
	}
}

// NewProcessClient returns a client driving the git executable for repo. A
// nil creds uses RepositoryCredentials.
func NewProcessClient(repo Repository, creds CredentialFunc, opts ...ProcessOption) *ProcessClient {
	c := &ProcessClient{repo: repo, creds: creds, gitPath: DefaultGitExecutable}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ProcessClient) credentials(ctx context.Context) CredentialFunc {
	if c.creds != nil {
		return c.creds
	}
	return RepositoryCredentials(ctx, c.repo)
}

// run executes git with args in dir. secrets are scrubbed from captured
// stderr in addition to the sensitive arguments.
func (c *ProcessClient) run(ctx context.Context, dir string, args *Arguments, secrets ...string) ([]byte, error) {
	clog.FromContext(ctx).Debugf("Executing: git %s", args.Redacted())

	cmd := exec.CommandContext(ctx, c.gitPath, args.Argv()...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "LC_ALL=C")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		detail := args.Scrub(strings.TrimSpace(stderr.String()))
		for _, s := range secrets {
			if s != "" {
				detail = strings.ReplaceAll(detail, s, hiddenToken)
			}
		}
		op := "git"
		if argv := args.Argv(); len(argv) > 0 {
			op += " " + argv[0]
		}
		return nil, errs.Operation(op, detail, err)
	}
	return stdout.Bytes(), nil
}

// exitCode returns the exit status carried by err, or -1.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func (c *ProcessClient) IsRepositoryValid(ctx context.Context) (bool, error) {
	if c.repo.LocalPath == "" {
		return false, errs.Configuration("local repository path is required")
	}
	exists, _, err := inspectDirectory(c.repo.LocalPath)
	if err != nil || !exists {
		return false, err
	}

	out, err := c.run(ctx, c.repo.LocalPath, NewArguments("rev-parse").Append("--show-toplevel"))
	if err != nil {
		if exitCode(err) == -1 {
			return false, err
		}
		return false, nil
	}
	return samePath(strings.TrimSpace(string(out)), c.repo.LocalPath), nil
}

func samePath(a, b string) bool {
	resolve := func(p string) string {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		if resolved, err := filepath.EvalSymlinks(p); err == nil {
			p = resolved
		}
		return filepath.Clean(p)
	}
	return resolve(a) == resolve(b)
}

func (c *ProcessClient) Clone(ctx context.Context, opts CloneOptions) error {
	if err := requireRemote(c.repo); err != nil {
		return err
	}
	if valid, err := c.IsRepositoryValid(ctx); err != nil {
		return err
	} else if valid {
		return errs.Operation("git clone", "a repository already exists at "+c.repo.LocalPath, nil)
	}
	if err := ensureUsableDirectory(c.repo.LocalPath); err != nil {
		return err
	}

	log := clog.FromContext(ctx)
	log.Debugf("Cloning '%s' into '%s'...", c.repo.RemoteURL, c.repo.LocalPath)
	log.Debugf("Clone options: %s", opts)

	cred, err := resolveCredential(c.credentials(ctx), c.repo.RemoteURL)
	if err != nil {
		return err
	}
	target, err := filepath.Abs(c.repo.LocalPath)
	if err != nil {
		return errs.Configuration("resolving %s: %v", c.repo.LocalPath, err)
	}

	args := NewArguments("clone")
	if opts.Branch != "" {
		args.Append("--branch").AppendQuoted(opts.Branch)
	}
	if opts.RecurseSubmodules || c.repo.RecurseSubmodules {
		args.Append("--recurse-submodules")
	}
	args.Append("--").AppendSensitive(credentialedURL(c.repo.RemoteURL, cred)).AppendQuoted(target)

	if _, err := c.run(ctx, "", args, cred.Password); err != nil {
		return err
	}

	if !cred.IsDefault() {
		// keep the stored origin URL free of credentials
		setURL := NewArguments("remote").Append("set-url").Append(originRemote).AppendQuoted(c.repo.RemoteURL)
		if _, err := c.run(ctx, target, setURL); err != nil {
			return err
		}
	}
	return nil
}

func (c *ProcessClient) Update(ctx context.Context, opts UpdateOptions) error {
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
	dir := c.repo.LocalPath

	if opts.Branch != "" {
		err := c.localBranch(ctx, opts.Branch)
		switch {
		case errors.Is(err, errs.ErrNotFound):
			log.Errorf("Branch not found in repository: %v", err)
		case err != nil:
			return err
		default:
			checkout := NewArguments("checkout").Append("--force").AppendQuoted(opts.Branch)
			if _, err := c.run(ctx, dir, checkout); err != nil {
				return err
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	remoteURL, err := c.originURL(ctx)
	if err != nil {
		return err
	}
	cred, err := resolveCredential(c.credentials(ctx), remoteURL)
	if err != nil {
		return err
	}

	log.Debugf("Fetching commits from origin...")
	fetch := NewArguments("fetch").Append("--force").
		AppendSensitive(credentialedURL(remoteURL, cred)).
		Append(string(originFetchSpec))
	if _, err := c.run(ctx, dir, fetch, cred.Password); err != nil {
		return err
	}

	target, err := c.fetchedTip(ctx)
	if err != nil {
		return err
	}

	log.Debugf("Resetting the index and working tree to FETCH_HEAD (%s)...", target)
	if _, err := c.run(ctx, dir, NewArguments("reset").Append("--hard").Append(target)); err != nil {
		return err
	}

	if opts.RecurseSubmodules || c.repo.RecurseSubmodules {
		submodules := NewArguments("submodule").Append("update").Append("--init").Append("--recursive")
		if _, err := c.run(ctx, dir, submodules); err != nil {
			return err
		}
	}
	return nil
}

// localBranch makes sure a local branch named name exists, creating it from
// origin/<name> with tracking when needed. A missing remote-tracking branch
// yields ErrNotFound.
func (c *ProcessClient) localBranch(ctx context.Context, name string) error {
	log := clog.FromContext(ctx)
	log.Debugf("Finding local branch '%s'...", name)

	ok, err := c.refExists(ctx, localBranchPrefix+name)
	if err != nil || ok {
		return err
	}

	log.Debugf("Local branch not found, finding tracked branch '%s'...", remoteTrackingName(name))
	tracked := remoteTrackingBranchPrefix + remoteTrackingName(name)
	ok, err = c.refExists(ctx, tracked)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound("tracked branch %q not found", remoteTrackingName(name))
	}

	log.Debugf("Updating local branch to track remote branch '%s'...", tracked)
	track := NewArguments("branch").Append("--track").AppendQuoted(name).AppendQuoted(remoteTrackingName(name))
	_, err = c.run(ctx, c.repo.LocalPath, track)
	return err
}

func (c *ProcessClient) refExists(ctx context.Context, ref string) (bool, error) {
	_, err := c.run(ctx, c.repo.LocalPath, NewArguments("show-ref").Append("--verify").Append("--quiet").AppendQuoted(ref))
	if err == nil {
		return true, nil
	}
	if exitCode(err) == 1 {
		return false, nil
	}
	return false, err
}

// fetchedTip resolves origin/<current branch>, falling back to origin/HEAD.
func (c *ProcessClient) fetchedTip(ctx context.Context) (string, error) {
	var candidates []string
	out, err := c.run(ctx, c.repo.LocalPath, NewArguments("symbolic-ref").Append("--quiet").Append("HEAD"))
	if err == nil {
		if branch, ok := (RemoteRef{CanonicalName: strings.TrimSpace(string(out))}).BranchName(); ok {
			candidates = append(candidates, remoteTrackingBranchPrefix+remoteTrackingName(branch))
		}
	} else if exitCode(err) != 1 {
		return "", err
	}
	candidates = append(candidates, remoteTrackingBranchPrefix+remoteTrackingName("HEAD"))

	for _, ref := range candidates {
		sha, ok, err := c.resolveCommit(ctx, c.repo.LocalPath, ref)
		if err != nil {
			return "", err
		}
		if ok {
			return sha, nil
		}
	}
	return "", errs.Operation("reset --hard FETCH_HEAD", "nothing was fetched for the current branch", nil)
}

// resolveCommit resolves rev to a commit id; ok is false when rev does not
// name a commit.
func (c *ProcessClient) resolveCommit(ctx context.Context, dir, rev string) (string, bool, error) {
	out, err := c.run(ctx, dir, NewArguments("rev-parse").Append("--verify").Append("--quiet").AppendQuoted(rev+"^{commit}"))
	if err == nil {
		return strings.TrimSpace(string(out)), true, nil
	}
	if exitCode(err) == 1 || exitCode(err) == 128 {
		return "", false, nil
	}
	return "", false, err
}

// originURL returns RemoteURL, or the URL configured for origin.
func (c *ProcessClient) originURL(ctx context.Context) (string, error) {
	if c.repo.RemoteURL != "" {
		return c.repo.RemoteURL, nil
	}
	// remote get-url falls back to the remote name when no url is set.
	out, err := c.run(ctx, c.repo.LocalPath, NewArguments("config").Append("--get").Append("remote."+originRemote+".url"))
	if err != nil {
		return "", errs.Configuration("remote URL is required: %v", err)
	}
	remoteURL := strings.TrimSpace(string(out))
	if remoteURL == "" {
		return "", errs.Configuration("remote origin has no URL")
	}
	return remoteURL, nil
}

func (c *ProcessClient) EnumerateRemoteBranches(ctx context.Context) ([]string, error) {
	log := clog.FromContext(ctx)
	log.Debugf("Enumerating remote branches...")

	valid, err := c.IsRepositoryValid(ctx)
	if err != nil {
		return nil, err
	}
	if valid {
		log.Debugf("Repository found at '%s'...", c.repo.LocalPath)
		remoteURL, err := c.originURL(ctx)
		if err != nil {
			return nil, err
		}
		log.Debugf("Using remote: origin, '%s'.", remoteURL)
		return c.listBranches(ctx, c.repo.LocalPath, remoteURL)
	}

	if err := requireRemote(c.repo); err != nil {
		return nil, err
	}
	log.Debugf("Repository not found at '%s'...", c.repo.LocalPath)

	var branches []string
	err = withScratchRepository(ctx, c.repo.LocalPath, func(dir string) error {
		if _, err := c.run(ctx, dir, NewArguments("init").Append("--quiet")); err != nil {
			return err
		}
		branches, err = c.listBranches(ctx, dir, c.repo.RemoteURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return branches, nil
}

func (c *ProcessClient) listBranches(ctx context.Context, dir, remoteURL string) ([]string, error) {
	cred, err := resolveCredential(c.credentials(ctx), remoteURL)
	if err != nil {
		return nil, err
	}
	args := NewArguments("ls-remote").Append("--heads").AppendSensitive(credentialedURL(remoteURL, cred))
	out, err := c.run(ctx, dir, args, cred.Password)
	if err != nil {
		return nil, err
	}
	return BranchNames(parseLsRemote(out)), nil
}

// parseLsRemote reads "<sha>\t<ref>" lines.
func parseLsRemote(out []byte) []RemoteRef {
	var refs []RemoteRef
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		_, name, ok := strings.Cut(scanner.Text(), "\t")
		if ok {
			refs = append(refs, RemoteRef{CanonicalName: strings.TrimSpace(name)})
		}
	}
	return refs
}

func (c *ProcessClient) Tag(ctx context.Context, name string) error {
	if err := validateTagName(name); err != nil {
		return err
	}
	log := clog.FromContext(ctx)
	log.Debugf("Using repository at '%s'...", c.repo.LocalPath)
	dir := c.repo.LocalPath

	if _, ok, err := c.resolveCommit(ctx, dir, "HEAD"); err != nil {
		return err
	} else if !ok {
		return errs.Operation("tag "+name, "HEAD does not point to a commit", nil)
	}

	log.Debugf("Creating tag '%s'...", name)
	if _, err := c.run(ctx, dir, NewArguments("tag").Append("--").AppendQuoted(name)); err != nil {
		return err
	}

	remoteURL, err := c.originURL(ctx)
	if err != nil {
		return err
	}
	cred, err := resolveCredential(c.credentials(ctx), remoteURL)
	if err != nil {
		return err
	}

	ref := tagRefPrefix + name
	log.Debugf("Pushing '%s' to remote 'origin'...", ref)
	push := NewArguments("push").AppendSensitive(credentialedURL(remoteURL, cred)).AppendQuoted(ref + ":" + ref)
	_, err = c.run(ctx, dir, push, cred.Password)
	return err
}

func (c *ProcessClient) Archive(ctx context.Context, targetDirectory string) error {
	if targetDirectory == "" {
		return errs.Validation("archive target directory is required")
	}
	log := clog.FromContext(ctx)
	log.Debugf("Using repository at '%s'...", c.repo.LocalPath)

	sha, ok, err := c.resolveCommit(ctx, c.repo.LocalPath, "HEAD")
	if err != nil {
		return err
	}
	if !ok {
		return errs.Operation("archive", "HEAD does not point to a commit", nil)
	}

	log.Debugf("Archiving HEAD (commit '%s') to '%s'...", sha, targetDirectory)
	out, err := c.run(ctx, c.repo.LocalPath, NewArguments("archive").Append("--format=tar").Append(sha))
	if err != nil {
		return err
	}
	return extractTar(ctx, bytes.NewReader(out), targetDirectory)
}
