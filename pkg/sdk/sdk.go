// Package sdk provides a public Go API for keeping git working copies, GitHub
// releases and GitLab milestones and issues in a declared state.
//
// Basic usage:
//
//	client, err := sdk.NewGitClient(sdk.GitOptions{
//	    Path:   "/srv/checkout/widgets",
//	    Remote: "https://github.com/acme/widgets.git",
//	})
//	err = client.Update(ctx, sdk.UpdateOptions{Branch: "main"})
//
//	action, err := sdk.EnsureRelease(ctx, sdk.GitHubOptions{
//	    Token: os.Getenv("GITHUB_TOKEN"),
//	}, sdk.ReleaseOptions{
//	    Owner: "acme", Repo: "widgets", Tag: "v1.2.0", Title: "Widgets 1.2.0",
//	})
//	fmt.Println(action) // "created"
package sdk

import (
	"context"
	"errors"
	"fmt"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/git"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"

	ghprovider "github.com/MyCarrier-DevOps/go-gitconverge/internal/github"
	glprovider "github.com/MyCarrier-DevOps/go-gitconverge/internal/gitlab"
)

type (
	// GitClient performs the working copy operations of one repository.
	GitClient = git.Client
	// CloneOptions configures GitClient.Clone.
	CloneOptions = git.CloneOptions
	// UpdateOptions configures GitClient.Update.
	UpdateOptions = git.UpdateOptions

	// Action reports what a reconcile call did: created, updated, closed,
	// reopened or unchanged.
	Action = reconcile.Action
	// ReleaseState is the current state of a release.
	ReleaseState = reconcile.ReleaseState
	// Version is a milestone reduced to its title and closed flag.
	Version = reconcile.IssueTrackerVersion
	// Issue is a tracker issue.
	Issue = reconcile.Issue
)

// Action values.
const (
	ActionCreated   = reconcile.ActionCreated
	ActionUpdated   = reconcile.ActionUpdated
	ActionClosed    = reconcile.ActionClosed
	ActionReopened  = reconcile.ActionReopened
	ActionUnchanged = reconcile.ActionUnchanged
)

// GitOptions selects the repository and the backend used to operate on it.
type GitOptions struct {
	// Path is the local working copy. Defaults to "." if empty.
	Path string

	// Remote is the URL of origin. Required for Clone and for listing
	// branches without a working copy.
	Remote string

	// Username and Password authenticate against Remote. The password is
	// never logged.
	Username string
	Password string

	// RecurseSubmodules makes Clone and Update initialize submodules.
	RecurseSubmodules bool

	// Backend is "library" (default, in-process) or "process" (git executable).
	Backend string

	// GitExecutable is the git binary used by the process backend.
	// Defaults to "git".
	GitExecutable string
}

// NewGitClient returns the GitClient selected by opts.Backend.
func NewGitClient(opts GitOptions) (GitClient, error) {
	path := opts.Path
	if path == "" {
		path = "."
	}
	return git.NewClient(git.Repository{
		LocalPath:         path,
		RemoteURL:         opts.Remote,
		UserName:          opts.Username,
		Password:          opts.Password,
		RecurseSubmodules: opts.RecurseSubmodules,
	}, git.Options{
		Backend:       git.Backend(opts.Backend),
		GitExecutable: opts.GitExecutable,
	})
}

// GitHubOptions authenticates against the GitHub API. Empty fields fall back
// to GITHUB_TOKEN, GITHUB_API_URL, GH_APP_ID and GH_APP_PRIVATE_KEY.
type GitHubOptions struct {
	// Token is a GitHub personal access token or GITHUB_TOKEN.
	Token string

	// AppID is the GitHub App ID for app authentication.
	AppID int64

	// AppKeyPath is the path to a GitHub App private key PEM file.
	AppKeyPath string

	// BaseURL is a custom GitHub API base URL for GitHub Enterprise.
	BaseURL string
}

// ReleaseOptions is the desired state of one release.
type ReleaseOptions struct {
	// Owner and Repo name the repository (required).
	Owner string
	Repo  string

	// Tag identifies the release (required).
	Tag string

	// Target is the commitish the tag is created from. Empty leaves it to
	// GitHub on creation and ignores it on update.
	Target string

	Title       string
	Description string
	Draft       bool
	Prerelease  bool
}

// GetRelease returns the current state of the release for tag.
func GetRelease(ctx context.Context, opts GitHubOptions, owner, repo, tag string) (ReleaseState, error) {
	if owner == "" || repo == "" {
		return ReleaseState{}, errors.New("owner and repo are required")
	}
	client, err := newGitHubClient(ctx, opts, owner)
	if err != nil {
		return ReleaseState{}, err
	}
	return reconcile.NewReleaseReconciler(client).GetRelease(ctx, owner, repo, tag)
}

// EnsureRelease creates the release when it does not exist and otherwise
// updates only the fields that differ.
func EnsureRelease(ctx context.Context, opts GitHubOptions, release ReleaseOptions) (Action, error) {
	if release.Owner == "" || release.Repo == "" {
		return "", errors.New("owner and repo are required")
	}
	client, err := newGitHubClient(ctx, opts, release.Owner)
	if err != nil {
		return "", err
	}
	return reconcile.NewReleaseReconciler(client).EnsureRelease(ctx, reconcile.ReleaseSpec{
		Owner:       release.Owner,
		Repository:  release.Repo,
		Tag:         release.Tag,
		Target:      release.Target,
		Title:       release.Title,
		Description: release.Description,
		Draft:       release.Draft,
		Prerelease:  release.Prerelease,
	})
}

func newGitHubClient(ctx context.Context, opts GitHubOptions, owner string) (*ghprovider.Client, error) {
	client, err := ghprovider.NewClient(ctx, ghprovider.ClientConfig{
		Token:      opts.Token,
		AppID:      opts.AppID,
		AppKeyPath: opts.AppKeyPath,
		BaseURL:    opts.BaseURL,
		Owner:      owner,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GitHub client: %w", err)
	}
	return client, nil
}

// GitLabOptions authenticates against the GitLab API. Empty fields fall back
// to GITLAB_TOKEN and GITLAB_API_URL.
type GitLabOptions struct {
	Token   string
	BaseURL string
}

// Project names a GitLab project; Namespace may contain subgroups.
type Project struct {
	Namespace string
	Name      string
}

// EnsureVersion makes the milestone titled version exist in project with the
// requested closed state.
func EnsureVersion(ctx context.Context, opts GitLabOptions, project Project, version Version) (Action, error) {
	r, err := newTrackerReconciler(opts, project)
	if err != nil {
		return "", err
	}
	return r.EnsureVersion(ctx, version)
}

// ListVersions returns the milestones of project in semantic version order.
func ListVersions(ctx context.Context, opts GitLabOptions, project Project) ([]Version, error) {
	r, err := newTrackerReconciler(opts, project)
	if err != nil {
		return nil, err
	}
	return r.ListVersions(ctx)
}

// IssueQuery selects issues. Query, when set, is sent verbatim and the other
// fields are ignored. Milestone (default "${ReleaseNumber}") and Labels are
// expressions in which ${Name} is replaced by Variables[Name].
type IssueQuery struct {
	Query     string
	Milestone string
	Labels    string
	Variables map[string]string
}

// Transition moves the issues matched by Query from From (empty matches any
// status) to To, optionally leaving Comment on each.
type Transition struct {
	Query   IssueQuery
	From    string
	To      string
	Comment string
}

// ListIssues returns the issues of project matched by query.
func ListIssues(ctx context.Context, opts GitLabOptions, project Project, query IssueQuery) ([]Issue, error) {
	r, err := newTrackerReconciler(opts, project)
	if err != nil {
		return nil, err
	}
	filter, err := query.filter()
	if err != nil {
		return nil, err
	}
	return r.ListIssues(ctx, filter)
}

// TransitionIssues applies t to project and returns the issues it changed.
// Issues already in the target status are left untouched.
func TransitionIssues(ctx context.Context, opts GitLabOptions, project Project, t Transition) ([]Issue, error) {
	r, err := newTrackerReconciler(opts, project)
	if err != nil {
		return nil, err
	}
	filter, err := t.Query.filter()
	if err != nil {
		return nil, err
	}
	return r.TransitionIssues(ctx, reconcile.TransitionRequest{
		FromStatus: t.From,
		ToStatus:   t.To,
		Comment:    t.Comment,
		Filter:     filter,
	})
}

func (q IssueQuery) filter() (reconcile.IssueFilter, error) {
	return reconcile.BuildIssueFilter(reconcile.FilterSettings{
		CustomQuery:         q.Query,
		MilestoneExpression: q.Milestone,
		Labels:              q.Labels,
	}, reconcile.NewExpander(reconcile.Variables(q.Variables)))
}

func newTrackerReconciler(opts GitLabOptions, project Project) (*reconcile.TrackerReconciler, error) {
	client, err := glprovider.NewClient(glprovider.ClientConfig{
		Token:   opts.Token,
		BaseURL: opts.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating GitLab client: %w", err)
	}
	return reconcile.NewTrackerReconciler(client, reconcile.ProjectID{Namespace: project.Namespace, Name: project.Name}), nil
}
