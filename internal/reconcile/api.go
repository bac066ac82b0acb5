package reconcile

import "context"

// ReleaseAPI is the release surface of a hosting service. Implementations
// return errs.ErrOperation for non-2xx responses.
type ReleaseAPI interface {
	// GetRelease returns the release for tag, or nil when none exists.
	GetRelease(ctx context.Context, owner, repo, tag string) (*Release, error)
	CreateRelease(ctx context.Context, owner, repo string, release Release) (*Release, error)
	UpdateRelease(ctx context.Context, owner, repo string, id int64, update ReleaseUpdate) (*Release, error)
}

// TrackerAPI is the milestone and issue surface of a hosting service.
type TrackerAPI interface {
	// FindMilestone returns the milestone titled title, or nil.
	FindMilestone(ctx context.Context, project ProjectID, title string) (*Milestone, error)
	ListMilestones(ctx context.Context, project ProjectID) ([]Milestone, error)
	CreateMilestone(ctx context.Context, project ProjectID, title string) (*Milestone, error)
	UpdateMilestone(ctx context.Context, project ProjectID, id int64, transition Transition) (*Milestone, error)

	ListIssues(ctx context.Context, project ProjectID, filter IssueFilter) ([]Issue, error)
	UpdateIssue(ctx context.Context, project ProjectID, id int64, transition Transition) error
	AddIssueComment(ctx context.Context, project ProjectID, id int64, body string) error
}

// DirectoryAPI lists the namespaces and projects visible to the credentials.
type DirectoryAPI interface {
	ListNamespaces(ctx context.Context) ([]string, error)
	ListProjects(ctx context.Context, namespace string) ([]string, error)
}
