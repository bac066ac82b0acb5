package reconcile

import "context"

// Compile-time checks that the mocks implement the API interfaces.
var (
	_ ReleaseAPI   = (*MockReleaseAPI)(nil)
	_ TrackerAPI   = (*MockTrackerAPI)(nil)
	_ DirectoryAPI = (*MockDirectoryAPI)(nil)
)

// MockReleaseAPI is a configurable mock implementation of ReleaseAPI.
// Each method is backed by a function field. If the function field is nil,
// the method returns sensible zero values.
type MockReleaseAPI struct {
	GetReleaseFunc    func(ctx context.Context, owner, repo, tag string) (*Release, error)
	CreateReleaseFunc func(ctx context.Context, owner, repo string, release Release) (*Release, error)
	UpdateReleaseFunc func(ctx context.Context, owner, repo string, id int64, update ReleaseUpdate) (*Release, error)
}

func (m *MockReleaseAPI) GetRelease(ctx context.Context, owner, repo, tag string) (*Release, error) {
	if m.GetReleaseFunc != nil {
		return m.GetReleaseFunc(ctx, owner, repo, tag)
	}
	return nil, nil
}

func (m *MockReleaseAPI) CreateRelease(ctx context.Context, owner, repo string, release Release) (*Release, error) {
	if m.CreateReleaseFunc != nil {
		return m.CreateReleaseFunc(ctx, owner, repo, release)
	}
	return &release, nil
}

func (m *MockReleaseAPI) UpdateRelease(ctx context.Context, owner, repo string, id int64, update ReleaseUpdate) (*Release, error) {
	if m.UpdateReleaseFunc != nil {
		return m.UpdateReleaseFunc(ctx, owner, repo, id, update)
	}
	return &Release{ID: id}, nil
}

// MockTrackerAPI is a configurable mock implementation of TrackerAPI.
type MockTrackerAPI struct {
	FindMilestoneFunc   func(ctx context.Context, project ProjectID, title string) (*Milestone, error)
	ListMilestonesFunc  func(ctx context.Context, project ProjectID) ([]Milestone, error)
	CreateMilestoneFunc func(ctx context.Context, project ProjectID, title string) (*Milestone, error)
	UpdateMilestoneFunc func(ctx context.Context, project ProjectID, id int64, transition Transition) (*Milestone, error)
	ListIssuesFunc      func(ctx context.Context, project ProjectID, filter IssueFilter) ([]Issue, error)
	UpdateIssueFunc     func(ctx context.Context, project ProjectID, id int64, transition Transition) error
	AddIssueCommentFunc func(ctx context.Context, project ProjectID, id int64, body string) error
}

func (m *MockTrackerAPI) FindMilestone(ctx context.Context, project ProjectID, title string) (*Milestone, error) {
	if m.FindMilestoneFunc != nil {
		return m.FindMilestoneFunc(ctx, project, title)
	}
	return nil, nil
}

func (m *MockTrackerAPI) ListMilestones(ctx context.Context, project ProjectID) ([]Milestone, error) {
	if m.ListMilestonesFunc != nil {
		return m.ListMilestonesFunc(ctx, project)
	}
	return nil, nil
}

func (m *MockTrackerAPI) CreateMilestone(ctx context.Context, project ProjectID, title string) (*Milestone, error) {
	if m.CreateMilestoneFunc != nil {
		return m.CreateMilestoneFunc(ctx, project, title)
	}
	return &Milestone{Title: title, State: MilestoneOpen}, nil
}

func (m *MockTrackerAPI) UpdateMilestone(ctx context.Context, project ProjectID, id int64, transition Transition) (*Milestone, error) {
	if m.UpdateMilestoneFunc != nil {
		return m.UpdateMilestoneFunc(ctx, project, id, transition)
	}
	return &Milestone{ID: id}, nil
}

func (m *MockTrackerAPI) ListIssues(ctx context.Context, project ProjectID, filter IssueFilter) ([]Issue, error) {
	if m.ListIssuesFunc != nil {
		return m.ListIssuesFunc(ctx, project, filter)
	}
	return nil, nil
}

func (m *MockTrackerAPI) UpdateIssue(ctx context.Context, project ProjectID, id int64, transition Transition) error {
	if m.UpdateIssueFunc != nil {
		return m.UpdateIssueFunc(ctx, project, id, transition)
	}
	return nil
}

func (m *MockTrackerAPI) AddIssueComment(ctx context.Context, project ProjectID, id int64, body string) error {
	if m.AddIssueCommentFunc != nil {
		return m.AddIssueCommentFunc(ctx, project, id, body)
	}
	return nil
}

// MockDirectoryAPI is a configurable mock implementation of DirectoryAPI.
type MockDirectoryAPI struct {
	ListNamespacesFunc func(ctx context.Context) ([]string, error)
	ListProjectsFunc   func(ctx context.Context, namespace string) ([]string, error)
}

func (m *MockDirectoryAPI) ListNamespaces(ctx context.Context) ([]string, error) {
	if m.ListNamespacesFunc != nil {
		return m.ListNamespacesFunc(ctx)
	}
	return nil, nil
}

func (m *MockDirectoryAPI) ListProjects(ctx context.Context, namespace string) ([]string, error) {
	if m.ListProjectsFunc != nil {
		return m.ListProjectsFunc(ctx, namespace)
	}
	return nil, nil
}
