package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/config"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/output"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

// fakeHost stores releases and milestones in memory and counts mutations.
type fakeHost struct {
	mu         sync.Mutex
	releases   map[string]*reconcile.Release
	milestones map[string]*reconcile.Milestone
	issues     []reconcile.Issue
	mutations  int
}

func newFakeHost() *fakeHost {
	return &fakeHost{releases: map[string]*reconcile.Release{}, milestones: map[string]*reconcile.Milestone{}}
}

func (h *fakeHost) releaseAPI() *reconcile.MockReleaseAPI {
	return &reconcile.MockReleaseAPI{
		GetReleaseFunc: func(_ context.Context, owner, repo, tag string) (*reconcile.Release, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			if r, ok := h.releases[owner+"/"+repo+"@"+tag]; ok {
				c := *r
				return &c, nil
			}
			return nil, nil
		},
		CreateReleaseFunc: func(_ context.Context, owner, repo string, r reconcile.Release) (*reconcile.Release, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.mutations++
			r.ID = int64(len(h.releases) + 1)
			h.releases[owner+"/"+repo+"@"+r.Tag] = &r
			return &r, nil
		},
		UpdateReleaseFunc: func(_ context.Context, owner, repo string, id int64, u reconcile.ReleaseUpdate) (*reconcile.Release, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.mutations++
			return &reconcile.Release{ID: id}, nil
		},
	}
}

func (h *fakeHost) trackerAPI() *reconcile.MockTrackerAPI {
	return &reconcile.MockTrackerAPI{
		FindMilestoneFunc: func(_ context.Context, p reconcile.ProjectID, title string) (*reconcile.Milestone, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			if m, ok := h.milestones[p.String()+" "+title]; ok {
				c := *m
				return &c, nil
			}
			return nil, nil
		},
		ListMilestonesFunc: func(_ context.Context, p reconcile.ProjectID) ([]reconcile.Milestone, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			var out []reconcile.Milestone
			for _, m := range h.milestones {
				out = append(out, *m)
			}
			return out, nil
		},
		CreateMilestoneFunc: func(_ context.Context, p reconcile.ProjectID, title string) (*reconcile.Milestone, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.mutations++
			m := &reconcile.Milestone{ID: int64(len(h.milestones) + 1), Title: title, State: reconcile.MilestoneOpen}
			h.milestones[p.String()+" "+title] = m
			return m, nil
		},
		UpdateMilestoneFunc: func(_ context.Context, p reconcile.ProjectID, id int64, tr reconcile.Transition) (*reconcile.Milestone, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.mutations++
			for _, m := range h.milestones {
				if m.ID == id {
					m.State = reconcile.MilestoneOpen
					if tr == reconcile.TransitionClose {
						m.State = reconcile.MilestoneClosed
					}
					return m, nil
				}
			}
			return nil, errors.New("no such milestone")
		},
		ListIssuesFunc: func(context.Context, reconcile.ProjectID, reconcile.IssueFilter) ([]reconcile.Issue, error) {
			h.mu.Lock()
			defer h.mu.Unlock()
			return append([]reconcile.Issue(nil), h.issues...), nil
		},
		UpdateIssueFunc: func(_ context.Context, _ reconcile.ProjectID, id int64, tr reconcile.Transition) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.mutations++
			for i := range h.issues {
				if h.issues[i].ID == id {
					h.issues[i].Status = reconcile.StatusClosed
				}
			}
			return nil
		},
		AddIssueCommentFunc: func(context.Context, reconcile.ProjectID, int64, string) error {
			return nil
		},
	}
}

func (h *fakeHost) install(t *testing.T) {
	t.Helper()
	origRelease, origTracker := releaseAPIFor, trackerAPIFor
	releaseAPIFor = func(context.Context, *config.Config, string) (reconcile.ReleaseAPI, error) { return h.releaseAPI(), nil }
	trackerAPIFor = func(context.Context, *config.Config) (reconcile.TrackerAPI, error) { return h.trackerAPI(), nil }
	t.Cleanup(func() { releaseAPIFor, trackerAPIFor = origRelease, origTracker })
}

func desiredState() *config.Config {
	cfg := &config.Config{
		GitHub: config.GitHubConfig{Organization: "acme"},
		Releases: []config.ReleaseConfig{
			{Repository: "widgets", Tag: "v1.0.0", Title: "Widgets 1.0"},
			{Repository: "gadgets", Tag: "v2.0.0", Title: "Gadgets 2.0"},
		},
		Versions: []config.VersionConfig{
			{Namespace: "acme", Project: "widgets", Version: "1.0.0", Closed: true},
		},
		Issues: []config.IssuesConfig{{
			Namespace:   "acme",
			Project:     "widgets",
			Variables:   map[string]string{"ReleaseNumber": "1.0.0"},
			Transitions: []config.TransitionConfig{{From: "Open"}},
		}},
	}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestApply_ConvergesThenIsNoop(t *testing.T) {
	host := newFakeHost()
	host.issues = []reconcile.Issue{{ID: 1, Status: "Open"}, {ID: 2, Status: "Closed"}}
	host.install(t)
	cfg := desiredState()

	results, err := apply(context.Background(), cfg, false, 2)
	require.NoError(t, err)
	require.Equal(t, []output.Result{
		{Kind: "issues", Target: "acme/widgets Open->Closed (1 issues)", Action: reconcile.ActionUpdated},
		{Kind: "milestone", Target: "acme/widgets 1.0.0", Action: reconcile.ActionCreated},
		{Kind: "release", Target: "acme/gadgets@v2.0.0", Action: reconcile.ActionCreated},
		{Kind: "release", Target: "acme/widgets@v1.0.0", Action: reconcile.ActionCreated},
	}, results)
	// two releases, milestone create + close, one issue
	require.Equal(t, 5, host.mutations)

	results, err = apply(context.Background(), cfg, false, 2)
	require.NoError(t, err)
	for _, r := range results {
		require.Equal(t, reconcile.ActionUnchanged, r.Action, r.Target)
	}
	require.Equal(t, 5, host.mutations)
}

func TestApply_DryRunMakesNoMutatingCall(t *testing.T) {
	host := newFakeHost()
	host.issues = []reconcile.Issue{{ID: 1, Status: "Open"}}
	host.install(t)

	results, err := apply(context.Background(), desiredState(), true, 1)
	require.NoError(t, err)
	require.Equal(t, 0, host.mutations)
	require.Len(t, results, 4)
	require.Equal(t, reconcile.ActionUpdated, results[0].Action)
	require.Equal(t, reconcile.ActionCreated, results[1].Action)
}

func TestApply_RecordsFailuresAndContinues(t *testing.T) {
	host := newFakeHost()
	host.install(t)
	releaseAPIFor = func(context.Context, *config.Config, string) (reconcile.ReleaseAPI, error) {
		return &reconcile.MockReleaseAPI{
			GetReleaseFunc: func(context.Context, string, string, string) (*reconcile.Release, error) {
				return nil, errors.New("rate limited")
			},
		}, nil
	}

	results, err := apply(context.Background(), desiredState(), false, 4)
	require.Error(t, err)
	require.Contains(t, err.Error(), "rate limited")
	require.Len(t, results, 4)
	require.Equal(t, reconcile.ActionCreated, results[1].Action)
	require.Contains(t, results[2].Error, "rate limited")
	require.Contains(t, results[3].Error, "rate limited")
}

func TestApplyCmd_ReadsConfigFile(t *testing.T) {
	host := newFakeHost()
	host.install(t)
	path := filepath.Join(t.TempDir(), "gitconverge.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
github:
  organization: acme
releases:
  - repository: widgets
    tag: v1.0.0
`), 0o644))

	out, err := runCmd(t, "apply", "--config", path, "-o", "json")
	require.NoError(t, err)
	require.JSONEq(t, `[{"kind":"release","target":"acme/widgets@v1.0.0","action":"created"}]`, out)
}
