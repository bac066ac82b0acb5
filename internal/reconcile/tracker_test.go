package reconcile

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
)

var testProject = ProjectID{Namespace: "acme", Name: "widgets"}

// trackerCalls records every mutating call in order.
type trackerCalls struct {
	calls []string
}

func (c *trackerCalls) add(format string, args ...any) {
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func milestoneAPI(existing *Milestone) (*trackerCalls, *MockTrackerAPI) {
	rec := &trackerCalls{}
	return rec, &MockTrackerAPI{
		FindMilestoneFunc: func(_ context.Context, p ProjectID, title string) (*Milestone, error) {
			if p != testProject {
				return nil, fmt.Errorf("unexpected project %s", p)
			}
			if existing != nil && existing.Title == title {
				return existing, nil
			}
			return nil, nil
		},
		CreateMilestoneFunc: func(_ context.Context, _ ProjectID, title string) (*Milestone, error) {
			rec.add("create %s", title)
			return &Milestone{ID: 42, Title: title, State: MilestoneOpen}, nil
		},
		UpdateMilestoneFunc: func(_ context.Context, _ ProjectID, id int64, tr Transition) (*Milestone, error) {
			rec.add("%s %d", tr, id)
			return &Milestone{ID: id}, nil
		},
	}
}

func TestEnsureVersion(t *testing.T) {
	tests := []struct {
		name     string
		existing *Milestone
		closed   bool
		want     Action
		calls    []string
	}{
		{"absent open", nil, false, ActionCreated, []string{"create 1.0"}},
		{"absent closed", nil, true, ActionCreated, []string{"create 1.0", "close 42"}},
		{"open wants closed", &Milestone{ID: 5, Title: "1.0", State: MilestoneOpen}, true, ActionClosed, []string{"close 5"}},
		{"closed wants open", &Milestone{ID: 5, Title: "1.0", State: MilestoneClosed}, false, ActionReopened, []string{"reopen 5"}},
		{"open wants open", &Milestone{ID: 5, Title: "1.0", State: MilestoneOpen}, false, ActionUnchanged, nil},
		{"closed wants closed", &Milestone{ID: 5, Title: "1.0", State: MilestoneClosed}, true, ActionUnchanged, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, api := milestoneAPI(tt.existing)
			r := NewTrackerReconciler(api, testProject)

			action, err := r.EnsureVersion(context.Background(), IssueTrackerVersion{Version: "1.0", IsClosed: tt.closed})
			require.NoError(t, err)
			require.Equal(t, tt.want, action)
			require.Equal(t, tt.calls, rec.calls)
		})
	}
}

func TestEnsureVersion_Validation(t *testing.T) {
	rec, api := milestoneAPI(nil)

	_, err := NewTrackerReconciler(api, testProject).EnsureVersion(context.Background(), IssueTrackerVersion{})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = NewTrackerReconciler(api, ProjectID{Name: "widgets"}).EnsureVersion(context.Background(), IssueTrackerVersion{Version: "1"})
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Empty(t, rec.calls)
}

func TestEnsureVersion_CanceledBetweenCreateAndClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec, api := milestoneAPI(nil)
	api.CreateMilestoneFunc = func(_ context.Context, _ ProjectID, title string) (*Milestone, error) {
		rec.add("create %s", title)
		cancel()
		return &Milestone{ID: 1, Title: title}, nil
	}

	_, err := NewTrackerReconciler(api, testProject).EnsureVersion(ctx, IssueTrackerVersion{Version: "1.0", IsClosed: true})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, []string{"create 1.0"}, rec.calls)
}

func issuesAPI(issues []Issue) (*trackerCalls, *MockTrackerAPI) {
	rec := &trackerCalls{}
	return rec, &MockTrackerAPI{
		ListIssuesFunc: func(_ context.Context, _ ProjectID, f IssueFilter) ([]Issue, error) {
			rec.add("list %s", f.QueryString())
			return issues, nil
		},
		UpdateIssueFunc: func(_ context.Context, _ ProjectID, id int64, tr Transition) error {
			rec.add("%s #%d", tr, id)
			return nil
		},
		AddIssueCommentFunc: func(_ context.Context, _ ProjectID, id int64, body string) error {
			rec.add("comment #%d %s", id, body)
			return nil
		},
	}
}

var mixedIssues = []Issue{
	{ID: 1, Status: "Open"},
	{ID: 2, Status: "closed"},
	{ID: 3, Status: "open"},
	{ID: 4, Status: "In Review"},
	{ID: 5, Status: "CLOSED"},
}

func TestTransitionIssues_FromOpenToClosed(t *testing.T) {
	rec, api := issuesAPI(mixedIssues)
	r := NewTrackerReconciler(api, testProject)

	changed, err := r.TransitionIssues(context.Background(), TransitionRequest{
		FromStatus: "Open",
		ToStatus:   "Closed",
		Filter:     IssueFilter{Milestone: "1.0"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"list ?per_page=100&milestone=1.0", "close #1", "close #3"}, rec.calls)
	require.Len(t, changed, 2)
	require.Equal(t, StatusClosed, changed[0].Status)
	require.True(t, changed[1].IsClosed)
}

func TestTransitionIssues_AnyToClosedSkipsClosed(t *testing.T) {
	rec, api := issuesAPI(mixedIssues)

	_, err := NewTrackerReconciler(api, testProject).TransitionIssues(context.Background(), TransitionRequest{ToStatus: "closed"})
	require.NoError(t, err)
	require.Equal(t, []string{"list ?per_page=100", "close #1", "close #3", "close #4"}, rec.calls)
}

func TestTransitionIssues_ReopenWithComment(t *testing.T) {
	rec, api := issuesAPI(mixedIssues)

	_, err := NewTrackerReconciler(api, testProject).TransitionIssues(context.Background(), TransitionRequest{
		FromStatus: "closed",
		ToStatus:   "OPEN",
		Comment:    "Reopened for 1.1",
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"list ?per_page=100",
		"reopen #2", "comment #2 Reopened for 1.1",
		"reopen #5", "comment #5 Reopened for 1.1",
	}, rec.calls)
}

func TestTransitionIssues_Idempotent(t *testing.T) {
	rec, api := issuesAPI([]Issue{{ID: 1, Status: "Closed"}, {ID: 2, Status: "Closed"}})

	changed, err := NewTrackerReconciler(api, testProject).TransitionIssues(context.Background(), TransitionRequest{ToStatus: "Closed"})
	require.NoError(t, err)
	require.Empty(t, changed)
	require.Equal(t, []string{"list ?per_page=100"}, rec.calls)
}

func TestTransitionIssues_ValidationBeforeAnyCall(t *testing.T) {
	tests := []TransitionRequest{
		{ToStatus: "Resolved"},
		{ToStatus: ""},
		{FromStatus: "In Review", ToStatus: "Closed"},
	}
	for _, req := range tests {
		rec, api := issuesAPI(mixedIssues)
		_, err := NewTrackerReconciler(api, testProject).TransitionIssues(context.Background(), req)
		require.ErrorIs(t, err, errs.ErrValidation)
		require.Empty(t, rec.calls)
	}
}

func TestTransitionIssues_CanceledBetweenCalls(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec, api := issuesAPI(mixedIssues)
	api.UpdateIssueFunc = func(_ context.Context, _ ProjectID, id int64, tr Transition) error {
		rec.add("%s #%d", tr, id)
		cancel()
		return nil
	}

	changed, err := NewTrackerReconciler(api, testProject).TransitionIssues(ctx, TransitionRequest{ToStatus: "Closed"})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, changed, 1)
	require.Equal(t, []string{"list ?per_page=100", "close #1"}, rec.calls)
}

func TestListVersions_SemverOrder(t *testing.T) {
	api := &MockTrackerAPI{ListMilestonesFunc: func(context.Context, ProjectID) ([]Milestone, error) {
		return []Milestone{
			{Title: "1.10.0", State: MilestoneOpen},
			{Title: "Backlog", State: MilestoneOpen},
			{Title: "v1.2.0", State: MilestoneClosed},
			{Title: "1.9", State: MilestoneClosed},
			{Title: "Icebox", State: MilestoneClosed},
		}, nil
	}}

	versions, err := NewTrackerReconciler(api, testProject).ListVersions(context.Background())
	require.NoError(t, err)
	require.Equal(t, []IssueTrackerVersion{
		{Version: "v1.2.0", IsClosed: true},
		{Version: "1.9", IsClosed: true},
		{Version: "1.10.0"},
		{Version: "Backlog"},
		{Version: "Icebox", IsClosed: true},
	}, versions)
}

func TestListIssues(t *testing.T) {
	want := []Issue{{ID: 9, Status: "Open", Title: "Crash on start"}}
	var gotFilter IssueFilter
	api := &MockTrackerAPI{ListIssuesFunc: func(_ context.Context, _ ProjectID, f IssueFilter) ([]Issue, error) {
		gotFilter = f
		return want, nil
	}}

	issues, err := NewTrackerReconciler(api, testProject).ListIssues(context.Background(), IssueFilter{Labels: "bug"})
	require.NoError(t, err)
	require.Equal(t, want, issues)
	require.Equal(t, "bug", gotFilter.Labels)
}

func TestPlanVersion(t *testing.T) {
	open := &Milestone{ID: 1, Title: "1.0", State: MilestoneOpen}
	closed := &Milestone{ID: 1, Title: "1.0", State: MilestoneClosed}

	require.Equal(t, ActionCreated, PlanVersion(nil, IssueTrackerVersion{Version: "1.0"}))
	require.Equal(t, ActionClosed, PlanVersion(open, IssueTrackerVersion{Version: "1.0", IsClosed: true}))
	require.Equal(t, ActionReopened, PlanVersion(closed, IssueTrackerVersion{Version: "1.0"}))
	require.Equal(t, ActionUnchanged, PlanVersion(closed, IssueTrackerVersion{Version: "1.0", IsClosed: true}))
}

func TestPlanTransition_MakesNoMutatingCall(t *testing.T) {
	rec, api := issuesAPI(mixedIssues)

	planned, err := NewTrackerReconciler(api, testProject).PlanTransition(context.Background(), TransitionRequest{
		FromStatus: "open",
		ToStatus:   "Closed",
		Comment:    "ignored",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"list ?per_page=100"}, rec.calls)
	require.Equal(t, []Issue{{ID: 1, Status: "Open"}, {ID: 3, Status: "open"}}, planned)
}
