package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/chainguard-dev/clog"
	"golang.org/x/mod/semver"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
)

// TrackerReconciler converges the milestones and issue states of one project.
type TrackerReconciler struct {
	api     TrackerAPI
	project ProjectID
}

// NewTrackerReconciler returns a reconciler for project backed by api.
func NewTrackerReconciler(api TrackerAPI, project ProjectID) *TrackerReconciler {
	return &TrackerReconciler{api: api, project: project}
}

// EnsureVersion makes the milestone titled v.Version exist with the requested
// open/closed state. It issues at most one transition per call.
func (r *TrackerReconciler) EnsureVersion(ctx context.Context, v IssueTrackerVersion) (Action, error) {
	if err := r.project.Validate(); err != nil {
		return "", err
	}
	if v.Version == "" {
		return "", errs.Validation("version is required")
	}
	log := clog.FromContext(ctx)

	milestone, err := r.api.FindMilestone(ctx, r.project, v.Version)
	if err != nil {
		return "", fmt.Errorf("finding milestone %q in %s: %w", v.Version, r.project, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if milestone == nil {
		log.Infof("Creating milestone %q in %s...", v.Version, r.project)
		created, err := r.api.CreateMilestone(ctx, r.project, v.Version)
		if err != nil {
			return "", fmt.Errorf("creating milestone %q: %w", v.Version, err)
		}
		if !v.IsClosed {
			return ActionCreated, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		log.Infof("Closing milestone %q in %s...", v.Version, r.project)
		if _, err := r.api.UpdateMilestone(ctx, r.project, created.ID, TransitionClose); err != nil {
			return "", fmt.Errorf("closing milestone %q: %w", v.Version, err)
		}
		return ActionCreated, nil
	}

	switch PlanVersion(milestone, v) {
	case ActionClosed:
		log.Infof("Closing milestone %q in %s...", v.Version, r.project)
		if _, err := r.api.UpdateMilestone(ctx, r.project, milestone.ID, TransitionClose); err != nil {
			return "", fmt.Errorf("closing milestone %q: %w", v.Version, err)
		}
		return ActionClosed, nil
	case ActionReopened:
		log.Infof("Reopening milestone %q in %s...", v.Version, r.project)
		if _, err := r.api.UpdateMilestone(ctx, r.project, milestone.ID, TransitionReopen); err != nil {
			return "", fmt.Errorf("reopening milestone %q: %w", v.Version, err)
		}
		return ActionReopened, nil
	default:
		log.Debugf("Milestone %q in %s is up to date.", v.Version, r.project)
		return ActionUnchanged, nil
	}
}

// PlanVersion returns the action EnsureVersion would take given the current
// milestone, nil when absent.
func PlanVersion(current *Milestone, v IssueTrackerVersion) Action {
	if current == nil {
		return ActionCreated
	}
	closed := current.State == MilestoneClosed
	switch {
	case v.IsClosed && !closed:
		return ActionClosed
	case !v.IsClosed && closed:
		return ActionReopened
	default:
		return ActionUnchanged
	}
}

// ListVersions returns every milestone as a version, ordered by semantic
// version. Titles that are not versions keep their relative order after the
// ones that are.
func (r *TrackerReconciler) ListVersions(ctx context.Context) ([]IssueTrackerVersion, error) {
	if err := r.project.Validate(); err != nil {
		return nil, err
	}
	milestones, err := r.api.ListMilestones(ctx, r.project)
	if err != nil {
		return nil, fmt.Errorf("listing milestones of %s: %w", r.project, err)
	}

	versions := make([]IssueTrackerVersion, 0, len(milestones))
	for _, m := range milestones {
		versions = append(versions, IssueTrackerVersion{Version: m.Title, IsClosed: m.State == MilestoneClosed})
	}
	sort.SliceStable(versions, func(i, j int) bool {
		a, b := semverOf(versions[i].Version), semverOf(versions[j].Version)
		switch {
		case a == "" || b == "":
			return a != "" && b == ""
		default:
			return semver.Compare(a, b) < 0
		}
	})
	return versions, nil
}

// semverOf returns the canonical "v"-prefixed form of s, or "".
func semverOf(s string) string {
	if !strings.HasPrefix(s, "v") {
		s = "v" + s
	}
	if !semver.IsValid(s) {
		return ""
	}
	return s
}

// ListIssues returns the issues selected by filter.
func (r *TrackerReconciler) ListIssues(ctx context.Context, filter IssueFilter) ([]Issue, error) {
	if err := r.project.Validate(); err != nil {
		return nil, err
	}
	issues, err := r.api.ListIssues(ctx, r.project, filter)
	if err != nil {
		return nil, fmt.Errorf("listing issues of %s: %w", r.project, err)
	}
	return issues, nil
}

// TransitionRequest moves the issues selected by Filter to ToStatus.
type TransitionRequest struct {
	// FromStatus restricts the transition to issues in this status. Empty
	// means any status.
	FromStatus string
	ToStatus   string
	// Comment is added to every transitioned issue when set.
	Comment string
	Filter  IssueFilter
}

// TransitionIssues moves every issue selected by req.Filter to req.ToStatus.
// Issues already in the target status, and issues not in req.FromStatus when
// it is set, are left untouched. Both statuses must be Open or Closed; that
// is checked before any remote call. The transitioned issues are returned.
func (r *TrackerReconciler) TransitionIssues(ctx context.Context, req TransitionRequest) ([]Issue, error) {
	to, candidates, err := r.transitionCandidates(ctx, req)
	if err != nil {
		return nil, err
	}

	transition := TransitionClose
	if to == StatusOpen {
		transition = TransitionReopen
	}

	log := clog.FromContext(ctx)
	var changed []Issue
	for _, issue := range candidates {
		if err := ctx.Err(); err != nil {
			return changed, err
		}

		log.Infof("Changing issue #%d in %s from %s to %s...", issue.ID, r.project, issue.Status, to)
		if err := r.api.UpdateIssue(ctx, r.project, issue.ID, transition); err != nil {
			return changed, fmt.Errorf("updating issue #%d: %w", issue.ID, err)
		}
		if req.Comment != "" {
			if err := ctx.Err(); err != nil {
				return changed, err
			}
			if err := r.api.AddIssueComment(ctx, r.project, issue.ID, req.Comment); err != nil {
				return changed, fmt.Errorf("commenting on issue #%d: %w", issue.ID, err)
			}
		}
		issue.Status = to
		issue.IsClosed = to == StatusClosed
		changed = append(changed, issue)
	}
	return changed, nil
}

// PlanTransition returns the issues TransitionIssues would change, without
// changing them.
func (r *TrackerReconciler) PlanTransition(ctx context.Context, req TransitionRequest) ([]Issue, error) {
	_, candidates, err := r.transitionCandidates(ctx, req)
	return candidates, err
}

// transitionCandidates validates req and returns the canonical target status
// and the listed issues that need to move to it.
func (r *TrackerReconciler) transitionCandidates(ctx context.Context, req TransitionRequest) (string, []Issue, error) {
	to, ok := canonicalStatus(req.ToStatus)
	if !ok {
		return "", nil, errs.Validation("issue status cannot be set to %q, only %s or %s", req.ToStatus, StatusOpen, StatusClosed)
	}
	if req.FromStatus != "" {
		if _, ok := canonicalStatus(req.FromStatus); !ok {
			return "", nil, errs.Validation("issue status cannot be transitioned from %q, only %s or %s", req.FromStatus, StatusOpen, StatusClosed)
		}
	}
	if err := r.project.Validate(); err != nil {
		return "", nil, err
	}

	issues, err := r.api.ListIssues(ctx, r.project, req.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("listing issues of %s: %w", r.project, err)
	}

	var candidates []Issue
	for _, issue := range issues {
		if strings.EqualFold(issue.Status, to) {
			continue
		}
		if req.FromStatus != "" && !strings.EqualFold(issue.Status, req.FromStatus) {
			continue
		}
		candidates = append(candidates, issue)
	}
	return to, candidates, nil
}
