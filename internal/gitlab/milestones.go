package gitlab

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

// GitLab milestone state and state events. Any other state is open.
const (
	milestoneClosed   = "closed"
	milestoneClose    = "close"
	milestoneActivate = "activate"
)

func convertMilestone(m *gl.Milestone) reconcile.Milestone {
	state := reconcile.MilestoneOpen
	if m.State == milestoneClosed {
		state = reconcile.MilestoneClosed
	}
	return reconcile.Milestone{ID: int64(m.ID), Title: m.Title, State: state}
}

func (c *Client) listMilestones(ctx context.Context, op string, project reconcile.ProjectID, opts *gl.ListMilestonesOptions) ([]*gl.Milestone, error) {
	return collect(ctx, op, func() ([]*gl.Milestone, *gl.Response, error) {
		return c.api.Milestones.ListMilestones(project.String(), opts, gl.WithContext(ctx))
	}, func(resp *gl.Response) {
		opts.Page = resp.NextPage
	})
}

// FindMilestone returns the milestone of project whose title is exactly
// title, or nil.
func (c *Client) FindMilestone(ctx context.Context, project reconcile.ProjectID, title string) (*reconcile.Milestone, error) {
	clog.FromContext(ctx).Debugf("Looking up milestone %q in %s...", title, project)
	milestones, err := c.listMilestones(ctx, "finding milestone "+title, project, &gl.ListMilestonesOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
		Title:       gl.Ptr(title),
	})
	if err != nil {
		return nil, err
	}
	for _, m := range milestones {
		if m.Title == title {
			out := convertMilestone(m)
			return &out, nil
		}
	}
	return nil, nil
}

// ListMilestones returns every milestone of project.
func (c *Client) ListMilestones(ctx context.Context, project reconcile.ProjectID) ([]reconcile.Milestone, error) {
	milestones, err := c.listMilestones(ctx, "listing milestones of "+project.String(), project, &gl.ListMilestonesOptions{
		ListOptions: gl.ListOptions{PerPage: perPage},
	})
	if err != nil {
		return nil, err
	}
	out := make([]reconcile.Milestone, 0, len(milestones))
	for _, m := range milestones {
		out = append(out, convertMilestone(m))
	}
	return out, nil
}

func (c *Client) CreateMilestone(ctx context.Context, project reconcile.ProjectID, title string) (*reconcile.Milestone, error) {
	m, resp, err := c.api.Milestones.CreateMilestone(project.String(), &gl.CreateMilestoneOptions{
		Title: gl.Ptr(title),
	}, gl.WithContext(ctx))
	if err != nil {
		return nil, apiError("creating milestone "+title, resp, err)
	}
	out := convertMilestone(m)
	return &out, nil
}

// UpdateMilestone closes or reactivates milestone id.
func (c *Client) UpdateMilestone(ctx context.Context, project reconcile.ProjectID, id int64, transition reconcile.Transition) (*reconcile.Milestone, error) {
	event := milestoneClose
	if transition == reconcile.TransitionReopen {
		event = milestoneActivate
	}

	m, resp, err := c.api.Milestones.UpdateMilestone(project.String(), id, &gl.UpdateMilestoneOptions{
		StateEvent: gl.Ptr(event),
	}, gl.WithContext(ctx))
	if err != nil {
		return nil, apiError(fmt.Sprintf("updating milestone %d", id), resp, err)
	}
	out := convertMilestone(m)
	return &out, nil
}
