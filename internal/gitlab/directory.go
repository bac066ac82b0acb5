package gitlab

import (
	"context"

	"github.com/chainguard-dev/clog"
	gl "gitlab.com/gitlab-org/api/client-go"
)

// ListNamespaces returns the full paths of the groups the token is a member of.
func (c *Client) ListNamespaces(ctx context.Context) ([]string, error) {
	opts := &gl.ListGroupsOptions{
		ListOptions:    gl.ListOptions{PerPage: perPage},
		MinAccessLevel: gl.Ptr(gl.GuestPermissions),
	}
	groups, err := collect(ctx, "listing groups", func() ([]*gl.Group, *gl.Response, error) {
		return c.api.Groups.ListGroups(opts, gl.WithContext(ctx))
	}, func(resp *gl.Response) {
		opts.Page = resp.NextPage
	})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.FullPath)
	}
	return names, nil
}

// ListProjects returns the project paths of a group, without subgroups. A
// namespace that is not a group is listed as a user.
func (c *Client) ListProjects(ctx context.Context, namespace string) ([]string, error) {
	op := "listing projects of " + namespace
	groupOpts := &gl.ListGroupProjectsOptions{ListOptions: gl.ListOptions{PerPage: perPage}}
	projects, err := collect(ctx, op, func() ([]*gl.Project, *gl.Response, error) {
		return c.api.Groups.ListGroupProjects(namespace, groupOpts, gl.WithContext(ctx))
	}, func(resp *gl.Response) {
		groupOpts.Page = resp.NextPage
	})
	if IsNotFoundError(err) {
		clog.FromContext(ctx).Debugf("Group %s not found, listing user projects...", namespace)
		userOpts := &gl.ListProjectsOptions{ListOptions: gl.ListOptions{PerPage: perPage}}
		projects, err = collect(ctx, op, func() ([]*gl.Project, *gl.Response, error) {
			return c.api.Projects.ListUserProjects(namespace, userOpts, gl.WithContext(ctx))
		}, func(resp *gl.Response) {
			userOpts.Page = resp.NextPage
		})
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(projects))
	for _, p := range projects {
		names = append(names, p.Path)
	}
	return names, nil
}
