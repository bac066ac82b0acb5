package github

import (
	"context"

	"github.com/chainguard-dev/clog"
	gh "github.com/google/go-github/v68/github"
)

// ListNamespaces returns the organizations of the authenticated user.
func (c *Client) ListNamespaces(ctx context.Context) ([]string, error) {
	var names []string
	opts := &gh.ListOptions{PerPage: 100}
	for {
		orgs, resp, err := c.api.Organizations.List(ctx, "", opts)
		if err != nil {
			return nil, apiError("listing organizations", err)
		}
		for _, o := range orgs {
			names = append(names, o.GetLogin())
		}
		if resp.NextPage == 0 {
			return names, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts.Page = resp.NextPage
	}
}

// ListProjects returns the repository names of owner, which may be an
// organization or a user.
func (c *Client) ListProjects(ctx context.Context, owner string) ([]string, error) {
	names, err := c.listOrgRepositories(ctx, owner)
	if IsNotFoundError(err) {
		clog.FromContext(ctx).Debugf("Organization %s not found, listing user repositories...", owner)
		return c.listUserRepositories(ctx, owner)
	}
	if err != nil {
		return nil, apiError("listing repositories of "+owner, err)
	}
	return names, nil
}

func (c *Client) listOrgRepositories(ctx context.Context, org string) ([]string, error) {
	var names []string
	opts := &gh.RepositoryListByOrgOptions{ListOptions: gh.ListOptions{PerPage: 100}}
	for {
		repos, resp, err := c.api.Repositories.ListByOrg(ctx, org, opts)
		if err != nil {
			return nil, err
		}
		for _, r := range repos {
			names = append(names, r.GetName())
		}
		if resp.NextPage == 0 {
			return names, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) listUserRepositories(ctx context.Context, user string) ([]string, error) {
	var names []string
	opts := &gh.RepositoryListByUserOptions{ListOptions: gh.ListOptions{PerPage: 100}}
	for {
		repos, resp, err := c.api.Repositories.ListByUser(ctx, user, opts)
		if err != nil {
			return nil, apiError("listing repositories of "+user, err)
		}
		for _, r := range repos {
			names = append(names, r.GetName())
		}
		if resp.NextPage == 0 {
			return names, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts.Page = resp.NextPage
	}
}
