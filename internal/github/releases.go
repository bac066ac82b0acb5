package github

import (
	"context"

	"github.com/chainguard-dev/clog"
	gh "github.com/google/go-github/v68/github"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

// GetRelease returns the release whose tag is tag, drafts included, or nil.
// Releases are listed rather than fetched by tag because the by-tag endpoint
// never returns drafts.
func (c *Client) GetRelease(ctx context.Context, owner, repo, tag string) (*reconcile.Release, error) {
	clog.FromContext(ctx).Debugf("Looking up release %s in %s/%s...", tag, owner, repo)
	opts := &gh.ListOptions{PerPage: 100}
	for {
		releases, resp, err := c.api.Repositories.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			if IsNotFoundError(err) {
				return nil, nil
			}
			return nil, apiError("listing releases of "+owner+"/"+repo, err)
		}
		for _, r := range releases {
			if r.GetTagName() == tag {
				release := convertRelease(r)
				return &release, nil
			}
		}
		if resp.NextPage == 0 {
			return nil, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts.Page = resp.NextPage
	}
}

func (c *Client) CreateRelease(ctx context.Context, owner, repo string, release reconcile.Release) (*reconcile.Release, error) {
	body := &gh.RepositoryRelease{
		TagName:    gh.Ptr(release.Tag),
		Name:       gh.Ptr(release.Title),
		Body:       gh.Ptr(release.Description),
		Draft:      gh.Ptr(release.Draft),
		Prerelease: gh.Ptr(release.Prerelease),
	}
	if release.Target != "" {
		body.TargetCommitish = gh.Ptr(release.Target)
	}

	created, _, err := c.api.Repositories.CreateRelease(ctx, owner, repo, body)
	if err != nil {
		return nil, apiError("creating release "+release.Tag, err)
	}
	out := convertRelease(created)
	return &out, nil
}

func (c *Client) UpdateRelease(ctx context.Context, owner, repo string, id int64, update reconcile.ReleaseUpdate) (*reconcile.Release, error) {
	body := &gh.RepositoryRelease{
		TargetCommitish: update.Target,
		Name:            update.Title,
		Body:            update.Description,
		Draft:           update.Draft,
		Prerelease:      update.Prerelease,
	}

	edited, _, err := c.api.Repositories.EditRelease(ctx, owner, repo, id, body)
	if err != nil {
		return nil, apiError("updating release "+owner+"/"+repo, err)
	}
	out := convertRelease(edited)
	return &out, nil
}

func convertRelease(r *gh.RepositoryRelease) reconcile.Release {
	return reconcile.Release{
		ID:          r.GetID(),
		Tag:         r.GetTagName(),
		Target:      r.GetTargetCommitish(),
		Title:       r.GetName(),
		Description: r.GetBody(),
		Draft:       r.GetDraft(),
		Prerelease:  r.GetPrerelease(),
		URL:         r.GetHTMLURL(),
	}
}
