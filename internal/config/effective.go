package config

import (
	"strings"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/git"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

// Validate checks every section and returns an errs.ErrConfiguration error
// naming the first offending field.
func (c *Config) Validate() error {
	if _, err := git.ParseBackend(c.Git.Backend); err != nil {
		return errs.Configuration("git.backend: %v", err)
	}
	if c.GitHub.AppID != 0 && c.GitHub.AppKeyPath == "" {
		return errs.Configuration("github.app-key-path is required when github.app-id is set")
	}

	for i, r := range c.Releases {
		if r.Repository == "" {
			return errs.Configuration("releases[%d].repository is required", i)
		}
		if r.Tag == "" {
			return errs.Configuration("releases[%d].tag is required", i)
		}
		if c.ReleaseOwner(r) == "" {
			return errs.Configuration("releases[%d].owner is required when github.organization and github.user are empty", i)
		}
	}
	for i, v := range c.Versions {
		if err := v.ProjectID().Validate(); err != nil {
			return errs.Configuration("versions[%d]: %v", i, err)
		}
		if v.Version == "" {
			return errs.Configuration("versions[%d].version is required", i)
		}
	}
	for i, is := range c.Issues {
		if err := is.ProjectID().Validate(); err != nil {
			return errs.Configuration("issues[%d]: %v", i, err)
		}
		for j, t := range is.Transitions {
			if !validStatus(t.To) {
				return errs.Configuration("issues[%d].transitions[%d].to must be %s or %s, got %q", i, j, reconcile.StatusOpen, reconcile.StatusClosed, t.To)
			}
			if t.From != "" && !validStatus(t.From) {
				return errs.Configuration("issues[%d].transitions[%d].from must be %s or %s, got %q", i, j, reconcile.StatusOpen, reconcile.StatusClosed, t.From)
			}
		}
	}
	return nil
}

func validStatus(s string) bool {
	return s == "" || strings.EqualFold(s, reconcile.StatusOpen) || strings.EqualFold(s, reconcile.StatusClosed)
}

// ReleaseOwner returns the owner of r: its own, else the organization, else
// the user.
func (c *Config) ReleaseOwner(r ReleaseConfig) string {
	return coalesce(r.Owner, c.GitHub.Organization, c.GitHub.User)
}

// ReleaseSpecs resolves the desired releases.
func (c *Config) ReleaseSpecs() []reconcile.ReleaseSpec {
	specs := make([]reconcile.ReleaseSpec, 0, len(c.Releases))
	for _, r := range c.Releases {
		specs = append(specs, reconcile.ReleaseSpec{
			Owner:       c.ReleaseOwner(r),
			Repository:  r.Repository,
			Tag:         r.Tag,
			Target:      r.Target,
			Title:       r.Title,
			Description: r.Description,
			Draft:       r.Draft,
			Prerelease:  r.Prerelease,
		})
	}
	return specs
}

// Repository returns the git repository handle.
func (c *Config) Repository() git.Repository {
	return git.Repository{
		LocalPath:         c.Git.Path,
		RemoteURL:         c.Git.Remote,
		UserName:          c.Git.Username,
		Password:          c.Git.Password,
		RecurseSubmodules: c.Git.RecurseSubmodules,
	}
}

// GitOptions returns the options selecting the git backend.
func (c *Config) GitOptions() git.Options {
	return git.Options{
		Backend:       git.Backend(c.Git.Backend),
		GitExecutable: c.Git.Executable,
	}
}

// TransitionRequests evaluates the filter of c and returns one request per
// configured transition.
func (c IssuesConfig) TransitionRequests() ([]reconcile.TransitionRequest, error) {
	filter, err := c.IssueFilter()
	if err != nil {
		return nil, err
	}
	reqs := make([]reconcile.TransitionRequest, 0, len(c.Transitions))
	for _, t := range c.Transitions {
		reqs = append(reqs, reconcile.TransitionRequest{
			FromStatus: t.From,
			ToStatus:   t.To,
			Comment:    t.Comment,
			Filter:     filter,
		})
	}
	return reqs, nil
}

// IssueFilter evaluates the filter expressions against Variables.
func (c IssuesConfig) IssueFilter() (reconcile.IssueFilter, error) {
	return reconcile.BuildIssueFilter(c.Filter, reconcile.NewExpander(reconcile.Variables(c.Variables)))
}
