package reconcile

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
)

// ReleaseReconciler converges tagged releases.
type ReleaseReconciler struct {
	api ReleaseAPI
}

// NewReleaseReconciler returns a reconciler backed by api.
func NewReleaseReconciler(api ReleaseAPI) *ReleaseReconciler {
	return &ReleaseReconciler{api: api}
}

// GetRelease returns the current state of the release for tag. A missing
// release is reported as Exists=false, not as an error.
func (r *ReleaseReconciler) GetRelease(ctx context.Context, owner, repo, tag string) (ReleaseState, error) {
	if err := (ReleaseSpec{Owner: owner, Repository: repo, Tag: tag}).Validate(); err != nil {
		return ReleaseState{}, err
	}
	release, err := r.api.GetRelease(ctx, owner, repo, tag)
	if err != nil {
		return ReleaseState{}, fmt.Errorf("getting release %s in %s/%s: %w", tag, owner, repo, err)
	}
	if release == nil {
		return ReleaseState{}, nil
	}
	return ReleaseState{Exists: true, Release: *release}, nil
}

// EnsureRelease creates the release for desired.Tag or updates the fields that
// differ from desired. A converged release issues no mutating call.
func (r *ReleaseReconciler) EnsureRelease(ctx context.Context, desired ReleaseSpec) (Action, error) {
	if err := desired.Validate(); err != nil {
		return "", err
	}
	log := clog.FromContext(ctx)

	current, err := r.api.GetRelease(ctx, desired.Owner, desired.Repository, desired.Tag)
	if err != nil {
		return "", fmt.Errorf("getting release %s in %s/%s: %w", desired.Tag, desired.Owner, desired.Repository, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if current == nil {
		log.Infof("Creating release %s in %s/%s...", desired.Tag, desired.Owner, desired.Repository)
		_, err := r.api.CreateRelease(ctx, desired.Owner, desired.Repository, Release{
			Tag:         desired.Tag,
			Target:      desired.Target,
			Title:       desired.Title,
			Description: desired.Description,
			Draft:       desired.Draft,
			Prerelease:  desired.Prerelease,
		})
		if err != nil {
			return "", fmt.Errorf("creating release %s: %w", desired.Tag, err)
		}
		return ActionCreated, nil
	}

	update := diffRelease(*current, desired)
	if update.IsEmpty() {
		log.Debugf("Release %s in %s/%s is up to date.", desired.Tag, desired.Owner, desired.Repository)
		return ActionUnchanged, nil
	}

	log.Infof("Updating release %s in %s/%s...", desired.Tag, desired.Owner, desired.Repository)
	if _, err := r.api.UpdateRelease(ctx, desired.Owner, desired.Repository, current.ID, update); err != nil {
		return "", fmt.Errorf("updating release %s: %w", desired.Tag, err)
	}
	return ActionUpdated, nil
}

// PlanRelease returns the action EnsureRelease would take given the current
// state.
func PlanRelease(current ReleaseState, desired ReleaseSpec) Action {
	switch {
	case !current.Exists:
		return ActionCreated
	case diffRelease(current.Release, desired).IsEmpty():
		return ActionUnchanged
	default:
		return ActionUpdated
	}
}

// diffRelease returns the fields of desired that differ from current. The tag
// never changes.
func diffRelease(current Release, desired ReleaseSpec) ReleaseUpdate {
	var u ReleaseUpdate
	if desired.Target != "" && desired.Target != current.Target {
		u.Target = &desired.Target
	}
	if desired.Title != current.Title {
		u.Title = &desired.Title
	}
	if desired.Description != current.Description {
		u.Description = &desired.Description
	}
	if desired.Draft != current.Draft {
		u.Draft = &desired.Draft
	}
	if desired.Prerelease != current.Prerelease {
		u.Prerelease = &desired.Prerelease
	}
	return u
}
