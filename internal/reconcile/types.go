// Package reconcile drives hosting-service state toward a desired
// configuration. It reads current state through narrow API interfaces, diffs
// it against the desired state and issues only the corrective calls needed,
// so every operation is safe to repeat.
package reconcile

import (
	"strings"
	"time"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
)

// ProjectID identifies a remote project.
type ProjectID struct {
	Namespace string
	Name      string
}

// String returns "namespace/name".
func (p ProjectID) String() string {
	return p.Namespace + "/" + p.Name
}

// Validate reports a missing namespace or project name.
func (p ProjectID) Validate() error {
	if p.Namespace == "" || p.Name == "" {
		return errs.Validation("project %q must have both a namespace and a name", p.String())
	}
	return nil
}

// ReleaseSpec is the desired state of a tagged release.
type ReleaseSpec struct {
	Owner      string
	Repository string
	Tag        string
	// Target is the commitish the tag is created from. Empty means the
	// repository default branch and is never diffed.
	Target      string
	Title       string
	Description string
	Draft       bool
	Prerelease  bool
}

// Validate checks the identity fields.
func (s ReleaseSpec) Validate() error {
	switch {
	case s.Owner == "":
		return errs.Validation("release owner is required")
	case s.Repository == "":
		return errs.Validation("release repository is required")
	case s.Tag == "":
		return errs.Validation("release tag is required")
	}
	return nil
}

// Release is a release as reported by the hosting service.
type Release struct {
	ID          int64  `json:"id,omitempty"`
	Tag         string `json:"tag,omitempty"`
	Target      string `json:"target,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Draft       bool   `json:"draft"`
	Prerelease  bool   `json:"prerelease"`
	URL         string `json:"url,omitempty"`
}

// ReleaseState is the current state of a release. When Exists is false every
// other field is zero.
type ReleaseState struct {
	Exists bool `json:"exists"`
	Release
}

// ReleaseUpdate carries only the fields to change; nil means unchanged.
type ReleaseUpdate struct {
	Target      *string
	Title       *string
	Description *string
	Draft       *bool
	Prerelease  *bool
}

// IsEmpty reports whether the update changes nothing.
func (u ReleaseUpdate) IsEmpty() bool {
	return u.Target == nil && u.Title == nil && u.Description == nil && u.Draft == nil && u.Prerelease == nil
}

// MilestoneState is the open/closed state of a milestone.
type MilestoneState string

const (
	MilestoneOpen   MilestoneState = "open"
	MilestoneClosed MilestoneState = "closed"
)

// Milestone is keyed by Title within a project.
type Milestone struct {
	ID    int64          `json:"id"`
	Title string         `json:"title"`
	State MilestoneState `json:"state"`
}

// IssueTrackerVersion is a release version as seen by an issue tracker.
type IssueTrackerVersion struct {
	Version  string `json:"version"`
	IsClosed bool   `json:"isClosed"`
}

// Issue is a tracker issue. Status is free-form text from the remote.
type Issue struct {
	ID            int64     `json:"id"`
	Status        string    `json:"status"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Submitter     string    `json:"submitter,omitempty"`
	SubmittedDate time.Time `json:"submittedDate"`
	IsClosed      bool      `json:"isClosed"`
	URL           string    `json:"url,omitempty"`
}

// Transition is a state change applied to a milestone or an issue.
type Transition string

const (
	TransitionClose  Transition = "close"
	TransitionReopen Transition = "reopen"
)

// Issue statuses accepted as transition source and target.
const (
	StatusOpen   = "Open"
	StatusClosed = "Closed"
)

// canonicalStatus returns StatusOpen or StatusClosed for a case-insensitive
// match, and false for anything else.
func canonicalStatus(s string) (string, bool) {
	switch {
	case strings.EqualFold(s, StatusOpen):
		return StatusOpen, true
	case strings.EqualFold(s, StatusClosed):
		return StatusClosed, true
	default:
		return "", false
	}
}

// Action reports what a reconciliation did.
type Action string

const (
	ActionCreated   Action = "created"
	ActionUpdated   Action = "updated"
	ActionClosed    Action = "closed"
	ActionReopened  Action = "reopened"
	ActionUnchanged Action = "unchanged"
)
