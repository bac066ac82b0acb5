// Package git provides the repository operations contract (Client) and its two
// backends: GoGitClient drives go-git in-process, ProcessClient drives an
// external git executable through redaction-aware Arguments.
package git

import (
	"strings"
)

const (
	localBranchPrefix          = "refs/heads/"
	remoteTrackingBranchPrefix = "refs/remotes/"
	tagRefPrefix               = "refs/tags/"

	// originRemote is the only remote the backends operate against.
	originRemote = "origin"
)

// Repository identifies the local working copy and its remote. It is owned by
// the caller and read, never modified, by the backends.
type Repository struct {
	// LocalPath is the working copy directory.
	LocalPath string
	// RemoteURL is the URL of the "origin" remote.
	RemoteURL string
	// UserName is empty for anonymous access.
	UserName string
	Password string
	// RecurseSubmodules is the default for clone and update.
	RecurseSubmodules bool
}

// CloneOptions configures a single clone.
type CloneOptions struct {
	// Branch to check out. Empty means the remote default branch.
	Branch            string
	RecurseSubmodules bool
}

// String renders the options for debug logs.
func (o CloneOptions) String() string {
	return "branch=" + orDefault(o.Branch) + " recurse-submodules=" + boolString(o.RecurseSubmodules)
}

// UpdateOptions configures a single update.
type UpdateOptions struct {
	// Branch to switch to before fetching. Empty keeps the current branch.
	Branch            string
	RecurseSubmodules bool
}

// RemoteRef is a reference advertised by a remote.
type RemoteRef struct {
	CanonicalName string
}

// BranchName returns the branch name and true when the reference lives in the
// refs/heads/ namespace.
func (r RemoteRef) BranchName() (string, bool) {
	if !strings.HasPrefix(r.CanonicalName, localBranchPrefix) {
		return "", false
	}
	return r.CanonicalName[len(localBranchPrefix):], true
}

// BranchNames keeps the refs/heads/ references, prefix stripped, in order.
func BranchNames(refs []RemoteRef) []string {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		if name, ok := ref.BranchName(); ok {
			names = append(names, name)
		}
	}
	return names
}

// remoteTrackingName returns "origin/<branch>".
func remoteTrackingName(branch string) string {
	return originRemote + "/" + branch
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
