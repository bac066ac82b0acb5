// Package config provides YAML configuration loading, environment overlay,
// defaults and validation for gitconverge.
package config

import (
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

// Config is the root configuration for gitconverge. It holds the connection
// settings of every provider and the desired state reconciled by "apply".
type Config struct {
	Git      GitConfig       `yaml:"git"`
	GitHub   GitHubConfig    `yaml:"github"`
	GitLab   GitLabConfig    `yaml:"gitlab"`
	Releases []ReleaseConfig `yaml:"releases"`
	Versions []VersionConfig `yaml:"versions"`
	Issues   []IssuesConfig  `yaml:"issues"`
}

// GitConfig selects the git backend and the repository handle.
type GitConfig struct {
	Backend    string `yaml:"backend" env:"GITCONVERGE_GIT_BACKEND"`
	Executable string `yaml:"executable" env:"GITCONVERGE_GIT_EXECUTABLE"`

	Path              string `yaml:"path"`
	Remote            string `yaml:"remote"`
	Username          string `yaml:"username" env:"GIT_USERNAME"`
	Password          string `yaml:"password" env:"GIT_PASSWORD"`
	RecurseSubmodules bool   `yaml:"recurse-submodules"`
}

// GitHubConfig holds GitHub connection settings. Token wins over the App
// credentials.
type GitHubConfig struct {
	APIURL     string `yaml:"api-url" env:"GITHUB_API_URL"`
	Token      string `yaml:"token" env:"GITHUB_TOKEN"`
	AppID      int64  `yaml:"app-id" env:"GH_APP_ID"`
	AppKeyPath string `yaml:"app-key-path" env:"GH_APP_PRIVATE_KEY"`

	// Organization and User name the default release owner, organization
	// first.
	Organization string `yaml:"organization"`
	User         string `yaml:"user"`
}

// GitLabConfig holds GitLab connection settings.
type GitLabConfig struct {
	APIURL string `yaml:"api-url" env:"GITLAB_API_URL"`
	Token  string `yaml:"token" env:"GITLAB_TOKEN"`
}

// ReleaseConfig is the desired state of one GitHub release. An empty Owner
// falls back to the github organization, then user.
type ReleaseConfig struct {
	Owner       string `yaml:"owner"`
	Repository  string `yaml:"repository"`
	Tag         string `yaml:"tag"`
	Target      string `yaml:"target"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Draft       bool   `yaml:"draft"`
	Prerelease  bool   `yaml:"prerelease"`
}

// VersionConfig is the desired state of one GitLab milestone.
type VersionConfig struct {
	Namespace string `yaml:"namespace"`
	Project   string `yaml:"project"`
	Version   string `yaml:"version"`
	Closed    bool   `yaml:"closed"`
}

// IssuesConfig selects the issues of one GitLab project and the transitions
// applied to them.
type IssuesConfig struct {
	Namespace string `yaml:"namespace"`
	Project   string `yaml:"project"`

	Filter reconcile.FilterSettings `yaml:"filter"`
	// Variables are available to the filter expressions, e.g. ReleaseNumber.
	Variables   map[string]string  `yaml:"variables"`
	Transitions []TransitionConfig `yaml:"transitions"`
}

// TransitionConfig moves issues from one status to another.
type TransitionConfig struct {
	From    string `yaml:"from"`
	To      string `yaml:"to"`
	Comment string `yaml:"comment"`
}

// ProjectID returns the project the issues belong to.
func (c IssuesConfig) ProjectID() reconcile.ProjectID {
	return reconcile.ProjectID{Namespace: c.Namespace, Name: c.Project}
}

// ProjectID returns the project the milestone belongs to.
func (c VersionConfig) ProjectID() reconcile.ProjectID {
	return reconcile.ProjectID{Namespace: c.Namespace, Name: c.Project}
}
