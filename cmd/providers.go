package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/config"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
	ghprovider "github.com/MyCarrier-DevOps/go-gitconverge/internal/github"
	glprovider "github.com/MyCarrier-DevOps/go-gitconverge/internal/gitlab"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

// Provider names accepted by --provider.
const (
	providerGitHub = "github"
	providerGitLab = "gitlab"
)

var (
	flagGitHubToken      string
	flagGitHubURL        string
	flagGitHubAppID      int64
	flagGitHubAppKeyPath string
	flagGitLabToken      string
	flagGitLabURL        string
)

// workDir is where the configuration file is auto-detected.
var workDir = "."

func addGitHubFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagGitHubToken, "github-token", "", "GitHub token (or set GITHUB_TOKEN env var)")
	cmd.Flags().StringVar(&flagGitHubURL, "github-url", "", "GitHub API base URL for GitHub Enterprise (or set GITHUB_API_URL env var)")
	cmd.Flags().Int64Var(&flagGitHubAppID, "github-app-id", 0, "GitHub App ID (or set GH_APP_ID env var)")
	cmd.Flags().StringVar(&flagGitHubAppKeyPath, "github-app-key", "", "path to GitHub App private key PEM file (or set GH_APP_PRIVATE_KEY env var)")
}

func addGitLabFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagGitLabToken, "gitlab-token", "", "GitLab token (or set GITLAB_TOKEN env var)")
	cmd.Flags().StringVar(&flagGitLabURL, "gitlab-url", "", "GitLab instance URL (or set GITLAB_API_URL env var)")
}

// loadConfig loads --config, or the configuration auto-detected in workDir,
// and applies the provider flags on top.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx, flagConfig, workDir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	overrideString(&cfg.GitHub.Token, flagGitHubToken)
	overrideString(&cfg.GitHub.APIURL, flagGitHubURL)
	overrideString(&cfg.GitHub.AppKeyPath, flagGitHubAppKeyPath)
	if flagGitHubAppID != 0 {
		cfg.GitHub.AppID = flagGitHubAppID
	}
	overrideString(&cfg.GitLab.Token, flagGitLabToken)
	overrideString(&cfg.GitLab.APIURL, flagGitLabURL)
	return cfg, nil
}

func overrideString(dst *string, flag string) {
	if flag != "" {
		*dst = flag
	}
}

// The provider constructors are variables so tests can substitute fakes.
var (
	newGitHubAPI = func(ctx context.Context, cfg *config.Config, owner string) (*ghprovider.Client, error) {
		return ghprovider.NewClient(ctx, ghprovider.ClientConfig{
			Token:      cfg.GitHub.Token,
			AppID:      cfg.GitHub.AppID,
			AppKeyPath: cfg.GitHub.AppKeyPath,
			BaseURL:    ghprovider.ResolveBaseURL(cfg.GitHub.APIURL),
			Owner:      owner,
		})
	}
	newGitLabAPI = func(cfg *config.Config) (*glprovider.Client, error) {
		return glprovider.NewClient(glprovider.ClientConfig{
			Token:   cfg.GitLab.Token,
			BaseURL: cfg.GitLab.APIURL,
		})
	}

	releaseAPIFor = func(ctx context.Context, cfg *config.Config, owner string) (reconcile.ReleaseAPI, error) {
		return newGitHubAPI(ctx, cfg, owner)
	}
	trackerAPIFor = func(_ context.Context, cfg *config.Config) (reconcile.TrackerAPI, error) {
		return newGitLabAPI(cfg)
	}
	directoryAPIFor = func(ctx context.Context, cfg *config.Config, provider string) (reconcile.DirectoryAPI, error) {
		switch provider {
		case providerGitHub:
			return newGitHubAPI(ctx, cfg, coalesce(cfg.GitHub.Organization, cfg.GitHub.User))
		case providerGitLab:
			return newGitLabAPI(cfg)
		default:
			return nil, errs.Configuration("unknown provider %q (expected %q or %q)", provider, providerGitHub, providerGitLab)
		}
	}
)

// parseOwnerRepo splits "owner/repo" on the first "/".
func parseOwnerRepo(s string) (string, string, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository format %q, expected owner/repo", s)
	}
	return parts[0], parts[1], nil
}

// parseProject splits "namespace/name" on the last "/" so that GitLab
// subgroups stay in the namespace.
func parseProject(s string) (reconcile.ProjectID, error) {
	i := strings.LastIndex(s, "/")
	if i <= 0 || i == len(s)-1 {
		return reconcile.ProjectID{}, fmt.Errorf("invalid project format %q, expected namespace/project", s)
	}
	return reconcile.ProjectID{Namespace: s[:i], Name: s[i+1:]}, nil
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
