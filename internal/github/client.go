// Package github implements the release and directory APIs of the
// reconcilers on top of the GitHub REST API.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/bradleyfalzon/ghinstallation/v2"
	gh "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

// Compile-time checks that Client implements the reconciler APIs.
var (
	_ reconcile.ReleaseAPI   = (*Client)(nil)
	_ reconcile.DirectoryAPI = (*Client)(nil)
)

// ClientConfig holds the configuration for creating a GitHub API client.
type ClientConfig struct {
	// Token is a GitHub personal access token or GITHUB_TOKEN.
	// Falls back to GITHUB_TOKEN env var if empty.
	Token string

	// AppID is the GitHub App ID for app authentication.
	// Falls back to GH_APP_ID env var if zero.
	AppID int64

	// AppKeyPath is the path to a GitHub App private key PEM file.
	// Falls back to GH_APP_PRIVATE_KEY env var if empty.
	AppKeyPath string

	// BaseURL is a custom GitHub API base URL for GitHub Enterprise.
	// Falls back to GITHUB_API_URL env var if empty.
	BaseURL string

	// Owner is the organization or user the app installation belongs to.
	Owner string
}

// Client is an authenticated GitHub REST client.
type Client struct {
	api *gh.Client
}

// New wraps an existing go-github client.
func New(api *gh.Client) *Client {
	return &Client{api: api}
}

// NewClient creates an authenticated GitHub API client.
// Auth resolution order: Token flag → GITHUB_TOKEN env → App credentials → error.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	baseURL := resolveString(cfg.BaseURL, "GITHUB_API_URL")

	token := resolveString(cfg.Token, "GITHUB_TOKEN")
	if token != "" {
		api, err := newTokenClient(ctx, token, baseURL)
		if err != nil {
			return nil, err
		}
		return New(api), nil
	}

	appID := cfg.AppID
	if appID == 0 {
		if s := os.Getenv("GH_APP_ID"); s != "" {
			if v, err := strconv.ParseInt(s, 10, 64); err == nil {
				appID = v
			}
		}
	}
	appKey := resolveString(cfg.AppKeyPath, "GH_APP_PRIVATE_KEY")

	if appID != 0 && appKey != "" {
		api, err := newAppClient(ctx, appID, appKey, cfg.Owner, baseURL)
		if err != nil {
			return nil, err
		}
		return New(api), nil
	}

	return nil, errs.Configuration("no GitHub authentication provided: set GITHUB_TOKEN, use --github-token, or provide --github-app-id and --github-app-key")
}

func newTokenClient(ctx context.Context, token, baseURL string) (*gh.Client, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(ctx, ts)

	if baseURL != "" {
		return gh.NewClient(httpClient).WithEnterpriseURLs(baseURL, baseURL)
	}
	return gh.NewClient(httpClient), nil
}

func newAppClient(ctx context.Context, appID int64, keyPath, owner, baseURL string) (*gh.Client, error) {
	if owner == "" {
		return nil, errs.Configuration("GitHub App authentication needs an owner to find the installation")
	}

	appTransport, err := ghinstallation.NewAppsTransportKeyFromFile(http.DefaultTransport, appID, keyPath)
	if err != nil {
		return nil, fmt.Errorf("creating GitHub App transport: %w", err)
	}
	if baseURL != "" {
		appTransport.BaseURL = baseURL
	}

	appClient := gh.NewClient(&http.Client{Transport: appTransport})
	if baseURL != "" {
		appClient, err = appClient.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("setting enterprise URL: %w", err)
		}
	}

	installationID, err := findInstallation(ctx, appClient, owner)
	if err != nil {
		return nil, err
	}

	installTransport, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, appID, installationID, keyPath)
	if err != nil {
		return nil, fmt.Errorf("creating installation transport: %w", err)
	}
	if baseURL != "" {
		installTransport.BaseURL = baseURL
	}

	client := gh.NewClient(&http.Client{Transport: installTransport})
	if baseURL != "" {
		return client.WithEnterpriseURLs(baseURL, baseURL)
	}
	return client, nil
}

// findInstallation finds the GitHub App installation for the given owner.
func findInstallation(ctx context.Context, client *gh.Client, owner string) (int64, error) {
	opts := &gh.ListOptions{PerPage: 100}

	for {
		installations, resp, err := client.Apps.ListInstallations(ctx, opts)
		if err != nil {
			return 0, fmt.Errorf("listing GitHub App installations: %w", err)
		}

		for _, inst := range installations {
			if inst.GetAccount().GetLogin() == owner {
				return inst.GetID(), nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return 0, fmt.Errorf("no GitHub App installation found for owner %q", owner)
}

// IsNotFoundError returns true if the error represents an HTTP 404 response
// from the GitHub API.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		return ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}

// apiError converts a go-github error into an errs.OperationError carrying the
// HTTP status and message.
func apiError(op string, err error) error {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		detail := ghErr.Response.Status
		if ghErr.Message != "" {
			detail += ": " + ghErr.Message
		}
		for _, e := range ghErr.Errors {
			if e.Message != "" {
				detail += "; " + e.Message
			} else if e.Code != "" {
				detail += "; " + e.Field + " " + e.Code
			}
		}
		return errs.Operation(op, detail, err)
	}
	return errs.Operation(op, "", err)
}

// resolveString returns the flag value if non-empty, otherwise the env var value.
func resolveString(flag, envKey string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(envKey)
}

// ResolveBaseURL resolves the GitHub API base URL from the flag value or
// the GITHUB_API_URL environment variable. Returns empty string for github.com.
func ResolveBaseURL(flagValue string) string {
	return resolveString(flagValue, "GITHUB_API_URL")
}
