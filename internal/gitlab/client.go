// Package gitlab implements the tracker and directory APIs of the reconcilers
// on top of the GitLab REST API.
package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

// Compile-time checks that Client implements the reconciler APIs.
var (
	_ reconcile.TrackerAPI   = (*Client)(nil)
	_ reconcile.DirectoryAPI = (*Client)(nil)
)

// DefaultHost is used when no base URL is configured.
const DefaultHost = "https://gitlab.com"

// ClientConfig holds the settings needed to create a GitLab client.
type ClientConfig struct {
	// Token is a personal, group or project access token.
	// Falls back to GITLAB_TOKEN env var if empty.
	Token string
	// BaseURL is the GitLab instance (e.g. "https://gitlab.example.com").
	// Falls back to GITLAB_API_URL env var, then DefaultHost.
	BaseURL string
	// HTTPClient overrides the underlying HTTP client.
	HTTPClient *http.Client
}

// Client is an authenticated GitLab REST client.
type Client struct {
	api *gl.Client
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	token := resolveString(cfg.Token, "GITLAB_TOKEN")
	if token == "" {
		return nil, errs.Configuration("no GitLab authentication provided: set GITLAB_TOKEN or use --gitlab-token")
	}

	host := resolveString(cfg.BaseURL, "GITLAB_API_URL")
	if host == "" {
		host = DefaultHost
	}

	opts := []gl.ClientOptionFunc{gl.WithBaseURL(host)}
	if cfg.HTTPClient != nil {
		opts = append(opts, gl.WithHTTPClient(cfg.HTTPClient))
	}
	api, err := gl.NewClient(token, opts...)
	if err != nil {
		return nil, errs.Configuration("creating GitLab client for %s: %v", host, err)
	}
	return &Client{api: api}, nil
}

// perPage is the page size of every collection request.
const perPage = 100

// withQuery replaces the request query with raw, a query string with or
// without its leading "?", and asks for page when it is past the first.
func withQuery(raw string, page int64) gl.RequestOptionFunc {
	return func(req *retryablehttp.Request) error {
		q := strings.TrimPrefix(raw, "?")
		if page > 1 {
			if q != "" {
				q += "&"
			}
			q += fmt.Sprintf("page=%d", page)
		}
		req.URL.RawQuery = q
		return nil
	}
}

// collect gathers every page of a collection. fetch requests the current
// page and advance points the options at the page after resp.
func collect[T any](ctx context.Context, op string, fetch func() ([]T, *gl.Response, error), advance func(resp *gl.Response)) ([]T, error) {
	var all []T
	for {
		items, resp, err := fetch()
		if err != nil {
			return nil, apiError(op, resp, err)
		}
		all = append(all, items...)

		if resp.NextPage == 0 {
			return all, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		advance(resp)
	}
}

// apiError converts a client-go error into an errs.OperationError carrying the
// HTTP status and message.
func apiError(op string, resp *gl.Response, err error) error {
	var glErr *gl.ErrorResponse
	if errors.As(err, &glErr) {
		detail := glErr.Message
		if glErr.Response != nil {
			detail = strings.TrimSpace(glErr.Response.Status + " " + detail)
		}
		return errs.Operation(op, detail, err)
	}
	if resp != nil && resp.Response != nil {
		return errs.Operation(op, resp.Status, err)
	}
	return errs.Operation(op, "", err)
}

// IsNotFoundError reports whether err is a 404 response from the GitLab API.
func IsNotFoundError(err error) bool {
	var glErr *gl.ErrorResponse
	if errors.As(err, &glErr) {
		return glErr.Response != nil && glErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}

// resolveString returns the flag value if non-empty, otherwise the env var value.
func resolveString(flag, envKey string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(envKey)
}
