package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	gh "github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
)

// writeJSON encodes v as JSON to the response writer. Panics on error (test only).
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(err)
	}
}

// newTestServer creates a test HTTP server and a GitHub client pointed at it.
func newTestServer(t *testing.T, mux *http.ServeMux) (*gh.Client, func()) {
	t.Helper()
	server := httptest.NewServer(mux)
	client, err := gh.NewClient(nil).WithEnterpriseURLs(server.URL+"/", server.URL+"/")
	require.NoError(t, err)
	return client, server.Close
}

func TestResolveString_FlagTakesPrecedence(t *testing.T) {
	t.Setenv("TEST_VAR", "env_value")
	result := resolveString("flag_value", "TEST_VAR")
	require.Equal(t, "flag_value", result)
}

func TestResolveString_FallsBackToEnv(t *testing.T) {
	t.Setenv("TEST_VAR", "env_value")
	result := resolveString("", "TEST_VAR")
	require.Equal(t, "env_value", result)
}

func TestResolveString_ReturnsEmptyWhenBothEmpty(t *testing.T) {
	os.Unsetenv("TEST_VAR_EMPTY")
	result := resolveString("", "TEST_VAR_EMPTY")
	require.Equal(t, "", result)
}

func TestNewClient_NoAuth(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_APP_ID", "")
	t.Setenv("GH_APP_PRIVATE_KEY", "")

	_, err := NewClient(context.Background(), ClientConfig{})
	require.ErrorIs(t, err, errs.ErrConfiguration)
	require.Contains(t, err.Error(), "no GitHub authentication provided")
}

func TestNewClient_TokenAuth(t *testing.T) {
	client, err := NewClient(context.Background(), ClientConfig{Token: "ghp_test_token"})
	require.NoError(t, err)
	require.NotNil(t, client)
}

func TestNewClient_TokenFromEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_env_token")
	client, err := NewClient(context.Background(), ClientConfig{})
	require.NoError(t, err)
	require.NotNil(t, client)
}

func TestNewClient_TokenWithBaseURL(t *testing.T) {
	client, err := NewClient(context.Background(), ClientConfig{
		Token:   "ghp_test",
		BaseURL: "https://ghe.example.com/api/v3",
	})
	require.NoError(t, err)
	require.Equal(t, "https://ghe.example.com/api/v3/", client.api.BaseURL.String())
}

func TestNewClient_AppAuthMissingKey(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_APP_PRIVATE_KEY", "")

	_, err := NewClient(context.Background(), ClientConfig{AppID: 12345})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no GitHub authentication provided")
}

func TestNewClient_AppAuthNeedsOwner(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")

	_, err := NewClient(context.Background(), ClientConfig{AppID: 12345, AppKeyPath: "/some/key.pem"})
	require.ErrorIs(t, err, errs.ErrConfiguration)
	require.Contains(t, err.Error(), "owner")
}

func TestNewClient_AppAuthBadKeyFile(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")

	_, err := NewClient(context.Background(), ClientConfig{
		AppID:      12345,
		AppKeyPath: "/nonexistent/key.pem",
		Owner:      "testorg",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "creating GitHub App transport")
}

func TestNewClient_AppIDFromEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_APP_ID", "99999")
	t.Setenv("GH_APP_PRIVATE_KEY", "/nonexistent/key.pem")

	_, err := NewClient(context.Background(), ClientConfig{Owner: "testorg"})
	require.Error(t, err)
	// Should get past the "no auth" check and fail on the key file.
	require.Contains(t, err.Error(), "creating GitHub App transport")
}

func TestNewClient_InvalidAppIDEnv(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("GH_APP_ID", "not-a-number")
	t.Setenv("GH_APP_PRIVATE_KEY", "")

	_, err := NewClient(context.Background(), ClientConfig{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no GitHub authentication provided")
}

func TestFindInstallation_Found(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/app/installations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{
			{
				"id":      int64(111),
				"account": map[string]interface{}{"login": "other-org"},
			},
			{
				"id":      int64(222),
				"account": map[string]interface{}{"login": "target-org"},
			},
		})
	})

	client, cleanup := newTestServer(t, mux)
	defer cleanup()

	id, err := findInstallation(context.Background(), client, "target-org")
	require.NoError(t, err)
	require.Equal(t, int64(222), id)
}

func TestFindInstallation_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/app/installations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]interface{}{
			{
				"id":      int64(111),
				"account": map[string]interface{}{"login": "other-org"},
			},
		})
	})

	client, cleanup := newTestServer(t, mux)
	defer cleanup()

	_, err := findInstallation(context.Background(), client, "missing-org")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no GitHub App installation found")
}

func TestFindInstallation_APIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/app/installations", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
	})

	client, cleanup := newTestServer(t, mux)
	defer cleanup()

	_, err := findInstallation(context.Background(), client, "any-org")
	require.Error(t, err)
	require.Contains(t, err.Error(), "listing GitHub App installations")
}

func TestNewClient_BaseURLFromEnv(t *testing.T) {
	t.Setenv("GITHUB_API_URL", "https://ghe.example.com/api/v3")
	client, err := NewClient(context.Background(), ClientConfig{Token: "ghp_test"})
	require.NoError(t, err)
	require.NotNil(t, client)
}

func TestIsNotFoundError(t *testing.T) {
	require.False(t, IsNotFoundError(nil))
	require.True(t, IsNotFoundError(&gh.ErrorResponse{Response: &http.Response{StatusCode: http.StatusNotFound}}))
	require.False(t, IsNotFoundError(&gh.ErrorResponse{Response: &http.Response{StatusCode: http.StatusForbidden}}))
}

func TestAPIError(t *testing.T) {
	err := apiError("creating release v1", &gh.ErrorResponse{
		Response: &http.Response{StatusCode: 422, Status: "422 Unprocessable Entity"},
		Message:  "Validation Failed",
		Errors:   []gh.Error{{Resource: "Release", Field: "tag_name", Code: "already_exists"}},
	})
	require.ErrorIs(t, err, errs.ErrOperation)

	var opErr *errs.OperationError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, "creating release v1", opErr.Op)
	require.Equal(t, "422 Unprocessable Entity: Validation Failed; tag_name already_exists", opErr.Detail)
}
