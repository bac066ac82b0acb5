package git

import (
	"context"
	"fmt"
	"net/url"

	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// CredentialType is a bit set of credential kinds a remote accepts.
type CredentialType uint8

const (
	CredentialUsernamePassword CredentialType = 1 << iota
	CredentialDefault
)

// supportedCredentialTypes is what both backends can hand to a remote.
const supportedCredentialTypes = CredentialUsernamePassword | CredentialDefault

// Credential is either a username/password pair or, when Username is empty,
// the anonymous/default credential.
type Credential struct {
	Username string
	Password string
}

// IsDefault reports whether the credential is the anonymous/default one.
func (c Credential) IsDefault() bool { return c.Username == "" }

// CredentialFunc resolves the credential for a remote operation. It is invoked
// once per network call and must not cache.
type CredentialFunc func(remoteURL, usernameFromURL string, types CredentialType) (Credential, error)

// RepositoryCredentials returns a CredentialFunc backed by the repository
// handle: default credentials when no user name is configured, otherwise the
// configured user name and password.
func RepositoryCredentials(ctx context.Context, repo Repository) CredentialFunc {
	userName, password := repo.UserName, repo.Password
	return func(_, _ string, types CredentialType) (Credential, error) {
		if userName == "" {
			clog.FromContext(ctx).Debugf("Connecting with default credentials...")
			return Credential{}, nil
		}
		if types&CredentialUsernamePassword == 0 {
			return Credential{}, fmt.Errorf("remote does not accept username/password credentials for user %q", userName)
		}
		clog.FromContext(ctx).Debugf("Connecting as user '%s'...", userName)
		return Credential{Username: userName, Password: password}, nil
	}
}

// usernameFromURL extracts the user name embedded in a remote URL, if any.
func usernameFromURL(raw string) string {
	ep, err := transport.NewEndpoint(raw)
	if err != nil {
		return ""
	}
	return ep.User
}

// resolveCredential invokes creds for remoteURL.
func resolveCredential(creds CredentialFunc, remoteURL string) (Credential, error) {
	if creds == nil {
		return Credential{}, nil
	}
	cred, err := creds(remoteURL, usernameFromURL(remoteURL), supportedCredentialTypes)
	if err != nil {
		return Credential{}, fmt.Errorf("resolving credentials for remote: %w", err)
	}
	return cred, nil
}

// authMethod converts a credential to a go-git auth method. The default
// credential maps to nil so go-git falls back to its own defaults.
func authMethod(remoteURL string, cred Credential) transport.AuthMethod {
	if cred.IsDefault() {
		return nil
	}
	if ep, err := transport.NewEndpoint(remoteURL); err == nil && ep.Protocol == "ssh" {
		return &gitssh.Password{User: cred.Username, Password: cred.Password}
	}
	return &githttp.BasicAuth{Username: cred.Username, Password: cred.Password}
}

// credentialedURL embeds an http(s) credential in remoteURL for the git
// executable. Other schemes and the default credential are returned as is.
func credentialedURL(remoteURL string, cred Credential) string {
	if cred.IsDefault() {
		return remoteURL
	}
	u, err := url.Parse(remoteURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return remoteURL
	}
	u.User = url.UserPassword(cred.Username, cred.Password)
	return u.String()
}
