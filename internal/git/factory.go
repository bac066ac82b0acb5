package git

import (
	"strings"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
)

// Backend selects a Client implementation.
type Backend string

const (
	// BackendLibrary runs git operations in-process with go-git.
	BackendLibrary Backend = "library"
	// BackendProcess runs the git executable.
	BackendProcess Backend = "process"
)

// ParseBackend parses a backend name. The empty string selects BackendLibrary.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(s))) {
	case "", BackendLibrary:
		return BackendLibrary, nil
	case BackendProcess:
		return BackendProcess, nil
	default:
		return "", errs.Configuration("unknown git backend %q (expected %q or %q)", s, BackendLibrary, BackendProcess)
	}
}

// Options configures NewClient.
type Options struct {
	Backend Backend
	// GitExecutable is used by BackendProcess. Empty means "git" on PATH.
	GitExecutable string
	// Credentials overrides RepositoryCredentials.
	Credentials CredentialFunc
}

// NewClient returns the Client selected by opts.Backend for repo.
func NewClient(repo Repository, opts Options) (Client, error) {
	backend, err := ParseBackend(string(opts.Backend))
	if err != nil {
		return nil, err
	}
	if backend == BackendProcess {
		return NewProcessClient(repo, opts.Credentials, WithGitExecutable(opts.GitExecutable)), nil
	}
	return NewGoGitClient(repo, opts.Credentials), nil
}
