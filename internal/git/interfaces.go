package git

import "context"

// Client is the repository operations contract. GoGitClient and ProcessClient
// implement it with identical observable outcomes; MockClient stands in for
// tests. A Client holds no locks: concurrent calls against the same
// Repository must be serialized by the caller.
type Client interface {
	// IsRepositoryValid reports whether LocalPath contains a git repository.
	IsRepositoryValid(ctx context.Context) (bool, error)

	// Clone clones RemoteURL into LocalPath, creating directories as needed.
	Clone(ctx context.Context, opts CloneOptions) error

	// Update makes the working copy equal to the remote branch tip. Local
	// modifications are discarded. When LocalPath is not yet a repository
	// it is cloned instead.
	Update(ctx context.Context, opts UpdateOptions) error

	// EnumerateRemoteBranches lists the remote's branch names without
	// leaving any state on disk.
	EnumerateRemoteBranches(ctx context.Context) ([]string, error)

	// Tag creates a tag at HEAD and pushes it to origin.
	Tag(ctx context.Context, name string) error

	// Archive exports the tree of HEAD's commit into targetDirectory,
	// without git metadata.
	Archive(ctx context.Context, targetDirectory string) error
}
