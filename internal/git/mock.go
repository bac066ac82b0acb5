package git

import "context"

// Compile-time check that MockClient implements Client.
var _ Client = (*MockClient)(nil)

// MockClient is a configurable mock implementation of Client for testing.
// Each method is backed by a function field. If the function field is nil,
// the method returns sensible zero values.
type MockClient struct {
	IsRepositoryValidFunc       func(context.Context) (bool, error)
	CloneFunc                   func(context.Context, CloneOptions) error
	UpdateFunc                  func(context.Context, UpdateOptions) error
	EnumerateRemoteBranchesFunc func(context.Context) ([]string, error)
	TagFunc                     func(context.Context, string) error
	ArchiveFunc                 func(context.Context, string) error
}

func (m *MockClient) IsRepositoryValid(ctx context.Context) (bool, error) {
	if m.IsRepositoryValidFunc != nil {
		return m.IsRepositoryValidFunc(ctx)
	}
	return false, nil
}

func (m *MockClient) Clone(ctx context.Context, opts CloneOptions) error {
	if m.CloneFunc != nil {
		return m.CloneFunc(ctx, opts)
	}
	return nil
}

func (m *MockClient) Update(ctx context.Context, opts UpdateOptions) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, opts)
	}
	return nil
}

func (m *MockClient) EnumerateRemoteBranches(ctx context.Context) ([]string, error) {
	if m.EnumerateRemoteBranchesFunc != nil {
		return m.EnumerateRemoteBranchesFunc(ctx)
	}
	return nil, nil
}

func (m *MockClient) Tag(ctx context.Context, name string) error {
	if m.TagFunc != nil {
		return m.TagFunc(ctx, name)
	}
	return nil
}

func (m *MockClient) Archive(ctx context.Context, targetDirectory string) error {
	if m.ArchiveFunc != nil {
		return m.ArchiveFunc(ctx, targetDirectory)
	}
	return nil
}
