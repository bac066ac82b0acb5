package git

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockClient_NilFuncsReturnDefaults(t *testing.T) {
	ctx := context.Background()
	m := &MockClient{}

	valid, err := m.IsRepositoryValid(ctx)
	require.NoError(t, err)
	require.False(t, valid)

	require.NoError(t, m.Clone(ctx, CloneOptions{}))
	require.NoError(t, m.Update(ctx, UpdateOptions{}))

	branches, err := m.EnumerateRemoteBranches(ctx)
	require.NoError(t, err)
	require.Nil(t, branches)

	require.NoError(t, m.Tag(ctx, "v1"))
	require.NoError(t, m.Archive(ctx, "/tmp/out"))
}

func TestMockClient_FuncsAreCalled(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	var gotClone CloneOptions
	var gotUpdate UpdateOptions
	var gotTag, gotTarget string

	m := &MockClient{
		IsRepositoryValidFunc: func(context.Context) (bool, error) { return true, nil },
		CloneFunc: func(_ context.Context, o CloneOptions) error {
			gotClone = o
			return nil
		},
		UpdateFunc: func(_ context.Context, o UpdateOptions) error {
			gotUpdate = o
			return boom
		},
		EnumerateRemoteBranchesFunc: func(context.Context) ([]string, error) {
			return []string{"main", "feature/x"}, nil
		},
		TagFunc: func(_ context.Context, name string) error {
			gotTag = name
			return nil
		},
		ArchiveFunc: func(_ context.Context, dir string) error {
			gotTarget = dir
			return nil
		},
	}

	valid, err := m.IsRepositoryValid(ctx)
	require.NoError(t, err)
	require.True(t, valid)

	require.NoError(t, m.Clone(ctx, CloneOptions{Branch: "main", RecurseSubmodules: true}))
	require.Equal(t, CloneOptions{Branch: "main", RecurseSubmodules: true}, gotClone)

	require.ErrorIs(t, m.Update(ctx, UpdateOptions{Branch: "dev"}), boom)
	require.Equal(t, "dev", gotUpdate.Branch)

	branches, err := m.EnumerateRemoteBranches(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"main", "feature/x"}, branches)

	require.NoError(t, m.Tag(ctx, "v1.2.3"))
	require.Equal(t, "v1.2.3", gotTag)

	require.NoError(t, m.Archive(ctx, "/tmp/out"))
	require.Equal(t, "/tmp/out", gotTarget)
}
