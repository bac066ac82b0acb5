package git

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRemoteRef_BranchName(t *testing.T) {
	tests := []struct {
		canonical string
		name      string
		ok        bool
	}{
		{"refs/heads/main", "main", true},
		{"refs/heads/feature/auth", "feature/auth", true},
		{"refs/tags/v1.0.0", "", false},
		{"refs/remotes/origin/main", "", false},
		{"HEAD", "", false},
		{"refs/pull/1/head", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.canonical, func(t *testing.T) {
			name, ok := RemoteRef{CanonicalName: tt.canonical}.BranchName()
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.name, name)
		})
	}
}

func TestBranchNames_FiltersAndKeepsOrder(t *testing.T) {
	refs := []RemoteRef{
		{CanonicalName: "HEAD"},
		{CanonicalName: "refs/heads/main"},
		{CanonicalName: "refs/tags/v1"},
		{CanonicalName: "refs/heads/release-1"},
	}
	require.Equal(t, []string{"main", "release-1"}, BranchNames(refs))
}

func TestBranchNames_Empty(t *testing.T) {
	require.Empty(t, BranchNames(nil))
}

func TestCloneOptions_String(t *testing.T) {
	require.Equal(t, "branch=(default) recurse-submodules=false", CloneOptions{}.String())
	require.Equal(t, "branch=dev recurse-submodules=true", CloneOptions{Branch: "dev", RecurseSubmodules: true}.String())
}
