package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/git"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/output"
)

var (
	flagPath              string
	flagRemote            string
	flagUser              string
	flagPassword          string
	flagBranch            string
	flagRecurseSubmodules bool
	flagBackend           string
	flagGitExecutable     string
)

func addGitFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagPath, "path", "p", "", "local working copy path (default: git.path or \".\")")
	cmd.Flags().StringVar(&flagRemote, "remote", "", "remote repository URL (default: git.remote)")
	cmd.Flags().StringVar(&flagUser, "user", "", "user name for the remote (or set GIT_USERNAME env var)")
	cmd.Flags().StringVar(&flagPassword, "password", "", "password or token for the remote (or set GIT_PASSWORD env var)")
	cmd.Flags().BoolVar(&flagRecurseSubmodules, "recurse-submodules", false, "recurse into submodules")
	cmd.Flags().StringVar(&flagBackend, "backend", "", "git backend: library or process (default: git.backend)")
	cmd.Flags().StringVar(&flagGitExecutable, "git-executable", "", "git executable used by the process backend")
}

// newGitClient builds the Client selected by configuration and flags.
func newGitClient(ctx context.Context) (git.Client, git.Repository, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, git.Repository{}, err
	}

	repo := cfg.Repository()
	overrideString(&repo.LocalPath, flagPath)
	overrideString(&repo.RemoteURL, flagRemote)
	overrideString(&repo.UserName, flagUser)
	overrideString(&repo.Password, flagPassword)
	if repo.LocalPath == "" {
		repo.LocalPath = "."
	}
	if flagRecurseSubmodules {
		repo.RecurseSubmodules = true
	}

	opts := cfg.GitOptions()
	if flagBackend != "" {
		opts.Backend = git.Backend(flagBackend)
	}
	overrideString(&opts.GitExecutable, flagGitExecutable)

	client, err := git.NewClient(repo, opts)
	if err != nil {
		return nil, git.Repository{}, err
	}
	return client, repo, nil
}

var cloneCmd = &cobra.Command{
	Use:   "clone",
	Short: "Clone the remote repository into the local path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, repo, err := newGitClient(cmd.Context())
		if err != nil {
			return err
		}
		return client.Clone(cmd.Context(), git.CloneOptions{
			Branch:            flagBranch,
			RecurseSubmodules: repo.RecurseSubmodules,
		})
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Make the local working copy equal to the remote branch tip",
	Long: `Switch to --branch (creating a tracking branch when needed), fetch origin
and hard-reset the working copy. Local modifications are discarded. A missing
repository is cloned.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, repo, err := newGitClient(cmd.Context())
		if err != nil {
			return err
		}
		return client.Update(cmd.Context(), git.UpdateOptions{
			Branch:            flagBranch,
			RecurseSubmodules: repo.RecurseSubmodules,
		})
	},
}

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List the branches of the remote repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, _, err := newGitClient(cmd.Context())
		if err != nil {
			return err
		}
		branches, err := client.EnumerateRemoteBranches(cmd.Context())
		if err != nil {
			return err
		}
		return writeOutput(cmd, branches, func(w io.Writer) error {
			return output.WriteLines(w, branches)
		})
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag name",
	Short: "Tag HEAD and push the tag to origin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newGitClient(cmd.Context())
		if err != nil {
			return err
		}
		return client.Tag(cmd.Context(), args[0])
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive directory",
	Short: "Export the tree at HEAD into a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newGitClient(cmd.Context())
		if err != nil {
			return err
		}
		return client.Archive(cmd.Context(), args[0])
	},
}

var validCmd = &cobra.Command{
	Use:   "valid",
	Short: "Report whether the local path is a git repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, _, err := newGitClient(cmd.Context())
		if err != nil {
			return err
		}
		valid, err := client.IsRepositoryValid(cmd.Context())
		if err != nil {
			return err
		}
		return writeOutput(cmd, map[string]bool{"valid": valid}, func(w io.Writer) error {
			_, err := fmt.Fprintln(w, valid)
			return err
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{cloneCmd, updateCmd, branchesCmd, tagCmd, archiveCmd, validCmd} {
		addGitFlags(c)
		rootCmd.AddCommand(c)
	}
	cloneCmd.Flags().StringVarP(&flagBranch, "branch", "b", "", "branch to check out (default: remote HEAD)")
	updateCmd.Flags().StringVarP(&flagBranch, "branch", "b", "", "branch to switch to (default: current branch)")
}
