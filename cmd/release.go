package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/output"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

var (
	flagTag         string
	flagTarget      string
	flagTitle       string
	flagDescription string
	flagDraft       bool
	flagPrerelease  bool
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Inspect and reconcile GitHub releases",
}

var releaseGetCmd = &cobra.Command{
	Use:   "get owner/repo",
	Short: "Print the current state of the release for --tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		owner, repo, err := parseOwnerRepo(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		api, err := releaseAPIFor(ctx, cfg, owner)
		if err != nil {
			return err
		}
		state, err := reconcile.NewReleaseReconciler(api).GetRelease(ctx, owner, repo, flagTag)
		if err != nil {
			return err
		}
		return writeOutput(cmd, state, func(w io.Writer) error {
			return output.WriteAll(w, output.ReleaseVariables(state))
		})
	},
}

var releaseEnsureCmd = &cobra.Command{
	Use:   "ensure owner/repo",
	Short: "Create or update the release for --tag",
	Long: `Create the release for --tag when it does not exist, otherwise update only
the fields that differ. Running it again with the same flags makes no change.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		owner, repo, err := parseOwnerRepo(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		api, err := releaseAPIFor(ctx, cfg, owner)
		if err != nil {
			return err
		}
		action, err := reconcile.NewReleaseReconciler(api).EnsureRelease(ctx, reconcile.ReleaseSpec{
			Owner:       owner,
			Repository:  repo,
			Tag:         flagTag,
			Target:      flagTarget,
			Title:       flagTitle,
			Description: flagDescription,
			Draft:       flagDraft,
			Prerelease:  flagPrerelease,
		})
		if err != nil {
			return err
		}
		result := output.Result{Kind: "release", Target: args[0] + "@" + flagTag, Action: action}
		return writeOutput(cmd, result, func(w io.Writer) error {
			return output.WriteResults(w, []output.Result{result})
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{releaseGetCmd, releaseEnsureCmd} {
		c.Flags().StringVar(&flagTag, "tag", "", "release tag")
		_ = c.MarkFlagRequired("tag")
		addGitHubFlags(c)
		releaseCmd.AddCommand(c)
	}
	releaseEnsureCmd.Flags().StringVar(&flagTarget, "target", "", "commitish the tag is created from (default: repository default branch)")
	releaseEnsureCmd.Flags().StringVar(&flagTitle, "title", "", "release title")
	releaseEnsureCmd.Flags().StringVar(&flagDescription, "description", "", "release notes")
	releaseEnsureCmd.Flags().BoolVar(&flagDraft, "draft", false, "mark the release as a draft")
	releaseEnsureCmd.Flags().BoolVar(&flagPrerelease, "prerelease", false, "mark the release as a prerelease")
	rootCmd.AddCommand(releaseCmd)
}
