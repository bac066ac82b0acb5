package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Global flags shared across commands.
var (
	flagConfig    string
	flagOutput    string
	flagVerbosity string
)

// rootCmd is the top-level command for gitconverge.
var rootCmd = &cobra.Command{
	Use:   "gitconverge",
	Short: "Converge git repositories and hosted releases, milestones and issues",
	Long: `gitconverge performs repository operations (clone, update, tag, archive,
branch listing) through go-git or the git executable, and reconciles GitHub
releases and GitLab milestones and issues with a desired state.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		ctx, err := setupLogging(cmd.Context(), cmd.ErrOrStderr(), flagVerbosity)
		if err != nil {
			return err
		}
		cmd.SetContext(ctx)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default: auto-detect)")
	rootCmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "", "output format: json, or empty for text")
	rootCmd.PersistentFlags().StringVarP(&flagVerbosity, "verbosity", "v", "info", "log verbosity: quiet, info, debug")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
