package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/output"
)

var flagProvider string

var namespacesCmd = &cobra.Command{
	Use:   "namespaces",
	Short: "List the GitHub organizations or GitLab groups visible to the credentials",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		api, err := directoryAPIFor(ctx, cfg, flagProvider)
		if err != nil {
			return err
		}
		names, err := api.ListNamespaces(ctx)
		if err != nil {
			return err
		}
		return writeOutput(cmd, names, func(w io.Writer) error {
			return output.WriteLines(w, names)
		})
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects namespace",
	Short: "List the repositories of a GitHub owner or the projects of a GitLab group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig(ctx)
		if err != nil {
			return err
		}
		api, err := directoryAPIFor(ctx, cfg, flagProvider)
		if err != nil {
			return err
		}
		names, err := api.ListProjects(ctx, args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd, names, func(w io.Writer) error {
			return output.WriteLines(w, names)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{namespacesCmd, projectsCmd} {
		c.Flags().StringVar(&flagProvider, "provider", providerGitHub, "hosting provider: github or gitlab")
		addGitHubFlags(c)
		addGitLabFlags(c)
		rootCmd.AddCommand(c)
	}
}
