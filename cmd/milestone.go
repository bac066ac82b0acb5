package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/output"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

var flagClosed bool

var milestoneCmd = &cobra.Command{
	Use:   "milestone",
	Short: "Inspect and reconcile GitLab milestones",
}

var milestoneEnsureCmd = &cobra.Command{
	Use:   "ensure namespace/project version",
	Short: "Create the milestone for a version and align its open/closed state",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newTrackerReconciler(cmd, args[0])
		if err != nil {
			return err
		}
		action, err := r.EnsureVersion(cmd.Context(), reconcile.IssueTrackerVersion{Version: args[1], IsClosed: flagClosed})
		if err != nil {
			return err
		}
		result := output.Result{Kind: "milestone", Target: args[0] + " " + args[1], Action: action}
		return writeOutput(cmd, result, func(w io.Writer) error {
			return output.WriteResults(w, []output.Result{result})
		})
	},
}

var milestoneListCmd = &cobra.Command{
	Use:   "list namespace/project",
	Short: "List the milestones of a project as versions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := newTrackerReconciler(cmd, args[0])
		if err != nil {
			return err
		}
		versions, err := r.ListVersions(cmd.Context())
		if err != nil {
			return err
		}
		return writeOutput(cmd, versions, func(w io.Writer) error {
			return output.WriteVersions(w, versions)
		})
	},
}

// newTrackerReconciler loads the configuration and returns a reconciler for
// the "namespace/project" argument.
func newTrackerReconciler(cmd *cobra.Command, arg string) (*reconcile.TrackerReconciler, error) {
	project, err := parseProject(arg)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(cmd.Context())
	if err != nil {
		return nil, err
	}
	api, err := trackerAPIFor(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}
	return reconcile.NewTrackerReconciler(api, project), nil
}

func init() {
	milestoneEnsureCmd.Flags().BoolVar(&flagClosed, "closed", false, "the milestone must be closed")
	for _, c := range []*cobra.Command{milestoneEnsureCmd, milestoneListCmd} {
		addGitLabFlags(c)
		milestoneCmd.AddCommand(c)
	}
	rootCmd.AddCommand(milestoneCmd)
}
