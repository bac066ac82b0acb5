package cmd

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/output"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

var (
	flagQuery     string
	flagMilestone string
	flagLabels    string
	flagVariables []string
	flagFrom      string
	flagTo        string
	flagComment   string
)

var issuesCmd = &cobra.Command{
	Use:   "issues",
	Short: "List and transition GitLab issues",
}

var issuesListCmd = &cobra.Command{
	Use:   "list namespace/project",
	Short: "List the issues selected by the filter flags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := issueFilterFromFlags()
		if err != nil {
			return err
		}
		r, err := newTrackerReconciler(cmd, args[0])
		if err != nil {
			return err
		}
		issues, err := r.ListIssues(cmd.Context(), filter)
		if err != nil {
			return err
		}
		return writeOutput(cmd, issues, func(w io.Writer) error {
			return output.WriteIssues(w, issues)
		})
	},
}

var issuesTransitionCmd = &cobra.Command{
	Use:   "transition namespace/project",
	Short: "Move the selected issues to --to",
	Long: `Move every issue selected by the filter flags to --to (Open or Closed).
Issues already in that status, and issues not in --from when it is set, are
left untouched. --comment is added to every transitioned issue.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := issueFilterFromFlags()
		if err != nil {
			return err
		}
		r, err := newTrackerReconciler(cmd, args[0])
		if err != nil {
			return err
		}
		changed, err := r.TransitionIssues(cmd.Context(), reconcile.TransitionRequest{
			FromStatus: flagFrom,
			ToStatus:   flagTo,
			Comment:    flagComment,
			Filter:     filter,
		})
		if err != nil {
			return err
		}
		return writeOutput(cmd, changed, func(w io.Writer) error {
			return output.WriteIssues(w, changed)
		})
	},
}

// issueFilterFromFlags evaluates --query, --milestone and --labels against
// the --var values.
func issueFilterFromFlags() (reconcile.IssueFilter, error) {
	vars, err := parseVariables(flagVariables)
	if err != nil {
		return reconcile.IssueFilter{}, err
	}
	return reconcile.BuildIssueFilter(reconcile.FilterSettings{
		CustomQuery:         flagQuery,
		MilestoneExpression: flagMilestone,
		Labels:              flagLabels,
	}, reconcile.NewExpander(vars))
}

// parseVariables parses Name=value pairs.
func parseVariables(pairs []string) (reconcile.Variables, error) {
	vars := reconcile.Variables{}
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return nil, errs.Configuration("invalid variable %q, expected Name=value", p)
		}
		vars[name] = value
	}
	return vars, nil
}

func init() {
	for _, c := range []*cobra.Command{issuesListCmd, issuesTransitionCmd} {
		c.Flags().StringVar(&flagQuery, "query", "", "custom issue query string; replaces --milestone and --labels")
		c.Flags().StringVar(&flagMilestone, "milestone", reconcile.DefaultMilestoneExpression, "milestone expression")
		c.Flags().StringVar(&flagLabels, "labels", "", "comma separated labels expression")
		c.Flags().StringArrayVar(&flagVariables, "var", nil, "expression variable as Name=value (repeatable)")
		addGitLabFlags(c)
		issuesCmd.AddCommand(c)
	}
	issuesTransitionCmd.Flags().StringVar(&flagFrom, "from", "", "only transition issues in this status: Open or Closed")
	issuesTransitionCmd.Flags().StringVar(&flagTo, "to", reconcile.StatusClosed, "target status: Open or Closed")
	issuesTransitionCmd.Flags().StringVar(&flagComment, "comment", "", "comment added to every transitioned issue")
	rootCmd.AddCommand(issuesCmd)
}
