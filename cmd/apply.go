package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/config"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/output"
	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

var (
	flagDryRun      bool
	flagConcurrency int
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Reconcile the releases, milestones and issues declared in the config file",
	Long: `Reconcile every release, version and issue transition declared in the
configuration. Distinct projects are reconciled concurrently; the work of one
project runs in order (milestones before issue transitions). With --dry-run
only the current state is read and the planned actions are printed.`,
	Args: cobra.NoArgs,
	RunE: applyRunE,
}

func init() {
	applyCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print the planned actions without changing anything")
	applyCmd.Flags().IntVar(&flagConcurrency, "concurrency", 4, "number of projects reconciled at once")
	addGitHubFlags(applyCmd)
	addGitLabFlags(applyCmd)
	rootCmd.AddCommand(applyCmd)
}

func applyRunE(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	results, err := apply(ctx, cfg, flagDryRun, flagConcurrency)
	if werr := writeOutput(cmd, results, func(w io.Writer) error {
		return output.WriteResults(w, results)
	}); werr != nil {
		return werr
	}
	return err
}

// projectWork is the desired state of one project, reconciled in order.
type projectWork struct {
	// project is set for GitLab work.
	project  reconcile.ProjectID
	releases []reconcile.ReleaseSpec
	versions []reconcile.IssueTrackerVersion
	issues   []config.IssuesConfig
}

// apply reconciles cfg, one goroutine per project, and returns one result per
// desired item sorted by kind and target. Failures are recorded in the
// results and joined into the returned error.
func apply(ctx context.Context, cfg *config.Config, dryRun bool, concurrency int) ([]output.Result, error) {
	work := map[string]*projectWork{}
	get := func(key string) *projectWork {
		if w, ok := work[key]; ok {
			return w
		}
		w := &projectWork{}
		work[key] = w
		return w
	}
	for _, spec := range cfg.ReleaseSpecs() {
		w := get("github:" + spec.Owner + "/" + spec.Repository)
		w.releases = append(w.releases, spec)
	}
	for _, v := range cfg.Versions {
		w := get("gitlab:" + v.ProjectID().String())
		w.project = v.ProjectID()
		w.versions = append(w.versions, reconcile.IssueTrackerVersion{Version: v.Version, IsClosed: v.Closed})
	}
	for _, is := range cfg.Issues {
		w := get("gitlab:" + is.ProjectID().String())
		w.project = is.ProjectID()
		w.issues = append(w.issues, is)
	}

	var (
		mu       sync.Mutex
		results  []output.Result
		failures []error
	)
	record := func(r output.Result, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			r.Error = err.Error()
			failures = append(failures, fmt.Errorf("%s %s: %w", r.Kind, r.Target, err))
		}
		results = append(results, r)
	}

	if concurrency < 1 {
		concurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for key, w := range work {
		g.Go(func() error {
			clog.FromContext(gctx).Debugf("Reconciling %s...", key)
			return reconcileProject(gctx, cfg, w, dryRun, record)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Kind != results[j].Kind {
			return results[i].Kind < results[j].Kind
		}
		return results[i].Target < results[j].Target
	})
	return results, errors.Join(failures...)
}

// reconcileProject runs the work of one project in order. Only a canceled
// context stops it; other failures are recorded and the next item runs.
func reconcileProject(ctx context.Context, cfg *config.Config, w *projectWork, dryRun bool, record func(output.Result, error)) error {
	if len(w.releases) > 0 {
		api, err := releaseAPIFor(ctx, cfg, w.releases[0].Owner)
		if err != nil {
			for _, spec := range w.releases {
				record(releaseResult(spec, ""), err)
			}
		} else {
			r := reconcile.NewReleaseReconciler(api)
			for _, spec := range w.releases {
				if err := ctx.Err(); err != nil {
					return err
				}
				action, err := ensureRelease(ctx, r, spec, dryRun)
				record(releaseResult(spec, action), err)
			}
		}
	}

	if len(w.versions) == 0 && len(w.issues) == 0 {
		return nil
	}
	api, err := trackerAPIFor(ctx, cfg)
	if err != nil {
		for _, v := range w.versions {
			record(output.Result{Kind: "milestone", Target: w.project.String() + " " + v.Version}, err)
		}
		for _, is := range w.issues {
			record(output.Result{Kind: "issues", Target: is.ProjectID().String()}, err)
		}
		return nil
	}

	for _, v := range w.versions {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := reconcile.NewTrackerReconciler(api, w.project)
		action, err := ensureVersion(ctx, r, v, dryRun)
		record(output.Result{Kind: "milestone", Target: w.project.String() + " " + v.Version, Action: action}, err)
	}

	for _, is := range w.issues {
		r := reconcile.NewTrackerReconciler(api, is.ProjectID())
		reqs, err := is.TransitionRequests()
		if err != nil {
			record(output.Result{Kind: "issues", Target: is.ProjectID().String()}, err)
			continue
		}
		for _, req := range reqs {
			if err := ctx.Err(); err != nil {
				return err
			}
			target := fmt.Sprintf("%s %s->%s", is.ProjectID(), orAny(req.FromStatus), req.ToStatus)
			n, err := transitionIssues(ctx, r, req, dryRun)
			action := reconcile.ActionUnchanged
			if n > 0 {
				action = reconcile.ActionUpdated
				target = fmt.Sprintf("%s (%d issues)", target, n)
			}
			record(output.Result{Kind: "issues", Target: target, Action: action}, err)
		}
	}
	return nil
}

func ensureRelease(ctx context.Context, r *reconcile.ReleaseReconciler, spec reconcile.ReleaseSpec, dryRun bool) (reconcile.Action, error) {
	if !dryRun {
		return r.EnsureRelease(ctx, spec)
	}
	state, err := r.GetRelease(ctx, spec.Owner, spec.Repository, spec.Tag)
	if err != nil {
		return "", err
	}
	return reconcile.PlanRelease(state, spec), nil
}

func ensureVersion(ctx context.Context, r *reconcile.TrackerReconciler, v reconcile.IssueTrackerVersion, dryRun bool) (reconcile.Action, error) {
	if !dryRun {
		return r.EnsureVersion(ctx, v)
	}
	versions, err := r.ListVersions(ctx)
	if err != nil {
		return "", err
	}
	for _, existing := range versions {
		if existing.Version == v.Version {
			state := reconcile.MilestoneOpen
			if existing.IsClosed {
				state = reconcile.MilestoneClosed
			}
			return reconcile.PlanVersion(&reconcile.Milestone{Title: existing.Version, State: state}, v), nil
		}
	}
	return reconcile.PlanVersion(nil, v), nil
}

func transitionIssues(ctx context.Context, r *reconcile.TrackerReconciler, req reconcile.TransitionRequest, dryRun bool) (int, error) {
	if dryRun {
		planned, err := r.PlanTransition(ctx, req)
		return len(planned), err
	}
	changed, err := r.TransitionIssues(ctx, req)
	return len(changed), err
}

func releaseResult(spec reconcile.ReleaseSpec, action reconcile.Action) output.Result {
	return output.Result{Kind: "release", Target: spec.Owner + "/" + spec.Repository + "@" + spec.Tag, Action: action}
}

func orAny(status string) string {
	if status == "" {
		return "any"
	}
	return status
}
