package reconcile

import (
	"errors"
	"fmt"
	"io"

	"github.com/valyala/fasttemplate"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/errs"
)

// DefaultMilestoneExpression maps a release to the milestone of the same name.
const DefaultMilestoneExpression = "${ReleaseNumber}"

const (
	expressionStart = "${"
	expressionEnd   = "}"
)

// Variables are the values available to expressions, e.g. "ReleaseNumber".
type Variables map[string]string

// Expander evaluates "${Name}" placeholders against a fixed set of variables.
type Expander struct {
	vars Variables
}

// NewExpander returns an expander over vars.
func NewExpander(vars Variables) *Expander {
	return &Expander{vars: vars}
}

// Expand substitutes every placeholder in expr. An undefined variable is an
// error.
func (e *Expander) Expand(expr string) (string, error) {
	return fasttemplate.ExecuteFuncStringWithErr(expr, expressionStart, expressionEnd, func(w io.Writer, tag string) (int, error) {
		v, ok := e.vars[tag]
		if !ok {
			return 0, fmt.Errorf("variable %q is not defined", tag)
		}
		return w.Write([]byte(v))
	})
}

// FilterSettings is the user-authored issue mapping of a tracker project.
type FilterSettings struct {
	// CustomQuery, when set, replaces the milestone and labels mapping.
	CustomQuery string `yaml:"custom-query"`
	// MilestoneExpression defaults to DefaultMilestoneExpression.
	MilestoneExpression string `yaml:"milestone"`
	// Labels is a comma separated label list and may contain placeholders.
	Labels string `yaml:"labels"`
}

// BuildIssueFilter evaluates s into an IssueFilter. Evaluation failures and
// empty results are configuration errors quoting the original expression.
func BuildIssueFilter(s FilterSettings, e *Expander) (IssueFilter, error) {
	if s.CustomQuery != "" {
		query, err := evaluate(e, s.CustomQuery, "resulting query is an empty string")
		if err != nil {
			return IssueFilter{}, errs.Configuration("could not parse the issue mapping query %q: %v", s.CustomQuery, err)
		}
		return IssueFilter{Custom: query}, nil
	}

	expr := s.MilestoneExpression
	if expr == "" {
		expr = DefaultMilestoneExpression
	}
	milestone, err := evaluate(e, expr, "milestone expression is an empty string")
	if err != nil {
		return IssueFilter{}, errs.Configuration("could not parse the milestone expression %q: %v", expr, err)
	}

	var labels string
	if s.Labels != "" {
		labels, err = evaluate(e, s.Labels, "labels expression is an empty string")
		if err != nil {
			return IssueFilter{}, errs.Configuration("could not parse the labels expression %q: %v", s.Labels, err)
		}
	}
	return IssueFilter{Milestone: milestone, Labels: labels}, nil
}

func evaluate(e *Expander, expr, emptyMessage string) (string, error) {
	v, err := e.Expand(expr)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", errors.New(emptyMessage)
	}
	return v, nil
}
