package gitlab

import (
	"context"
	"fmt"
	"strings"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

// GitLab issue states.
const (
	issueOpened = "opened"
	issueClosed = "closed"
)

func convertIssue(i *gl.Issue) reconcile.Issue {
	closed := i.State == issueClosed
	status := i.State
	switch i.State {
	case issueOpened:
		status = reconcile.StatusOpen
	case issueClosed:
		status = reconcile.StatusClosed
	}

	issueType := "Issue"
	if i.IssueType != nil && *i.IssueType != "" {
		t := *i.IssueType
		issueType = strings.ToUpper(t[:1]) + strings.ReplaceAll(t[1:], "_", " ")
	}

	var submitter string
	if i.Author != nil {
		submitter = i.Author.Username
		if submitter == "" {
			submitter = i.Author.Name
		}
	}

	out := reconcile.Issue{
		ID:          int64(i.IID),
		Status:      status,
		Type:        issueType,
		Title:       i.Title,
		Description: i.Description,
		Submitter:   submitter,
		IsClosed:    closed,
		URL:         i.WebURL,
	}
	if i.CreatedAt != nil {
		out.SubmittedDate = *i.CreatedAt
	}
	return out
}

// ListIssues returns the issues of project selected by filter. IDs are the
// project-scoped issue numbers. The filter's query string is sent as is.
func (c *Client) ListIssues(ctx context.Context, project reconcile.ProjectID, filter reconcile.IssueFilter) ([]reconcile.Issue, error) {
	query := filter.QueryString()
	var page int64
	issues, err := collect(ctx, "listing issues of "+project.String(), func() ([]*gl.Issue, *gl.Response, error) {
		return c.api.Issues.ListProjectIssues(project.String(), nil, gl.WithContext(ctx), withQuery(query, page))
	}, func(resp *gl.Response) {
		page = int64(resp.NextPage)
	})
	if err != nil {
		return nil, err
	}
	out := make([]reconcile.Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, convertIssue(i))
	}
	return out, nil
}

// UpdateIssue closes or reopens issue id.
func (c *Client) UpdateIssue(ctx context.Context, project reconcile.ProjectID, id int64, transition reconcile.Transition) error {
	_, resp, err := c.api.Issues.UpdateIssue(project.String(), id, &gl.UpdateIssueOptions{
		StateEvent: gl.Ptr(string(transition)),
	}, gl.WithContext(ctx))
	if err != nil {
		return apiError(fmt.Sprintf("updating issue #%d", id), resp, err)
	}
	return nil
}

// AddIssueComment posts body as a note on issue id.
func (c *Client) AddIssueComment(ctx context.Context, project reconcile.ProjectID, id int64, body string) error {
	_, resp, err := c.api.Notes.CreateIssueNote(project.String(), id, &gl.CreateIssueNoteOptions{
		Body: gl.Ptr(body),
	}, gl.WithContext(ctx))
	if err != nil {
		return apiError(fmt.Sprintf("commenting on issue #%d", id), resp, err)
	}
	return nil
}
