// Package output renders command results as text, tables or JSON.
package output

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/MyCarrier-DevOps/go-gitconverge/internal/reconcile"
)

// Format selects how results are written.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses an --output value. The empty string selects FormatText.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// WriteAll writes all variables as key=value pairs to the writer, sorted by key.
func WriteAll(w io.Writer, variables map[string]string) error {
	keys := make([]string, 0, len(variables))
	for k := range variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, variables[k]); err != nil {
			return err
		}
	}
	return nil
}

// WriteLines writes one value per line.
func WriteLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseVariables flattens a release state into key=value pairs.
func ReleaseVariables(s reconcile.ReleaseState) map[string]string {
	vars := map[string]string{"Exists": strconv.FormatBool(s.Exists)}
	if !s.Exists {
		return vars
	}
	r := s.Release
	vars["ID"] = strconv.FormatInt(r.ID, 10)
	vars["Tag"] = r.Tag
	vars["Target"] = r.Target
	vars["Title"] = r.Title
	vars["Description"] = r.Description
	vars["Draft"] = strconv.FormatBool(r.Draft)
	vars["Prerelease"] = strconv.FormatBool(r.Prerelease)
	vars["URL"] = r.URL
	return vars
}

// WriteVersions writes milestones as a table.
func WriteVersions(w io.Writer, versions []reconcile.IssueTrackerVersion) error {
	table := newTable(w, []string{"Version", "Closed"})
	for _, v := range versions {
		if err := table.Append([]string{v.Version, strconv.FormatBool(v.IsClosed)}); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteIssues writes issues as a table.
func WriteIssues(w io.Writer, issues []reconcile.Issue) error {
	table := newTable(w, []string{"ID", "Status", "Type", "Title", "Submitter"})
	for _, i := range issues {
		row := []string{strconv.FormatInt(i.ID, 10), i.Status, i.Type, i.Title, i.Submitter}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// Result is the outcome of one reconciliation.
type Result struct {
	Kind   string           `json:"kind"`
	Target string           `json:"target"`
	Action reconcile.Action `json:"action"`
	Error  string           `json:"error,omitempty"`
}

// WriteResults writes reconciliation outcomes as a table.
func WriteResults(w io.Writer, results []Result) error {
	table := newTable(w, []string{"Kind", "Target", "Action", "Error"})
	for _, r := range results {
		if err := table.Append([]string{r.Kind, r.Target, string(r.Action), r.Error}); err != nil {
			return err
		}
	}
	return table.Render()
}

// newTable creates a left-aligned markdown-style table.
func newTable(w io.Writer, headers []string) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 120,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}
