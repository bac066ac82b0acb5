package reconcile

import (
	"net/url"
	"strconv"
	"strings"
)

// IssuePageSize is the page size requested by structured issue queries.
const IssuePageSize = 100

// IssueFilter selects issues. A non-empty Custom query string wins over the
// structured Milestone and Labels fields.
type IssueFilter struct {
	Custom    string
	Milestone string
	// Labels is a comma separated list of label names.
	Labels string
}

// QueryString renders the filter. Custom is returned verbatim; otherwise the
// result is "?per_page=100", then milestone, then labels.
func (f IssueFilter) QueryString() string {
	if f.Custom != "" {
		return f.Custom
	}

	var b strings.Builder
	b.WriteString("?per_page=")
	b.WriteString(strconv.Itoa(IssuePageSize))
	if f.Milestone != "" {
		b.WriteString("&milestone=")
		b.WriteString(escapeDataString(f.Milestone))
	}
	if f.Labels != "" {
		b.WriteString("&labels=")
		b.WriteString(escapeDataString(f.Labels))
	}
	return b.String()
}

// escapeDataString percent-encodes everything but RFC 3986 unreserved
// characters.
func escapeDataString(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
