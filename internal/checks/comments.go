package checks

import (
	"context"
	"regexp"
	"strings"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// HTMLCommentsCheck inspects HTML comments for developer notes, internal
// hostnames, and embedded credentials.
type HTMLCommentsCheck struct {
	credentialPattern *regexp.Regexp
	internalHost      *regexp.Regexp
}

// NewHTMLCommentsCheck creates the html_comments check.
func NewHTMLCommentsCheck() *HTMLCommentsCheck {
	return &HTMLCommentsCheck{
		// key=value or key: value where key names a secret and the value is
		// a real-looking token, not prose.
		credentialPattern: regexp.MustCompile(`(?i)(password|passwd|pwd|secret|api[_-]?key|access[_-]?token|auth[_-]?token)\s*[:=]\s*['"]?([^\s'"<>]{4,})`),
		internalHost:      regexp.MustCompile(`(?i)\b(?:[a-z0-9-]+\.)*(?:internal|local|corp|intranet|staging|dev)\.[a-z0-9.-]+\b|\b(?:10|192\.168|172\.(?:1[6-9]|2\d|3[01]))\.\d{1,3}\.\d{1,3}\b`),
	}
}

// Name returns the check identifier.
func (c *HTMLCommentsCheck) Name() string { return "html_comments" }

// Passive reports that this check never sends requests.
func (c *HTMLCommentsCheck) Passive() bool { return true }

// noteMarkers are developer-note keywords worth surfacing.
var noteMarkers = []string{"todo", "fixme", "hack", "xxx", "debug", "temporary", "remove before", "do not ship"}

// Run inspects the comments collected by the parser.
func (c *HTMLCommentsCheck) Run(_ context.Context, page *model.Page) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for _, comment := range page.Comments {
		trimmed := strings.TrimSpace(comment)
		if trimmed == "" {
			continue
		}

		if m := c.credentialPattern.FindStringSubmatch(trimmed); m != nil {
			findings = append(findings, model.NewFinding(
				"exposed_credentials",
				page.URL,
				"Possible credentials in HTML comment",
				"An HTML comment appears to contain a credential assignment ("+m[1]+"). Comments ship to every visitor's browser.",
				truncateEvidence(trimmed),
			))
			continue
		}

		lower := strings.ToLower(trimmed)
		matched := false
		for _, marker := range noteMarkers {
			if strings.Contains(lower, marker) {
				matched = true
				break
			}
		}
		if !matched && c.internalHost.MatchString(trimmed) {
			matched = true
		}
		if matched {
			findings = append(findings, model.NewFinding(
				"html_comment",
				page.URL,
				"Developer note in HTML comment",
				"An HTML comment contains a developer note or internal reference. These often leak implementation details useful to attackers.",
				truncateEvidence(trimmed),
			))
		}
	}

	return findings, nil
}

// truncateEvidence caps comment evidence so a giant commented-out block
// doesn't bloat the report.
func truncateEvidence(s string) string {
	const limit = 200
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
