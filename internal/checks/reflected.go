package checks

import (
	"bytes"
	"context"
	"net/url"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// ReflectedInputCheck flags query parameter values echoed verbatim into the
// response body. Reflection is not proof of XSS, but it marks the injection
// points worth manual follow-up.
type ReflectedInputCheck struct {
	// minValueLength filters out trivial values ("1", "en") that would
	// match almost any page by coincidence.
	minValueLength int
}

// NewReflectedInputCheck creates the reflected_input check.
func NewReflectedInputCheck() *ReflectedInputCheck {
	return &ReflectedInputCheck{minValueLength: 4}
}

// Name returns the check identifier.
func (c *ReflectedInputCheck) Name() string { return "reflected_input" }

// Passive reports that this check never sends requests.
func (c *ReflectedInputCheck) Passive() bool { return true }

// Run searches the body for verbatim copies of query parameter values.
func (c *ReflectedInputCheck) Run(_ context.Context, page *model.Page) ([]model.Finding, error) {
	if !page.IsHTML() || len(page.Body) == 0 {
		return nil, nil
	}

	u, err := url.Parse(page.URL)
	if err != nil {
		return nil, err
	}

	query := u.Query()
	if len(query) == 0 {
		return nil, nil
	}

	findings := make([]model.Finding, 0)
	for param, values := range query {
		for _, value := range values {
			if len(value) < c.minValueLength {
				continue
			}
			if bytes.Contains(page.Body, []byte(value)) {
				findings = append(findings, model.NewFinding(
					"reflected_input",
					page.URL,
					"Query parameter reflected in response: "+param,
					"The value of the "+param+" query parameter appears verbatim in the response body. If it is not encoded on output, this is a cross-site scripting injection point.",
					param+"="+value,
				))
			}
		}
	}

	return findings, nil
}
