package checks

import (
	"context"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// SecurityHeadersCheck flags missing security response headers on HTML pages.
type SecurityHeadersCheck struct{}

// NewSecurityHeadersCheck creates the security_headers check.
func NewSecurityHeadersCheck() *SecurityHeadersCheck {
	return &SecurityHeadersCheck{}
}

// Name returns the check identifier.
func (c *SecurityHeadersCheck) Name() string { return "security_headers" }

// Passive reports that this check never sends requests.
func (c *SecurityHeadersCheck) Passive() bool { return true }

// headerRequirement describes one expected security header.
type headerRequirement struct {
	header      string
	findingType string
	title       string
	description string
	httpsOnly   bool
}

// headerRequirements is the list of headers the check expects.
// HSTS only makes sense over HTTPS; flagging it on plain HTTP is noise.
var headerRequirements = []headerRequirement{
	{
		header:      "Content-Security-Policy",
		findingType: "missing_csp",
		title:       "Missing Content-Security-Policy header",
		description: "The page is served without a Content-Security-Policy, leaving script injection unmitigated at the browser level.",
	},
	{
		header:      "Strict-Transport-Security",
		findingType: "missing_hsts",
		title:       "Missing Strict-Transport-Security header",
		description: "The HTTPS page does not set HSTS, so browsers may still attempt plain HTTP connections to this host.",
		httpsOnly:   true,
	},
	{
		header:      "X-Frame-Options",
		findingType: "missing_x_frame_options",
		title:       "Missing X-Frame-Options header",
		description: "Without X-Frame-Options (or a frame-ancestors CSP directive) the page can be embedded in a hostile frame for clickjacking.",
	},
	{
		header:      "X-Content-Type-Options",
		findingType: "missing_x_content_type_options",
		title:       "Missing X-Content-Type-Options header",
		description: "Without X-Content-Type-Options: nosniff, browsers may MIME-sniff responses into executable types.",
	},
	{
		header:      "Referrer-Policy",
		findingType: "missing_referrer_policy",
		title:       "Missing Referrer-Policy header",
		description: "Without a Referrer-Policy, full URLs including query strings may leak to third parties via the Referer header.",
	},
}

// Run inspects the response headers of HTML pages.
func (c *SecurityHeadersCheck) Run(_ context.Context, page *model.Page) ([]model.Finding, error) {
	if !page.IsHTML() || page.StatusCode >= 400 {
		return nil, nil
	}

	findings := make([]model.Finding, 0)
	for _, req := range headerRequirements {
		if req.httpsOnly && !page.IsHTTPS() {
			continue
		}
		if page.GetHeader(req.header) != "" {
			continue
		}
		findings = append(findings, model.NewFinding(
			req.findingType,
			page.URL,
			req.title,
			req.description,
			req.header+" header absent",
		))
	}

	return findings, nil
}
