package checks

import (
	"context"
	"strings"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// CORSPolicyCheck flags overly permissive cross-origin resource sharing:
// a wildcard Access-Control-Allow-Origin, and the more dangerous wildcard
// combined with Access-Control-Allow-Credentials.
type CORSPolicyCheck struct{}

// NewCORSPolicyCheck creates the cors_policy check.
func NewCORSPolicyCheck() *CORSPolicyCheck {
	return &CORSPolicyCheck{}
}

// Name returns the check identifier.
func (c *CORSPolicyCheck) Name() string { return "cors_policy" }

// Passive reports that this check never sends requests.
func (c *CORSPolicyCheck) Passive() bool { return true }

// Run inspects CORS response headers.
func (c *CORSPolicyCheck) Run(_ context.Context, page *model.Page) ([]model.Finding, error) {
	origin := page.GetHeader("Access-Control-Allow-Origin")
	if origin != "*" {
		return nil, nil
	}

	credentials := strings.EqualFold(page.GetHeader("Access-Control-Allow-Credentials"), "true")
	if credentials {
		// Browsers reject the literal */credentials combination, but its
		// presence shows the policy was never thought through, and some
		// servers reflect arbitrary origins to work around the rejection.
		return []model.Finding{model.NewFinding(
			"cors_wildcard_credentials",
			page.URL,
			"Wildcard CORS policy with credentials enabled",
			"The response allows any origin while also allowing credentials. This combination points at a misconfigured CORS layer that may reflect arbitrary origins.",
			"Access-Control-Allow-Origin: * / Access-Control-Allow-Credentials: true",
		)}, nil
	}

	return []model.Finding{model.NewFinding(
		"cors_wildcard",
		page.URL,
		"Wildcard CORS policy",
		"The response allows any origin to read it. If this endpoint ever serves user-specific data, any website can exfiltrate it.",
		"Access-Control-Allow-Origin: *",
	)}, nil
}
