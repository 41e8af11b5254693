package checks

import (
	"context"
	"strings"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// CookieFlagsCheck inspects Set-Cookie headers for missing Secure,
// HttpOnly, and SameSite attributes.
type CookieFlagsCheck struct{}

// NewCookieFlagsCheck creates the cookie_flags check.
func NewCookieFlagsCheck() *CookieFlagsCheck {
	return &CookieFlagsCheck{}
}

// Name returns the check identifier.
func (c *CookieFlagsCheck) Name() string { return "cookie_flags" }

// Passive reports that this check never sends requests.
func (c *CookieFlagsCheck) Passive() bool { return true }

// Run inspects every Set-Cookie header on the response.
func (c *CookieFlagsCheck) Run(_ context.Context, page *model.Page) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for _, setCookie := range page.GetAllHeaders("Set-Cookie") {
		missing := missingCookieFlags(setCookie, page.IsHTTPS())
		if len(missing) == 0 {
			continue
		}

		name := cookieName(setCookie)
		findings = append(findings, model.NewFinding(
			"cookie_missing_flags",
			page.URL,
			"Cookie "+name+" missing "+strings.Join(missing, ", "),
			"The "+name+" cookie is set without the "+strings.Join(missing, ", ")+" attribute(s), exposing it to interception or script access.",
			setCookie,
		))
	}

	return findings, nil
}

// missingCookieFlags returns which protective attributes are absent.
// Secure is only expected on HTTPS responses; flagging it on plain HTTP
// pages would duplicate what the transport-level findings already say.
func missingCookieFlags(setCookie string, https bool) []string {
	lower := strings.ToLower(setCookie)
	missing := make([]string, 0, 3)

	if https && !strings.Contains(lower, "secure") {
		missing = append(missing, "Secure")
	}
	if !strings.Contains(lower, "httponly") {
		missing = append(missing, "HttpOnly")
	}
	if !strings.Contains(lower, "samesite") {
		missing = append(missing, "SameSite")
	}

	return missing
}

// cookieName extracts the cookie's name from a Set-Cookie value.
func cookieName(setCookie string) string {
	pair := strings.SplitN(setCookie, ";", 2)[0]
	name := strings.SplitN(pair, "=", 2)[0]
	name = strings.TrimSpace(name)
	if name == "" {
		return "(unnamed)"
	}
	return name
}
