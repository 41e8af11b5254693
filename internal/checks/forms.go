package checks

import (
	"context"
	"strings"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// FormSecurityCheck inspects HTML forms for two problems: password forms
// that submit over plain HTTP, and state-changing forms without an
// apparent CSRF token.
type FormSecurityCheck struct{}

// NewFormSecurityCheck creates the form_security check.
func NewFormSecurityCheck() *FormSecurityCheck {
	return &FormSecurityCheck{}
}

// Name returns the check identifier.
func (c *FormSecurityCheck) Name() string { return "form_security" }

// Passive reports that this check never sends requests.
func (c *FormSecurityCheck) Passive() bool { return true }

// csrfTokenNames are substrings that mark a hidden input as a CSRF token.
var csrfTokenNames = []string{
	"csrf", "xsrf", "token", "authenticity", "nonce", "__requestverification",
}

// Run inspects the forms collected by the parser.
func (c *FormSecurityCheck) Run(_ context.Context, page *model.Page) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	for _, form := range page.Forms {
		if form.HasPasswordInput() && submitsOverHTTP(form, page) {
			findings = append(findings, model.NewFinding(
				"password_form_http",
				page.URL,
				"Password form submits over plain HTTP",
				"A form with a password field submits to an unencrypted HTTP endpoint. Credentials are readable by anyone on the network path.",
				form.Method+" "+form.Action,
			))
		}

		if strings.EqualFold(form.Method, "POST") && !hasCSRFToken(form) {
			findings = append(findings, model.NewFinding(
				"form_no_csrf_token",
				page.URL,
				"POST form without apparent CSRF token",
				"A state-changing form carries no hidden field resembling a CSRF token. If the server does not validate requests another way, the action can be forged cross-site.",
				form.Method+" "+form.Action,
			))
		}
	}

	return findings, nil
}

// submitsOverHTTP reports whether the form's credentials travel unencrypted:
// either the action is explicit http://, or the action is relative on a page
// that is itself plain HTTP.
func submitsOverHTTP(form model.Form, page *model.Page) bool {
	action := strings.ToLower(form.Action)
	if strings.HasPrefix(action, "http://") {
		return true
	}
	if strings.HasPrefix(action, "https://") {
		return false
	}
	return !page.IsHTTPS()
}

// hasCSRFToken reports whether any hidden input looks like a CSRF token.
func hasCSRFToken(form model.Form) bool {
	for _, input := range form.Inputs {
		if !strings.EqualFold(input.Type, "hidden") {
			continue
		}
		name := strings.ToLower(input.Name)
		for _, marker := range csrfTokenNames {
			if strings.Contains(name, marker) {
				return true
			}
		}
	}
	return false
}
