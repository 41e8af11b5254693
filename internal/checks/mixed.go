package checks

import (
	"context"
	"strings"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// MixedContentCheck flags plain-HTTP subresources on HTTPS pages.
type MixedContentCheck struct{}

// NewMixedContentCheck creates the mixed_content check.
func NewMixedContentCheck() *MixedContentCheck {
	return &MixedContentCheck{}
}

// Name returns the check identifier.
func (c *MixedContentCheck) Name() string { return "mixed_content" }

// Passive reports that this check never sends requests.
func (c *MixedContentCheck) Passive() bool { return true }

// Run inspects subresource URLs collected by the parser.
func (c *MixedContentCheck) Run(_ context.Context, page *model.Page) ([]model.Finding, error) {
	if !page.IsHTTPS() {
		return nil, nil
	}

	findings := make([]model.Finding, 0)
	seen := make(map[string]bool)

	report := func(kind string, resources []string) {
		for _, res := range resources {
			if !strings.HasPrefix(strings.ToLower(res), "http://") || seen[res] {
				continue
			}
			seen[res] = true
			findings = append(findings, model.NewFinding(
				"mixed_content",
				page.URL,
				"Insecure "+kind+" on HTTPS page",
				"An HTTPS page loads a "+kind+" over plain HTTP. The resource can be read or replaced by a network attacker, undermining the page's transport security.",
				res,
			))
		}
	}

	report("script", page.Scripts)
	report("stylesheet", page.Styles)
	report("image", page.Images)

	return findings, nil
}
