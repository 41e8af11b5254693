package checks

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// ServerFingerprintCheck detects server software disclosure via response
// headers: version strings in Server, the X-Powered-By header, known
// end-of-life software lines, and framework cookies.
type ServerFingerprintCheck struct {
	versionPattern *regexp.Regexp
	titleCaser     cases.Caser
}

// NewServerFingerprintCheck creates the server_fingerprint check.
func NewServerFingerprintCheck() *ServerFingerprintCheck {
	return &ServerFingerprintCheck{
		versionPattern: regexp.MustCompile(`([A-Za-z][\w.-]*)/([\d][\d.]*)`),
		titleCaser:     cases.Title(language.English),
	}
}

// Name returns the check identifier.
func (c *ServerFingerprintCheck) Name() string { return "server_fingerprint" }

// Passive reports that this check never sends requests.
func (c *ServerFingerprintCheck) Passive() bool { return true }

// outdatedPrefixes maps product names (lowercased) to version prefixes that
// are past end of life. Matching is deliberately coarse: a prefix hit is a
// strong enough signal for a passive scanner.
var outdatedPrefixes = map[string][]string{
	"php":       {"5.", "7.0", "7.1", "7.2", "7.3", "7.4"},
	"apache":    {"2.0", "2.2"},
	"nginx":     {"1.0", "1.2", "1.4", "1.6", "1.8", "1.10", "1.12", "1.14"},
	"openssl":   {"0.9", "1.0"},
	"iis":       {"6.", "7."},
	"microsoft": {"6.", "7."},
}

// technologyHeaders are headers whose mere presence identifies a framework.
// Names are in net/http canonical form, matching how Page stores them.
var technologyHeaders = []string{
	"X-Aspnet-Version",
	"X-Aspnetmvc-Version",
	"X-Drupal-Cache",
	"X-Generator",
	"X-Varnish",
	"Via",
}

// Run inspects fingerprinting headers on any response.
func (c *ServerFingerprintCheck) Run(_ context.Context, page *model.Page) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)

	if server := page.GetHeader("Server"); server != "" {
		if m := c.versionPattern.FindStringSubmatch(server); m != nil {
			product := c.titleCaser.String(m[1])
			findings = append(findings, model.NewFinding(
				"server_version",
				page.URL,
				product+" version disclosed in Server header",
				"The Server header reveals the exact software version, letting attackers match it against known vulnerabilities.",
				"Server: "+server,
			))
			findings = append(findings, c.checkOutdated(page.URL, "Server", m[1], m[2])...)
		}
	}

	if powered := page.GetHeader("X-Powered-By"); powered != "" {
		findings = append(findings, model.NewFinding(
			"x_powered_by",
			page.URL,
			"Technology disclosed in X-Powered-By header",
			"The X-Powered-By header reveals the backend technology stack.",
			"X-Powered-By: "+powered,
		))
		if m := c.versionPattern.FindStringSubmatch(powered); m != nil {
			findings = append(findings, c.checkOutdated(page.URL, "X-Powered-By", m[1], m[2])...)
		}
	}

	for _, header := range technologyHeaders {
		if value := page.GetHeader(header); value != "" {
			findings = append(findings, model.NewFinding(
				"technology_detected",
				page.URL,
				"Technology fingerprint: "+header,
				"The "+header+" header identifies a specific framework or infrastructure component.",
				header+": "+value,
			))
		}
	}

	return findings, nil
}

// checkOutdated reports a finding when the product/version pair matches a
// known end-of-life line.
func (c *ServerFingerprintCheck) checkOutdated(pageURL, source, product, version string) []model.Finding {
	prefixes, ok := outdatedPrefixes[strings.ToLower(product)]
	if !ok {
		return nil
	}

	for _, prefix := range prefixes {
		if strings.HasPrefix(version, prefix) {
			display := c.titleCaser.String(product)
			return []model.Finding{model.NewFinding(
				"outdated_software",
				pageURL,
				display+" "+version+" is past end of life",
				display+" "+version+" no longer receives security updates and has publicly known vulnerabilities.",
				source+" reports "+product+"/"+version,
			)}
		}
	}

	return nil
}
