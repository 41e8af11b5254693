package checks

import (
	"context"
	"strings"

	"github.com/deepeye-sec/deepeye/internal/model"
)

// SensitivePathsCheck looks for references to sensitive paths in discovered
// links and in robots.txt entries: version control directories, environment
// files, backups, and administrative consoles.
//
// The check is passive: it reports references, it does not probe them.
type SensitivePathsCheck struct{}

// NewSensitivePathsCheck creates the sensitive_paths check.
func NewSensitivePathsCheck() *SensitivePathsCheck {
	return &SensitivePathsCheck{}
}

// Name returns the check identifier.
func (c *SensitivePathsCheck) Name() string { return "sensitive_paths" }

// Passive reports that this check never sends requests.
func (c *SensitivePathsCheck) Passive() bool { return true }

// pathSignature classifies one sensitive path pattern.
type pathSignature struct {
	needle      string
	findingType string
	title       string
	description string
}

var pathSignatures = []pathSignature{
	{
		needle:      "/.git",
		findingType: "exposed_vcs_directory",
		title:       "Reference to version control directory",
		description: "A link or path references a .git directory. An exposed repository leaks full source history, often including credentials.",
	},
	{
		needle:      "/.svn",
		findingType: "exposed_vcs_directory",
		title:       "Reference to version control directory",
		description: "A link or path references a .svn directory. An exposed repository leaks source code and configuration.",
	},
	{
		needle:      "/.env",
		findingType: "exposed_env_file",
		title:       "Reference to environment file",
		description: "A link or path references a .env file, which commonly holds database credentials and API keys.",
	},
	{
		needle:      ".bak",
		findingType: "sensitive_path",
		title:       "Reference to backup file",
		description: "A link or path references a backup file that may contain source code or data not meant to be public.",
	},
	{
		needle:      ".sql",
		findingType: "sensitive_path",
		title:       "Reference to SQL dump",
		description: "A link or path references an SQL file that may contain a database export.",
	},
	{
		needle:      "/phpmyadmin",
		findingType: "sensitive_path",
		title:       "Reference to database administration console",
		description: "A link or path references phpMyAdmin, exposing a database administration surface.",
	},
	{
		needle:      "/wp-admin",
		findingType: "sensitive_path",
		title:       "Reference to CMS administration console",
		description: "A link or path references the WordPress administration area.",
	},
	{
		needle:      "/.htaccess",
		findingType: "sensitive_path",
		title:       "Reference to server configuration file",
		description: "A link or path references an .htaccess file, which can reveal rewrite rules and protected locations.",
	},
	{
		needle:      "/config.php",
		findingType: "sensitive_path",
		title:       "Reference to configuration script",
		description: "A link or path references a configuration script that may disclose settings if served as text.",
	},
}

// Run inspects links for sensitive path references and parses robots.txt
// when the page is one.
func (c *SensitivePathsCheck) Run(_ context.Context, page *model.Page) ([]model.Finding, error) {
	findings := make([]model.Finding, 0)
	seen := make(map[string]bool)

	for _, link := range page.Links {
		lower := strings.ToLower(link)
		for _, sig := range pathSignatures {
			if !strings.Contains(lower, sig.needle) {
				continue
			}
			key := sig.findingType + "|" + link
			if seen[key] {
				continue
			}
			seen[key] = true
			findings = append(findings, model.NewFinding(
				sig.findingType,
				page.URL,
				sig.title,
				sig.description,
				link,
			))
		}
	}

	if isRobotsTxt(page) {
		findings = append(findings, c.parseRobots(page)...)
	}

	return findings, nil
}

// isRobotsTxt reports whether the page is a successfully fetched robots.txt.
func isRobotsTxt(page *model.Page) bool {
	return page.StatusCode == 200 && strings.HasSuffix(strings.ToLower(strings.SplitN(page.URL, "?", 2)[0]), "/robots.txt")
}

// parseRobots extracts Disallow entries. Disallowed paths are exactly the
// ones operators did not want indexed, which makes them reconnaissance gold.
func (c *SensitivePathsCheck) parseRobots(page *model.Page) []model.Finding {
	findings := make([]model.Finding, 0)

	for _, line := range strings.Split(string(page.Body), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToLower(line), "disallow:") {
			continue
		}
		path := strings.TrimSpace(line[len("disallow:"):])
		if path == "" || path == "/" {
			continue
		}
		findings = append(findings, model.NewFinding(
			"robots_txt",
			page.URL,
			"Disallowed path in robots.txt: "+path,
			"robots.txt asks crawlers to skip this path, which often marks content the operator considers sensitive.",
			line,
		))
	}

	return findings
}
