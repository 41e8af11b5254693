package model

// Severity represents the risk level of a security finding.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates informational findings with no direct security impact.
	// Examples: HTML comments, robots.txt entries, technology hints.
	SeverityInfo Severity = iota

	// SeverityLow indicates minor issues with limited impact.
	// Examples: missing X-Frame-Options, verbose error pages.
	SeverityLow

	// SeverityMedium indicates moderate issues that warrant attention.
	// Examples: missing cookie flags, server version disclosure.
	SeverityMedium

	// SeverityHigh indicates serious issues that are likely exploitable.
	// Examples: reflected input without encoding, wildcard CORS with credentials.
	SeverityHigh

	// SeverityCritical indicates severe issues requiring immediate attention.
	// Examples: exposed credentials, password forms submitted over plain HTTP.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// FindingInfo contains metadata about a finding type including severity,
// impact description, and remediation recommendation.
type FindingInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// findingInfoMapping maps finding types to their metadata.
// This centralized mapping ensures consistent risk assessment across the
// application.
//
// Design decision: We use a map rather than embedding severity in each check
// because:
// 1. It allows updating risk assessments without modifying check code
// 2. It provides a single source of truth for risk levels
// 3. It makes it easy to generate severity documentation
var findingInfoMapping = map[string]FindingInfo{
	// CRITICAL
	"password_form_http": {
		Severity:       SeverityCritical,
		Impact:         "A login form submits credentials over unencrypted HTTP, exposing them to network interception.",
		Recommendation: "Serve the form and its action endpoint over HTTPS and redirect all HTTP traffic.",
	},
	"exposed_credentials": {
		Severity:       SeverityCritical,
		Impact:         "Credentials or API keys are present in page content and can be harvested by anyone.",
		Recommendation: "Remove the secrets from the page, rotate them immediately, and audit access logs.",
	},
	"exposed_vcs_directory": {
		Severity:       SeverityCritical,
		Impact:         "A version-control directory reference suggests repository contents may be downloadable, including source and secrets.",
		Recommendation: "Block access to VCS metadata directories at the web server and verify nothing was exfiltrated.",
	},

	// HIGH
	"reflected_input": {
		Severity:       SeverityHigh,
		Impact:         "Query parameters are reflected verbatim into the response, a strong indicator of reflected XSS.",
		Recommendation: "Encode all user-controlled output for its HTML context and validate input server-side.",
	},
	"cors_wildcard_credentials": {
		Severity:       SeverityHigh,
		Impact:         "The CORS policy allows any origin together with credentials, letting arbitrary sites read authenticated responses.",
		Recommendation: "Restrict Access-Control-Allow-Origin to an explicit allowlist and never combine a wildcard with credentials.",
	},
	"outdated_software": {
		Severity:       SeverityHigh,
		Impact:         "The server advertises a software version with known public vulnerabilities.",
		Recommendation: "Upgrade to a supported release and suppress version disclosure in headers.",
	},
	"exposed_env_file": {
		Severity:       SeverityHigh,
		Impact:         "An environment file reference suggests configuration secrets may be publicly readable.",
		Recommendation: "Deny access to dotfiles at the web server and move secrets out of the web root.",
	},

	// MEDIUM
	"missing_csp": {
		Severity:       SeverityMedium,
		Impact:         "Without a Content-Security-Policy the impact of any script injection is unrestricted.",
		Recommendation: "Deploy a restrictive CSP, starting with default-src 'self'.",
	},
	"missing_hsts": {
		Severity:       SeverityMedium,
		Impact:         "Without Strict-Transport-Security, first visits and downgraded connections can be intercepted.",
		Recommendation: "Add a Strict-Transport-Security header with a long max-age once HTTPS is stable.",
	},
	"cookie_missing_flags": {
		Severity:       SeverityMedium,
		Impact:         "A cookie is set without Secure/HttpOnly/SameSite, widening theft and CSRF exposure.",
		Recommendation: "Set Secure and HttpOnly on session cookies and an appropriate SameSite policy.",
	},
	"server_version": {
		Severity:       SeverityMedium,
		Impact:         "Server version disclosure helps attackers select targeted exploits.",
		Recommendation: "Configure the server to omit version information from response headers.",
	},
	"x_powered_by": {
		Severity:       SeverityMedium,
		Impact:         "X-Powered-By reveals the technology stack for targeted attacks.",
		Recommendation: "Remove or suppress the X-Powered-By header.",
	},
	"mixed_content": {
		Severity:       SeverityMedium,
		Impact:         "An HTTPS page loads subresources over plain HTTP, which can be tampered with in transit.",
		Recommendation: "Load all scripts, styles, and images over HTTPS.",
	},
	"form_no_csrf_token": {
		Severity:       SeverityMedium,
		Impact:         "A state-changing form carries no recognizable CSRF token, so requests may be forgeable cross-site.",
		Recommendation: "Add per-session CSRF tokens to all state-changing forms and verify them server-side.",
	},
	"sensitive_path": {
		Severity:       SeverityMedium,
		Impact:         "The page references a path commonly associated with admin consoles, backups, or debug endpoints.",
		Recommendation: "Confirm the path is access-controlled or remove it from the public site.",
	},
	"cors_wildcard": {
		Severity:       SeverityMedium,
		Impact:         "The CORS policy allows any origin to read responses from this endpoint.",
		Recommendation: "Restrict Access-Control-Allow-Origin to trusted origins only.",
	},

	// LOW
	"missing_x_frame_options": {
		Severity:       SeverityLow,
		Impact:         "Missing X-Frame-Options (or frame-ancestors) allows clickjacking attacks.",
		Recommendation: "Add X-Frame-Options: DENY or a frame-ancestors CSP directive.",
	},
	"missing_x_content_type_options": {
		Severity:       SeverityLow,
		Impact:         "Missing X-Content-Type-Options allows MIME sniffing of responses.",
		Recommendation: "Add X-Content-Type-Options: nosniff.",
	},
	"missing_referrer_policy": {
		Severity:       SeverityLow,
		Impact:         "Without a Referrer-Policy, full URLs may leak to third parties via the Referer header.",
		Recommendation: "Add a Referrer-Policy such as strict-origin-when-cross-origin.",
	},
	"exif_metadata": {
		Severity:       SeverityLow,
		Impact:         "An image contains EXIF metadata which may include device or timestamp information.",
		Recommendation: "Strip EXIF metadata from images before publishing.",
	},
	"exif_gps": {
		Severity:       SeverityHigh,
		Impact:         "An image contains embedded GPS coordinates, a direct location leak.",
		Recommendation: "Strip all EXIF metadata, especially GPS tags, before publishing images.",
	},

	// INFO
	"html_comment": {
		Severity:       SeverityInfo,
		Impact:         "An HTML comment contains potentially interesting internal details.",
		Recommendation: "Review comments before deployment and remove anything internal.",
	},
	"robots_txt": {
		Severity:       SeverityInfo,
		Impact:         "robots.txt may reveal site structure not otherwise linked.",
		Recommendation: "Review robots.txt for unintentionally disclosed paths.",
	},
	"technology_detected": {
		Severity:       SeverityInfo,
		Impact:         "A technology fingerprint was identified from headers or page content.",
		Recommendation: "No action required; recorded for reconnaissance context.",
	},

	// Operational findings produced by the engine itself.
	"fetch_error": {
		Severity:       SeverityInfo,
		Impact:         "The page could not be fetched; coverage of this URL is incomplete.",
		Recommendation: "Verify the URL is reachable and rerun the scan if needed.",
	},
	"internal_check_error": {
		Severity:       SeverityInfo,
		Impact:         "A check failed internally on this page; its results are incomplete.",
		Recommendation: "Rerun the scan with --verbose and report the error if it persists.",
	},
}

// GetSeverity returns the severity level for a finding type.
// Returns SeverityInfo if the finding type is not in the mapping.
func GetSeverity(findingType string) Severity {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetFindingInfo returns the full finding information for a finding type.
// Returns a default FindingInfo with SeverityInfo if the type is not in the mapping.
func GetFindingInfo(findingType string) FindingInfo {
	if info, ok := findingInfoMapping[findingType]; ok {
		return info
	}
	return FindingInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown finding type. Review manually.",
		Recommendation: "Investigate the finding and assess risk.",
	}
}
