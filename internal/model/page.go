package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Page represents a fetched web page with all extracted information.
// This structure holds both the raw response data and parsed content.
//
// Design decision: We store both raw bytes and parsed content because:
// 1. Raw bytes are needed for binary analysis (EXIF, etc.)
// 2. Parsed content is needed for the vulnerability checks
// 3. The hash allows deduplication and change detection
type Page struct {
	// URL is the full URL of the page.
	URL string `json:"url"`

	// Depth is the crawl depth at which the page was discovered.
	// 0 is the seed URL.
	Depth int `json:"depth"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains all HTTP response headers.
	// Keys are header names (canonicalized), values are slices of header values.
	Headers map[string][]string `json:"headers"`

	// ContentType is the MIME type of the response.
	// Extracted from Content-Type header for convenience.
	ContentType string `json:"content_type"`

	// Title is the page title extracted from the <title> tag.
	// Empty for non-HTML content.
	Title string `json:"title,omitempty"`

	// Forms contains all HTML forms found on the page.
	Forms []Form `json:"forms,omitempty"`

	// Links contains all resolved link URLs discovered on the page.
	Links []string `json:"links,omitempty"`

	// Scripts contains script source URLs.
	Scripts []string `json:"scripts,omitempty"`

	// Styles contains stylesheet URLs.
	Styles []string `json:"styles,omitempty"`

	// Images contains image source URLs.
	Images []string `json:"images,omitempty"`

	// Comments contains HTML comments (may contain sensitive info).
	Comments []string `json:"comments,omitempty"`

	// Body contains the raw response body bytes, truncated to MaxPageSize.
	Body []byte `json:"-"` // Excluded from JSON to reduce report size

	// Hash is the SHA-256 hash of the body.
	// Used for deduplication and change detection.
	Hash string `json:"hash"`
}

// MaxPageSize is the maximum size of raw page content to store.
// Larger pages are truncated to this size.
const MaxPageSize = 5 * 1024 * 1024 // 5 MB

// Form represents an HTML form element.
type Form struct {
	// Action is the resolved form action URL.
	Action string `json:"action"`

	// Method is the HTTP method (GET, POST, etc.).
	// Defaults to GET if not specified in HTML.
	Method string `json:"method"`

	// Inputs contains the form's input fields.
	Inputs []FormInput `json:"inputs,omitempty"`
}

// FormInput represents an input field in a form.
type FormInput struct {
	// Type is the input type (text, password, hidden, etc.).
	Type string `json:"type"`

	// Name is the input's name attribute.
	Name string `json:"name"`

	// Value is the input's default value.
	Value string `json:"value,omitempty"`
}

// HasPasswordInput reports whether the form contains a password field.
func (f Form) HasPasswordInput() bool {
	for _, in := range f.Inputs {
		if strings.EqualFold(in.Type, "password") {
			return true
		}
	}
	return false
}

// ComputeHash calculates and sets the SHA-256 hash of the page body.
// This should be called after setting the Body field.
func (p *Page) ComputeHash() {
	if len(p.Body) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(p.Body)
	p.Hash = hex.EncodeToString(hash[:])
}

// GetHeader returns the first value of the specified header.
// Returns empty string if the header is not present.
// Go's http package canonicalizes header names, so we store them in
// canonical form.
func (p *Page) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// GetAllHeaders returns all values of the specified header.
// Returns nil if the header is not present.
func (p *Page) GetAllHeaders(name string) []string {
	return p.Headers[name]
}

// IsHTML returns true if the page content type indicates HTML.
func (p *Page) IsHTML() bool {
	return strings.HasPrefix(p.ContentType, "text/html") ||
		strings.HasPrefix(p.ContentType, "application/xhtml+xml")
}

// IsImage returns true if the page content type indicates an image.
func (p *Page) IsImage() bool {
	return strings.HasPrefix(p.ContentType, "image/")
}

// IsHTTPS returns true if the page was served over HTTPS.
func (p *Page) IsHTTPS() bool {
	return strings.HasPrefix(strings.ToLower(p.URL), "https://")
}

// TruncateBody ensures the body doesn't exceed MaxPageSize.
// Call this after setting Body to enforce the size limit.
func (p *Page) TruncateBody() {
	if len(p.Body) > MaxPageSize {
		p.Body = p.Body[:MaxPageSize]
	}
}
