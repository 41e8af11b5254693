package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultDepth is the maximum crawl depth from the seed URL.
	// Two hops cover the landing page, its sections, and their content
	// pages, which is enough surface for a first pass without the crawl
	// exploding on large sites.
	DefaultDepth = 2

	// MaxDepth is the upper bound accepted for the depth flag.
	MaxDepth = 10

	// DefaultThreads is the worker pool size. Five concurrent requests is
	// assertive without looking like a flood to most targets.
	DefaultThreads = 5

	// MaxThreads is the upper bound accepted for the threads flag.
	MaxThreads = 50

	// DefaultTimeout is the per-request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultTestSet is the check set used when no mode flag is given.
	DefaultTestSet = "full"

	// DefaultUserAgent identifies DeepEye in HTTP requests.
	// A descriptive User-Agent lets operators identify scanner traffic
	// in their logs.
	DefaultUserAgent = "DeepEye/1.0 (+https://github.com/deepeye-sec/deepeye)"

	// DefaultMaxPages is the maximum number of pages fetched per scan.
	// This prevents runaway crawling on large or infinitely-generating
	// sites. Users can override this via the --max-pages CLI flag.
	DefaultMaxPages = 500

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most pages while preventing memory exhaustion
	// from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultRequestsPerSecond limits the aggregate fetch rate across all
	// workers. This is a politeness setting; 0 disables the limiter.
	DefaultRequestsPerSecond = 10.0

	// DefaultAIAnnotate is the annotation granularity when an AI provider
	// is configured but no granularity flag is given.
	DefaultAIAnnotate = "finding"

	// AppName is the application name used for XDG directory paths.
	AppName = "deepeye"
)

// Config holds all configuration options for a scan.
// This struct is designed to be populated from CLI flags and the optional
// config file, then passed through the application via dependency injection
// rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Target is the seed URL to scan.
	Target string

	// Depth is the maximum crawl depth from the seed. Valid range 1-10.
	Depth int

	// Threads is the worker pool size. Valid range 1-50.
	Threads int

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// TestSet selects the check set: recon, quick, or full.
	TestSet string

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// VerifySSL controls TLS certificate verification. Disabled for
	// targets with self-signed certificates.
	VerifySSL bool

	// ProxyURL routes all requests through a proxy (http, https, socks5).
	// Empty means direct connections.
	ProxyURL string

	// Headers are additional HTTP headers sent with every request.
	Headers map[string]string

	// Cookie is a raw cookie string sent with every request, for scanning
	// authenticated areas.
	Cookie string

	// MaxPages caps the number of pages fetched; 0 means unlimited.
	MaxPages int

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated.
	MaxBodySize int64

	// RequestsPerSecond limits the aggregate fetch rate; 0 disables.
	RequestsPerSecond float64

	// AIProvider names the annotation backend: openai, claude, grok, or
	// ollama. Empty disables AI annotation entirely.
	AIProvider string

	// AIAnnotate is the annotation granularity: off, page, or finding.
	// Ignored when AIProvider is empty.
	AIAnnotate string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// JSONReport enables JSON report output instead of the human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of the
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .deepeye in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// File holds the loaded configuration file, if any.
	File *File

	// DBDir is the directory path for the scan-history SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether to persist the session to the history
	// database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, depth).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Depth:             DefaultDepth,
		Threads:           DefaultThreads,
		Timeout:           DefaultTimeout,
		TestSet:           DefaultTestSet,
		UserAgent:         DefaultUserAgent,
		VerifySSL:         true,
		MaxPages:          DefaultMaxPages,
		MaxBodySize:       DefaultMaxBodySize,
		RequestsPerSecond: DefaultRequestsPerSecond,
		AIAnnotate:        DefaultAIAnnotate,
		DBDir:             XDGDataDir(),
		SaveToDB:          true,
	}
}

// XDGDataDir returns the XDG data directory for DeepEye.
// On Linux: ~/.local/share/deepeye
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for DeepEye.
// On Linux: ~/.config/deepeye
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any scanning begins.
// We return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	if c.Target == "" {
		return ErrNoTarget
	}

	lower := strings.ToLower(c.Target)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return ErrInvalidTarget
	}

	if c.Depth < 1 || c.Depth > MaxDepth {
		return ErrInvalidDepth
	}

	if c.Threads < 1 || c.Threads > MaxThreads {
		return ErrInvalidThreads
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	switch c.TestSet {
	case "recon", "quick", "full":
	default:
		return ErrInvalidTestSet
	}

	if c.AIProvider != "" {
		switch c.AIProvider {
		case "openai", "claude", "grok", "ollama":
		default:
			return ErrInvalidAIProvider
		}
		switch c.AIAnnotate {
		case "off", "page", "finding":
		default:
			return ErrInvalidAIGranularity
		}
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.RequestsPerSecond < 0 {
		return ErrInvalidRequestRate
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
