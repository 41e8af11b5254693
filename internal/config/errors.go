package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoTarget is returned when no target URL is specified.
	ErrNoTarget = errors.New("no target specified: provide a target URL")

	// ErrInvalidTarget is returned when the target is not an HTTP(S) URL.
	ErrInvalidTarget = errors.New("invalid target: must be an http or https URL")

	// ErrInvalidDepth is returned when the crawl depth is out of range.
	ErrInvalidDepth = errors.New("invalid depth: must be between 1 and 10")

	// ErrInvalidThreads is returned when the worker count is out of range.
	ErrInvalidThreads = errors.New("invalid threads: must be between 1 and 50")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidTestSet is returned when the test set name is unknown.
	ErrInvalidTestSet = errors.New("invalid test set: must be recon, quick, or full")

	// ErrInvalidAIProvider is returned when the AI provider name is unknown.
	ErrInvalidAIProvider = errors.New("invalid ai provider: must be openai, claude, grok, or ollama")

	// ErrInvalidAIGranularity is returned when the annotation granularity
	// is unknown.
	ErrInvalidAIGranularity = errors.New("invalid ai annotation granularity: must be off, page, or finding")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidRequestRate is returned when the request rate is negative.
	ErrInvalidRequestRate = errors.New("invalid request rate: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")
)
