package ai

import "errors"

var (
	// ErrProviderTimeout is returned when a provider call exceeds the
	// per-call timeout. Timeouts are retried as transient failures.
	ErrProviderTimeout = errors.New("ai provider call timed out")

	// ErrProviderAuth is returned on authentication or authorization
	// failures (HTTP 401/403). Never retried: a bad key stays bad.
	ErrProviderAuth = errors.New("ai provider authentication failed")

	// ErrProviderUnavailable is returned when the provider's circuit
	// breaker is open and calls are being short-circuited.
	ErrProviderUnavailable = errors.New("ai provider unavailable (circuit open)")

	// ErrNoProvider is returned when the gateway is constructed without
	// any provider.
	ErrNoProvider = errors.New("no ai provider configured")

	// ErrUnknownProvider is returned when a provider name is not in the
	// supported set.
	ErrUnknownProvider = errors.New("unknown ai provider")

	// errTransient marks failures worth retrying: rate limits and
	// server-side errors (HTTP 429/5xx).
	errTransient = errors.New("transient ai provider error")

	// errEmptyResponse is returned when a provider responds successfully
	// but with no usable text.
	errEmptyResponse = errors.New("ai provider returned empty response")
)
