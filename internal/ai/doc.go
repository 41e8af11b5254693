// Package ai provides the provider gateway used to annotate findings with
// AI-generated analysis. It abstracts over OpenAI, Claude, Grok, and local
// Ollama backends behind a single Provider interface, and wraps the
// configured provider with per-call timeouts, retry with exponential
// backoff, and a per-provider circuit breaker.
//
// Annotation is strictly best-effort: every error the gateway surfaces maps
// to a finding-level annotation failure, never to a scan failure.
package ai
