package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// systemPrompt frames every annotation request.
const systemPrompt = "You are a security expert specializing in penetration testing and vulnerability research."

// Provider is a single AI backend capable of answering a prompt.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Name returns the provider identifier (openai, claude, grok, ollama).
	Name() string

	// Generate sends the prompt and returns the response text.
	// Errors are classified via the package sentinels: ErrProviderAuth for
	// credential failures, errTransient-wrapped errors for retryable ones.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ProviderSettings holds per-provider configuration from the config file.
type ProviderSettings struct {
	// APIKey authenticates against the provider. Unused by Ollama.
	APIKey string

	// Model selects the model; empty uses the provider default.
	Model string

	// BaseURL overrides the API endpoint (custom gateways, local servers).
	BaseURL string

	// Temperature controls response randomness.
	Temperature float64
}

// NewProvider creates a provider by name.
func NewProvider(name string, settings ProviderSettings) (Provider, error) {
	switch name {
	case "openai":
		return NewOpenAIProvider(settings), nil
	case "claude":
		return NewClaudeProvider(settings), nil
	case "grok":
		return NewGrokProvider(settings), nil
	case "ollama":
		return NewOllamaProvider(settings), nil
	default:
		return nil, fmt.Errorf("%w: %q (valid: openai, claude, grok, ollama)", ErrUnknownProvider, name)
	}
}

// ProviderNames returns the supported provider identifiers.
func ProviderNames() []string {
	return []string{"openai", "claude", "grok", "ollama"}
}

// newProviderHTTPClient returns the HTTP client shared by provider
// implementations. The client carries no timeout of its own: the gateway
// bounds every call through the request context.
func newProviderHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// postJSON sends a JSON request and decodes a JSON response, classifying
// HTTP status codes into the package error taxonomy.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if err := classifyStatus(resp.StatusCode, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// classifyStatus maps an HTTP status to the package error taxonomy.
func classifyStatus(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w (HTTP %d)", ErrProviderAuth, status)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: HTTP %d: %s", errTransient, status, truncateBody(body))
	default:
		return fmt.Errorf("provider returned HTTP %d: %s", status, truncateBody(body))
	}
}

// truncateBody caps error payloads included in error messages.
func truncateBody(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
