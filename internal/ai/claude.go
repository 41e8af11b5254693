package ai

import (
	"context"
	"net/http"
	"strings"
)

// ClaudeProvider talks to the Anthropic messages API.
type ClaudeProvider struct {
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	client      *http.Client
}

// Default Claude settings.
const (
	claudeDefaultBaseURL = "https://api.anthropic.com/v1"
	claudeDefaultModel   = "claude-sonnet-4-20250514"
	claudeAPIVersion     = "2023-06-01"
	claudeMaxTokens      = 1024
)

// NewClaudeProvider creates a Claude provider.
func NewClaudeProvider(settings ProviderSettings) *ClaudeProvider {
	p := &ClaudeProvider{
		apiKey:      settings.APIKey,
		model:       settings.Model,
		baseURL:     settings.BaseURL,
		temperature: settings.Temperature,
		client:      newProviderHTTPClient(),
	}
	if p.baseURL == "" {
		p.baseURL = claudeDefaultBaseURL
	}
	if p.model == "" {
		p.model = claudeDefaultModel
	}
	return p
}

// Name returns the provider identifier.
func (p *ClaudeProvider) Name() string { return "claude" }

// messagesRequest is the Anthropic messages request payload.
type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

// messagesResponse is the subset of the messages response we consume.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// Generate sends the prompt through the messages endpoint.
func (p *ClaudeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	req := messagesRequest{
		Model:       p.model,
		MaxTokens:   claudeMaxTokens,
		System:      systemPrompt,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: p.temperature,
	}

	headers := map[string]string{
		"x-api-key":         p.apiKey,
		"anthropic-version": claudeAPIVersion,
	}

	var resp messagesResponse
	if err := postJSON(ctx, p.client, strings.TrimSuffix(p.baseURL, "/")+"/messages", headers, req, &resp); err != nil {
		return "", err
	}

	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", errEmptyResponse
}
