package ai

import (
	"context"
	"net/http"
	"strings"
)

// OpenAIProvider talks to the OpenAI chat completions API, or any
// OpenAI-compatible endpoint via a custom base URL.
type OpenAIProvider struct {
	name        string
	apiKey      string
	model       string
	baseURL     string
	temperature float64
	client      *http.Client
}

// Default OpenAI settings.
const (
	openAIDefaultBaseURL = "https://api.openai.com/v1"
	openAIDefaultModel   = "gpt-4o-mini"
)

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(settings ProviderSettings) *OpenAIProvider {
	p := &OpenAIProvider{
		name:        "openai",
		apiKey:      settings.APIKey,
		model:       settings.Model,
		baseURL:     settings.BaseURL,
		temperature: settings.Temperature,
		client:      newProviderHTTPClient(),
	}
	if p.baseURL == "" {
		p.baseURL = openAIDefaultBaseURL
	}
	if p.model == "" {
		p.model = openAIDefaultModel
	}
	return p
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string { return p.name }

// chatMessage is one message in an OpenAI-style conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the chat completions request payload.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

// chatResponse is the subset of the chat completions response we consume.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate sends the prompt through the chat completions endpoint.
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: p.temperature,
	}

	headers := map[string]string{
		"Authorization": "Bearer " + p.apiKey,
	}

	var resp chatResponse
	if err := postJSON(ctx, p.client, strings.TrimSuffix(p.baseURL, "/")+"/chat/completions", headers, req, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
