package ai

import (
	"context"
	"net/http"
	"strings"
)

// OllamaProvider talks to a local Ollama server. No API key is required.
type OllamaProvider struct {
	model       string
	baseURL     string
	temperature float64
	client      *http.Client
}

// Default Ollama settings.
const (
	ollamaDefaultBaseURL = "http://localhost:11434"
	ollamaDefaultModel   = "llama3.2"
)

// NewOllamaProvider creates an Ollama provider.
func NewOllamaProvider(settings ProviderSettings) *OllamaProvider {
	p := &OllamaProvider{
		model:       settings.Model,
		baseURL:     settings.BaseURL,
		temperature: settings.Temperature,
		client:      newProviderHTTPClient(),
	}
	if p.baseURL == "" {
		p.baseURL = ollamaDefaultBaseURL
	}
	if p.model == "" {
		p.model = ollamaDefaultModel
	}
	return p
}

// Name returns the provider identifier.
func (p *OllamaProvider) Name() string { return "ollama" }

// generateRequest is the Ollama generate request payload.
type generateRequest struct {
	Model   string         `json:"model"`
	System  string         `json:"system,omitempty"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

// generateResponse is the subset of the generate response we consume.
type generateResponse struct {
	Response string `json:"response"`
}

// Generate sends the prompt through the /api/generate endpoint with
// streaming disabled.
func (p *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Model:  p.model,
		System: systemPrompt,
		Prompt: prompt,
		Stream: false,
	}
	if p.temperature > 0 {
		req.Options = map[string]any{"temperature": p.temperature}
	}

	var resp generateResponse
	if err := postJSON(ctx, p.client, strings.TrimSuffix(p.baseURL, "/")+"/api/generate", nil, req, &resp); err != nil {
		return "", err
	}

	if resp.Response == "" {
		return "", errEmptyResponse
	}
	return resp.Response, nil
}
