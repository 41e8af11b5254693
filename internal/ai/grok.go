package ai

// Default Grok settings. The xAI API is OpenAI-compatible, so Grok reuses
// the chat completions client with a different endpoint and model.
const (
	grokDefaultBaseURL = "https://api.x.ai/v1"
	grokDefaultModel   = "grok-2-latest"
)

// NewGrokProvider creates a Grok provider backed by the xAI API.
func NewGrokProvider(settings ProviderSettings) *OpenAIProvider {
	if settings.BaseURL == "" {
		settings.BaseURL = grokDefaultBaseURL
	}
	if settings.Model == "" {
		settings.Model = grokDefaultModel
	}
	p := NewOpenAIProvider(settings)
	p.name = "grok"
	return p
}
