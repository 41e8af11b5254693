package config

import "time"

// ProviderConfig holds credentials and tuning for one AI provider,
// loaded from the configuration file.
type ProviderConfig struct {
	// APIKey authenticates against the provider. Unused by ollama.
	APIKey string `yaml:"api_key,omitempty"`

	// Model overrides the provider's default model.
	Model string `yaml:"model,omitempty"`

	// BaseURL overrides the API endpoint (custom gateways, local servers).
	BaseURL string `yaml:"base_url,omitempty"`

	// Temperature controls response randomness.
	Temperature float64 `yaml:"temperature,omitempty"`
}

// ScannerProfile holds scan settings from the configuration file.
// CLI flags take precedence over these values.
type ScannerProfile struct {
	// Depth overrides the default crawl depth.
	Depth int `yaml:"depth,omitempty"`

	// Threads overrides the default worker pool size.
	Threads int `yaml:"threads,omitempty"`

	// TimeoutSeconds overrides the default per-request timeout.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`

	// UserAgent overrides the default User-Agent header.
	UserAgent string `yaml:"user_agent,omitempty"`

	// VerifySSL toggles TLS certificate verification.
	// nil means "not set"; the default (verify) applies.
	VerifySSL *bool `yaml:"verify_ssl,omitempty"`

	// Proxy routes requests through a proxy URL.
	Proxy string `yaml:"proxy,omitempty"`

	// Cookie is a raw cookie string sent with every request.
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are additional HTTP headers sent with every request.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// File represents the structure of the .deepeye configuration file.
type File struct {
	// AIProviders maps provider names (openai, claude, grok, ollama) to
	// their credentials and tuning.
	AIProviders map[string]ProviderConfig `yaml:"ai_providers,omitempty"`

	// Scanner holds default scan settings applied when the corresponding
	// CLI flags are not given.
	Scanner ScannerProfile `yaml:"scanner,omitempty"`
}

// ProviderFor returns the configuration for the named provider.
// A missing entry yields a zero value, which is valid for ollama.
func (f *File) ProviderFor(name string) ProviderConfig {
	if f == nil || f.AIProviders == nil {
		return ProviderConfig{}
	}
	return f.AIProviders[name]
}

// ApplyProfile copies file-level scanner settings into the config for
// every field still at its default. Called after loading the file and
// before CLI flag values are applied, so explicit flags win.
func (c *Config) ApplyProfile(profile ScannerProfile) {
	if profile.Depth != 0 {
		c.Depth = profile.Depth
	}
	if profile.Threads != 0 {
		c.Threads = profile.Threads
	}
	if profile.TimeoutSeconds != 0 {
		c.Timeout = time.Duration(profile.TimeoutSeconds) * time.Second
	}
	if profile.UserAgent != "" {
		c.UserAgent = profile.UserAgent
	}
	if profile.VerifySSL != nil {
		c.VerifySSL = *profile.VerifySSL
	}
	if profile.Proxy != "" {
		c.ProxyURL = profile.Proxy
	}
	if profile.Cookie != "" {
		c.Cookie = profile.Cookie
	}
	if len(profile.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		for k, v := range profile.Headers {
			c.Headers[k] = v
		}
	}
}
