package config

import (
	"fmt"
	"slices"
	"strings"
)

// validProviders lists the supported model backends.
var validProviders = []string{ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOllama}

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// 1. Provider selection
	if !slices.Contains(validProviders, c.Provider) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidProvider, c.Provider, validProviders)
	}

	// 2. Credentials for the selected provider. Ollama is local and needs
	// none; the others refuse to start without a key.
	switch c.Provider {
	case ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("%w: ANTHROPIC_API_KEY environment variable is required for provider %q",
				ErrMissingAPIKey, c.Provider)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required for provider %q",
				ErrMissingAPIKey, c.Provider)
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required for provider %q",
				ErrMissingAPIKey, c.Provider)
		}
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("%w: ollama_host cannot be empty", ErrInvalidOllamaHost)
		}
	}

	// 3. Model configuration
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 2097152 {
		return fmt.Errorf("%w: must be between 1 and 2,097,152, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	// 4. Engine limits
	if c.MaxSteps < 1 || c.MaxSteps > 1000 {
		return fmt.Errorf("%w: must be between 1 and 1000, got %d", ErrInvalidMaxSteps, c.MaxSteps)
	}

	if c.ProviderTimeoutSeconds < 1 || c.ProviderTimeoutSeconds > 3600 {
		return fmt.Errorf("%w: provider_timeout_seconds must be between 1 and 3600, got %d",
			ErrInvalidTimeout, c.ProviderTimeoutSeconds)
	}

	if c.ToolTimeoutSeconds < 1 || c.ToolTimeoutSeconds > 3600 {
		return fmt.Errorf("%w: tool_timeout_seconds must be between 1 and 3600, got %d",
			ErrInvalidTimeout, c.ToolTimeoutSeconds)
	}

	// 5. Serve configuration
	if c.ListenAddr == "" || !strings.Contains(c.ListenAddr, ":") {
		return fmt.Errorf("%w: %q must be host:port or :port", ErrInvalidListenAddr, c.ListenAddr)
	}

	// 6. Tool servers
	for i, ts := range c.ToolServers {
		if ts.Name == "" {
			return fmt.Errorf("%w: entry %d has empty name", ErrInvalidToolServer, i)
		}
		if ts.Command == "" {
			return fmt.Errorf("%w: %q has empty command", ErrInvalidToolServer, ts.Name)
		}
	}

	return nil
}
