package provider

import (
	"context"
	"fmt"

	"github.com/counsel0/counsel/internal/config"
)

// New builds the Client selected by cfg.Provider. Credential presence is
// already guaranteed by config validation, but each constructor still
// checks so direct callers fail loudly.
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.AnthropicAPIKey, "")
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey, "")
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.GeminiAPIKey)
	case config.ProviderOllama:
		return NewOllamaClient(cfg.OllamaHost)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidProvider, cfg.Provider)
	}
}
