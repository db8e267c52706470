package config

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a configuration that passes Validate. Tests mutate
// single fields to probe individual rules.
func validConfig() *Config {
	return &Config{
		Provider:               ProviderAnthropic,
		ModelName:              "claude-sonnet-4-5",
		Temperature:            0.7,
		MaxTokens:              8192,
		AnthropicAPIKey:        "sk-ant-test-key-0123456789",
		OllamaHost:             "http://localhost:11434",
		MaxSteps:               DefaultMaxSteps,
		ProviderTimeoutSeconds: DefaultProviderTimeoutSeconds,
		ToolTimeoutSeconds:     DefaultToolTimeoutSeconds,
		ListenAddr:             ":8080",
	}
}

func TestValidate_OK(t *testing.T) {
	t.Parallel()
	require.NoError(t, validConfig().Validate())
}

func TestValidate_NilConfig(t *testing.T) {
	t.Parallel()
	var cfg *Config
	assert.ErrorIs(t, cfg.Validate(), ErrConfigNil)
}

func TestValidate_Provider(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Provider = "cohere"
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidProvider)
}

func TestValidate_MissingAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		provider string
		mutate   func(*Config)
	}{
		{ProviderAnthropic, func(c *Config) { c.AnthropicAPIKey = "" }},
		{ProviderOpenAI, func(c *Config) { c.OpenAIAPIKey = "" }},
		{ProviderGemini, func(c *Config) { c.GeminiAPIKey = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.Provider = tt.provider
			cfg.AnthropicAPIKey = "k-anthropic"
			cfg.OpenAIAPIKey = "k-openai"
			cfg.GeminiAPIKey = "k-gemini"
			tt.mutate(cfg)

			assert.ErrorIs(t, cfg.Validate(), ErrMissingAPIKey)
		})
	}
}

func TestValidate_OllamaNeedsNoKey(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Provider = ProviderOllama
	cfg.ModelName = "llama3.3"
	cfg.AnthropicAPIKey = ""
	require.NoError(t, cfg.Validate())

	cfg.OllamaHost = ""
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidOllamaHost)
}

func TestValidate_Ranges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"empty model", func(c *Config) { c.ModelName = "" }, ErrInvalidModelName},
		{"temperature low", func(c *Config) { c.Temperature = -0.1 }, ErrInvalidTemperature},
		{"temperature high", func(c *Config) { c.Temperature = 2.1 }, ErrInvalidTemperature},
		{"max tokens zero", func(c *Config) { c.MaxTokens = 0 }, ErrInvalidMaxTokens},
		{"max steps zero", func(c *Config) { c.MaxSteps = 0 }, ErrInvalidMaxSteps},
		{"max steps huge", func(c *Config) { c.MaxSteps = 1001 }, ErrInvalidMaxSteps},
		{"provider timeout zero", func(c *Config) { c.ProviderTimeoutSeconds = 0 }, ErrInvalidTimeout},
		{"tool timeout zero", func(c *Config) { c.ToolTimeoutSeconds = 0 }, ErrInvalidTimeout},
		{"listen addr no port", func(c *Config) { c.ListenAddr = "localhost" }, ErrInvalidListenAddr},
		{"tool server empty name", func(c *Config) {
			c.ToolServers = []ToolServer{{Command: "npx"}}
		}, ErrInvalidToolServer},
		{"tool server empty command", func(c *Config) {
			c.ToolServers = []ToolServer{{Name: "search"}}
		}, ErrInvalidToolServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestMarshalJSON_MasksSecrets(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.AnthropicAPIKey = "sk-ant-super-secret-value"
	cfg.OpenAIAPIKey = "sk-openai-super-secret"
	cfg.GeminiAPIKey = "AIza-super-secret-gemini"

	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	out := string(data)
	assert.NotContains(t, out, "super-secret")
	assert.Contains(t, out, maskedValue)
	// Non-sensitive fields survive intact.
	assert.Contains(t, out, "claude-sonnet-4-5")
}

func TestString_NoSecretLeak(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.AnthropicAPIKey = "sk-ant-do-not-print-me"
	assert.NotContains(t, cfg.String(), "do-not-print-me")
}

func TestMaskSecret(t *testing.T) {
	t.Parallel()

	// Short secrets are fully masked so no substring can leak.
	assert.Equal(t, maskedValue, maskSecret("short"))
	assert.Equal(t, "", maskSecret(""))

	masked := maskSecret("abcdefghijklmnop")
	assert.True(t, strings.HasPrefix(masked, "ab"))
	assert.True(t, strings.HasSuffix(masked, "op"))
	assert.NotContains(t, masked, "cdefghijklmn")
}

func TestDefaultToolServers(t *testing.T) {
	t.Parallel()

	servers := DefaultToolServers()
	require.Len(t, servers, 1)
	assert.Equal(t, "builtin", servers[0].Name)
	assert.Equal(t, []string{"tools"}, servers[0].Args)
	assert.NotEmpty(t, servers[0].Command)
}
