// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.counsel/config.yaml, or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Provider: model backend selection, model name, sampling parameters
//   - Engine: turn-loop limits and timeouts
//   - Tools: MCP tool server launch commands (see toolservers.go)
//   - Serve: HTTP listen address and CORS origins
//   - Observability: OTLP trace export (see observability.go)
//
// Security: API keys are read from the environment only and are masked in
// MarshalJSON. Validation uses sentinel errors checkable with errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidProvider indicates the model provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidMaxSteps indicates the step ceiling is out of range.
	ErrInvalidMaxSteps = errors.New("invalid max steps")

	// ErrInvalidTimeout indicates a timeout value is out of range.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidOllamaHost indicates the Ollama host is invalid.
	ErrInvalidOllamaHost = errors.New("invalid Ollama host")

	// ErrInvalidListenAddr indicates the HTTP listen address is invalid.
	ErrInvalidListenAddr = errors.New("invalid listen address")

	// ErrInvalidToolServer indicates a tool server entry is malformed.
	ErrInvalidToolServer = errors.New("invalid tool server")
)

// Model provider identifiers used in Config.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// Default engine limits. MaxSteps bounds tool rounds within one request;
// after the ceiling the engine runs exactly one more round with tool use
// forbidden.
const (
	DefaultMaxSteps               = 50
	DefaultProviderTimeoutSeconds = 180
	DefaultToolTimeoutSeconds     = 30
)

// Config stores application configuration.
// SECURITY: Sensitive fields are explicitly masked in MarshalJSON().
// When adding new sensitive fields (API keys, tokens), update MarshalJSON.
type Config struct {
	// Model backend configuration
	Provider    string  `mapstructure:"provider" json:"provider"`     // "anthropic" (default), "openai", "gemini", "ollama"
	ModelName   string  `mapstructure:"model_name" json:"model_name"` // Model identifier (e.g. "claude-sonnet-4-5", "gpt-4o", "llama3.3")
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// Provider credentials (environment only, never written to file)
	AnthropicAPIKey string `mapstructure:"anthropic_api_key" json:"anthropic_api_key"` // SENSITIVE: masked in MarshalJSON
	OpenAIAPIKey    string `mapstructure:"openai_api_key" json:"openai_api_key"`       // SENSITIVE: masked in MarshalJSON
	GeminiAPIKey    string `mapstructure:"gemini_api_key" json:"gemini_api_key"`       // SENSITIVE: masked in MarshalJSON

	// Ollama configuration (only used when provider is "ollama")
	OllamaHost string `mapstructure:"ollama_host" json:"ollama_host"`

	// Engine configuration
	MaxSteps               int `mapstructure:"max_steps" json:"max_steps"`
	ProviderTimeoutSeconds int `mapstructure:"provider_timeout_seconds" json:"provider_timeout_seconds"`
	ToolTimeoutSeconds     int `mapstructure:"tool_timeout_seconds" json:"tool_timeout_seconds"`

	// Title events bundled into the response event by default; set true to
	// emit them separately.
	SeparateTitleEvents bool `mapstructure:"separate_title_events" json:"separate_title_events"`

	// Tool server configuration (see toolservers.go)
	ToolServers []ToolServer `mapstructure:"tool_servers" json:"tool_servers"`

	// Serve mode configuration
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`

	// Observability configuration (see observability.go)
	Otel OtelConfig `mapstructure:"otel" json:"otel"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".counsel")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// CRITICAL: Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// Model defaults
	v.SetDefault("provider", ProviderAnthropic)
	v.SetDefault("model_name", "claude-sonnet-4-5")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("max_tokens", 8192)

	// Ollama defaults
	v.SetDefault("ollama_host", "http://localhost:11434")

	// Engine defaults
	v.SetDefault("max_steps", DefaultMaxSteps)
	v.SetDefault("provider_timeout_seconds", DefaultProviderTimeoutSeconds)
	v.SetDefault("tool_timeout_seconds", DefaultToolTimeoutSeconds)
	v.SetDefault("separate_title_events", false)

	// Serve defaults
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("cors_origins", []string{"http://localhost:4200"})

	// OTLP defaults
	v.SetDefault("otel.endpoint", "localhost:4318")
	v.SetDefault("otel.service_name", "counsel")
	v.SetDefault("otel.environment", "dev")
}

// bindEnvVariables binds environment variables explicitly. API keys come
// exclusively from the environment so they never end up in a YAML file.
func bindEnvVariables(v *viper.Viper) {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail).
	// If this panics, it's a BUG in our code, not a runtime error.
	mustBind := func(key string, envVars ...string) {
		if err := v.BindEnv(append([]string{key}, envVars...)...); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q: %v", key, err))
		}
	}

	mustBind("anthropic_api_key", "ANTHROPIC_API_KEY")
	mustBind("openai_api_key", "OPENAI_API_KEY")
	mustBind("gemini_api_key", "GEMINI_API_KEY")

	mustBind("provider", "COUNSEL_PROVIDER")
	mustBind("model_name", "COUNSEL_MODEL_NAME")
	mustBind("ollama_host", "COUNSEL_OLLAMA_HOST")
	mustBind("listen_addr", "COUNSEL_LISTEN_ADDR")
	mustBind("cors_origins", "COUNSEL_CORS_ORIGINS")
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks (U+2588) avoid accidental substring matches against
// real secret material.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 characters or fewer are fully masked; longer ones keep the
// first and last 2 characters for debug utility.
//
// THREAT MODEL: This defends against accidental logging of real secrets.
// It is NOT cryptographically secure - if logs are compromised, rotate
// the keys.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
//
// Sensitive fields masked:
//   - AnthropicAPIKey
//   - OpenAIAPIKey
//   - GeminiAPIKey
//
// When adding new sensitive fields, update this method. The config tests
// will remind you when they fail.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.AnthropicAPIKey = maskSecret(a.AnthropicAPIKey)
	a.OpenAIAPIKey = maskSecret(a.OpenAIAPIKey)
	a.GeminiAPIKey = maskSecret(a.GeminiAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
