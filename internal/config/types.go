package config

import "github.com/soyeahso/llmbridge/internal/catalog"

// Config is the root configuration for llmbridge. Every orchestrator gets the
// values it needs injected at construction; nothing reads a global instance.
type Config struct {
	Provider     string                    `yaml:"provider,omitempty" toml:"provider"` // "bedrock" | "anthropic" | "mistral" | "ollama"
	Model        string                    `yaml:"model,omitempty" toml:"model"`       // initial model id; provider default when empty
	Region       string                    `yaml:"region,omitempty" toml:"region"`     // bedrock region
	Providers    map[string]ProviderConfig `yaml:"providers,omitempty" toml:"providers"`
	Inference    InferenceConfig           `yaml:"inference,omitempty" toml:"inference"`
	Usage        UsageConfig               `yaml:"usage,omitempty" toml:"usage"`
	Conversation ConversationConfig        `yaml:"conversation,omitempty" toml:"conversation"`
	Retry        RetryConfig               `yaml:"retry,omitempty" toml:"retry"`
	Catalog      CatalogConfig             `yaml:"catalog,omitempty" toml:"catalog"`
	Logging      LoggingConfig             `yaml:"logging,omitempty" toml:"logging"`
}

// ProviderConfig holds the endpoint settings of one provider.
type ProviderConfig struct {
	BaseURL   string            `yaml:"baseUrl,omitempty" toml:"baseUrl"`
	APIKey    string            `yaml:"apiKey,omitempty" toml:"apiKey"` // supports ${ENV_VAR}
	Headers   map[string]string `yaml:"headers,omitempty" toml:"headers"`
	RateLimit float64           `yaml:"rateLimit,omitempty" toml:"rateLimit"` // requests per second, 0 = unlimited
	Burst     int               `yaml:"burst,omitempty" toml:"burst"`
}

// InferenceConfig holds configuration-level sampling parameters. Zero
// fields are unset; set fields win over the catalog's per-model values.
type InferenceConfig struct {
	MaxTokens   int     `yaml:"maxTokens,omitempty" toml:"maxTokens"`
	Temperature float64 `yaml:"temperature,omitempty" toml:"temperature"`
	TopP        float64 `yaml:"topP,omitempty" toml:"topP"`
}

// UsageConfig controls token tracking.
type UsageConfig struct {
	Enabled   *bool        `yaml:"enabled,omitempty" toml:"enabled"`
	Ledger    string       `yaml:"ledger,omitempty" toml:"ledger"`       // sqlite database path, "" uses the default under LLMBRIDGE_HOME
	Estimator string       `yaml:"estimator,omitempty" toml:"estimator"` // "chars" | "tiktoken"
	Redis     *RedisConfig `yaml:"redis,omitempty" toml:"redis"`
}

// RedisConfig points usage counters at a shared Redis instance. When set it
// replaces the sqlite ledger.
type RedisConfig struct {
	Addr     string `yaml:"addr" toml:"addr"`
	Password string `yaml:"password,omitempty" toml:"password"`
	DB       int    `yaml:"db,omitempty" toml:"db"`
	Prefix   string `yaml:"prefix,omitempty" toml:"prefix"`
}

// TrackingEnabled reports whether token tracking is on. Tracking defaults to on.
func (u UsageConfig) TrackingEnabled() bool {
	return u.Enabled == nil || *u.Enabled
}

// ConversationConfig controls how stored conversations are windowed.
type ConversationConfig struct {
	ChatSize      int `yaml:"chatSize,omitempty" toml:"chatSize"` // 0 keeps everything
	MaxToolRounds int `yaml:"maxToolRounds,omitempty" toml:"maxToolRounds"`
}

// RetryConfig bounds error-driven fallback.
type RetryConfig struct {
	MaxAttempts int `yaml:"maxAttempts,omitempty" toml:"maxAttempts"`
}

// CatalogConfig extends the built-in model tables.
type CatalogConfig struct {
	Models  []catalog.Model         `yaml:"models,omitempty" toml:"models"`
	Groups  []catalog.Group         `yaml:"groups,omitempty" toml:"groups"`
	Pricing map[string]PricingEntry `yaml:"pricing,omitempty" toml:"pricing"`
}

// PricingEntry is a model price as quoted by the provider. Unit says what
// the rates are quoted per: "token", "1k" or "1m".
type PricingEntry struct {
	Input  float64 `yaml:"input" toml:"input"`
	Output float64 `yaml:"output" toml:"output"`
	Unit   string  `yaml:"unit,omitempty" toml:"unit"`
}

// Pricing normalizes the entry to per-token rates.
func (p PricingEntry) Pricing() catalog.Pricing {
	switch p.Unit {
	case "1k":
		return catalog.PerThousand(p.Input, p.Output)
	case "1m":
		return catalog.PerMillion(p.Input, p.Output)
	default:
		return catalog.PerToken(p.Input, p.Output)
	}
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty" toml:"level"`               // "silent" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty" toml:"consoleStyle"` // "pretty" | "compact" | "json"
}
