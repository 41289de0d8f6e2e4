// Package config loads and validates llmbridge configuration.
package config

import (
	"fmt"

	"github.com/soyeahso/llmbridge/internal/catalog"
)

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Provider: catalog.ProviderBedrock,
		Region:   "us-east-1",
		Usage: UsageConfig{
			Estimator: "chars",
		},
		Conversation: ConversationConfig{
			MaxToolRounds: 5,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}

// BuildCatalog returns the built-in catalog extended with the configured
// models, groups and prices.
func (c Config) BuildCatalog() (*catalog.Catalog, error) {
	cat := catalog.Builtin()
	for _, m := range c.Catalog.Models {
		cat.AddModel(m)
	}
	for _, g := range c.Catalog.Groups {
		cat.AddGroup(g)
	}
	for id, p := range c.Catalog.Pricing {
		cat.SetPricing(id, p.Pricing())
	}
	if err := cat.Validate(); err != nil {
		return nil, &ConfigError{Message: err.Error()}
	}
	return cat, nil
}

// ModelFor returns the configured initial model or the provider default.
func (c Config) ModelFor(provider string) string {
	if c.Model != "" && (c.Provider == "" || c.Provider == provider) {
		return c.Model
	}
	return catalog.DefaultModels[provider]
}
