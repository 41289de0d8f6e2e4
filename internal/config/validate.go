package config

import (
	"fmt"
	"slices"

	"github.com/soyeahso/llmbridge/internal/catalog"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

var validProviders = []string{
	catalog.ProviderBedrock,
	catalog.ProviderAnthropic,
	catalog.ProviderMistral,
	catalog.ProviderOllama,
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if !slices.Contains(validProviders, cfg.Provider) {
		issues = append(issues, ValidationIssue{
			Path:    "provider",
			Message: fmt.Sprintf("must be one of %v, got %q", validProviders, cfg.Provider),
		})
	}
	for name, p := range cfg.Providers {
		if !slices.Contains(validProviders, name) {
			issues = append(issues, ValidationIssue{
				Path:    "providers." + name,
				Message: "unknown provider",
			})
		}
		if p.RateLimit < 0 {
			issues = append(issues, ValidationIssue{
				Path:    "providers." + name + ".rateLimit",
				Message: fmt.Sprintf("must be >= 0, got %g", p.RateLimit),
			})
		}
	}

	if cfg.Inference.MaxTokens < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "inference.maxTokens",
			Message: fmt.Sprintf("must be >= 0, got %d", cfg.Inference.MaxTokens),
		})
	}
	if cfg.Inference.Temperature < 0 || cfg.Inference.Temperature > 2 {
		issues = append(issues, ValidationIssue{
			Path:    "inference.temperature",
			Message: fmt.Sprintf("must be 0-2, got %g", cfg.Inference.Temperature),
		})
	}
	if cfg.Inference.TopP < 0 || cfg.Inference.TopP > 1 {
		issues = append(issues, ValidationIssue{
			Path:    "inference.topP",
			Message: fmt.Sprintf("must be 0-1, got %g", cfg.Inference.TopP),
		})
	}

	validEstimators := []string{"", "chars", "tiktoken"}
	if !slices.Contains(validEstimators, cfg.Usage.Estimator) {
		issues = append(issues, ValidationIssue{
			Path:    "usage.estimator",
			Message: fmt.Sprintf("must be one of [chars tiktoken], got %q", cfg.Usage.Estimator),
		})
	}

	if r := cfg.Usage.Redis; r != nil {
		if r.Addr == "" {
			issues = append(issues, ValidationIssue{
				Path:    "usage.redis.addr",
				Message: "is required when usage.redis is set",
			})
		}
		if r.DB < 0 {
			issues = append(issues, ValidationIssue{
				Path:    "usage.redis.db",
				Message: fmt.Sprintf("must be >= 0, got %d", r.DB),
			})
		}
	}

	if cfg.Conversation.ChatSize < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "conversation.chatSize",
			Message: fmt.Sprintf("must be >= 0, got %d", cfg.Conversation.ChatSize),
		})
	}
	if cfg.Retry.MaxAttempts < 0 {
		issues = append(issues, ValidationIssue{
			Path:    "retry.maxAttempts",
			Message: fmt.Sprintf("must be >= 0, got %d", cfg.Retry.MaxAttempts),
		})
	}

	for id, entry := range cfg.Catalog.Pricing {
		if !slices.Contains([]string{"", "token", "1k", "1m"}, entry.Unit) {
			issues = append(issues, ValidationIssue{
				Path:    "catalog.pricing." + id + ".unit",
				Message: fmt.Sprintf("must be one of [token 1k 1m], got %q", entry.Unit),
			})
		}
	}
	if _, err := cfg.BuildCatalog(); err != nil {
		issues = append(issues, ValidationIssue{Path: "catalog", Message: err.Error()})
	}

	validLogLevels := []string{"silent", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}
	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.consoleStyle",
			Message: fmt.Sprintf("must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle),
		})
	}

	return issues
}
