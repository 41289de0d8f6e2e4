// Package provider builds orchestrators for the supported providers from
// configuration.
package provider

import (
	"fmt"
	"os"
	"sort"

	"github.com/soyeahso/llmbridge/internal/catalog"
	"github.com/soyeahso/llmbridge/internal/config"
	"github.com/soyeahso/llmbridge/internal/hooks"
	"github.com/soyeahso/llmbridge/internal/llm"
	"github.com/soyeahso/llmbridge/internal/logging"
	"github.com/soyeahso/llmbridge/internal/provider/anthropic"
	"github.com/soyeahso/llmbridge/internal/provider/bedrock"
	"github.com/soyeahso/llmbridge/internal/provider/mistral"
	"github.com/soyeahso/llmbridge/internal/provider/ollama"
)

// spec describes how to reach one provider.
type spec struct {
	adapter func() llm.Adapter
	baseURL func(cfg config.Config) string
	keyEnv  string // env var consulted when no apiKey is configured
	headers func(key string) map[string]string
}

var providers = map[string]spec{
	catalog.ProviderBedrock: {
		adapter: func() llm.Adapter { return bedrock.New() },
		baseURL: func(cfg config.Config) string { return bedrock.BaseURL(cfg.Region) },
		keyEnv:  "AWS_BEARER_TOKEN_BEDROCK",
		headers: func(key string) map[string]string {
			return map[string]string{"Authorization": "Bearer " + key}
		},
	},
	catalog.ProviderAnthropic: {
		adapter: func() llm.Adapter { return anthropic.New() },
		baseURL: func(config.Config) string { return anthropic.DefaultBaseURL },
		keyEnv:  "ANTHROPIC_API_KEY",
		headers: func(key string) map[string]string {
			return map[string]string{"x-api-key": key, "anthropic-version": anthropic.APIVersion}
		},
	},
	catalog.ProviderMistral: {
		adapter: func() llm.Adapter { return mistral.New() },
		baseURL: func(config.Config) string { return mistral.DefaultBaseURL },
		keyEnv:  "MISTRAL_API_KEY",
		headers: func(key string) map[string]string {
			return map[string]string{"Authorization": "Bearer " + key}
		},
	},
	catalog.ProviderOllama: {
		adapter: func() llm.Adapter { return ollama.New() },
		baseURL: func(config.Config) string {
			if host := os.Getenv("OLLAMA_HOST"); host != "" {
				return host
			}
			return ollama.DefaultBaseURL
		},
	},
}

// Names returns the supported provider names, sorted.
func Names() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Adapter returns the wire adapter of provider name.
func Adapter(name string) (llm.Adapter, error) {
	s, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return s.adapter(), nil
}

// Transport builds the HTTP transport of provider name. Configured headers
// are applied after the auth headers and may override them.
func Transport(name string, cfg config.Config) (*llm.HTTPTransport, error) {
	s, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	pc := cfg.Providers[name]

	baseURL := pc.BaseURL
	if baseURL == "" {
		baseURL = s.baseURL(cfg)
	}

	headers := map[string]string{}
	if s.headers != nil {
		key := pc.APIKey
		if key == "" {
			key = os.Getenv(s.keyEnv)
		}
		if key == "" {
			return nil, &config.ConfigError{
				Message: fmt.Sprintf("%s: no API key (set providers.%s.apiKey or %s)", name, name, s.keyEnv),
			}
		}
		for k, v := range s.headers(key) {
			headers[k] = v
		}
	}
	for k, v := range pc.Headers {
		headers[k] = v
	}

	return llm.NewHTTPTransport(name, baseURL, llm.HTTPOptions{
		Headers:   headers,
		RateLimit: pc.RateLimit,
		Burst:     pc.Burst,
	}), nil
}

// Deps are the collaborators shared between orchestrators of one process.
type Deps struct {
	Catalog  *catalog.Catalog
	Session  *llm.SessionUsage
	Recorder llm.UsageRecorder
	Tools    []llm.Tool
	Hooks    *hooks.Manager
}

// New builds an orchestrator for cfg.Provider.
func New(cfg config.Config, deps Deps, log *logging.Logger) (*llm.Orchestrator, error) {
	adapter, err := Adapter(cfg.Provider)
	if err != nil {
		return nil, err
	}
	transport, err := Transport(cfg.Provider, cfg)
	if err != nil {
		return nil, err
	}
	return Assemble(cfg, adapter, transport, deps, log)
}

// Assemble wires an orchestrator around an existing adapter and transport.
func Assemble(cfg config.Config, adapter llm.Adapter, transport llm.Transport, deps Deps, log *logging.Logger) (*llm.Orchestrator, error) {
	cat := deps.Catalog
	if cat == nil {
		var err error
		if cat, err = cfg.BuildCatalog(); err != nil {
			return nil, err
		}
	}

	model := cfg.ModelFor(adapter.Name())
	models := llm.NewModelManager(cat, adapter.Name(), model, cfg.Retry.MaxAttempts, log)

	var estimator llm.Estimator = llm.CharEstimator{}
	if cfg.Usage.Estimator == "tiktoken" {
		estimator = llm.NewTiktokenEstimator(model)
	}

	tools := llm.NewToolManager(log)
	tools.RegisterTools(deps.Tools...)

	o := llm.New(adapter, transport, models, llm.Options{
		Tools:     tools,
		Usage:     llm.NewUsageTracker(cat, deps.Session, cfg.Usage.TrackingEnabled()),
		Estimator: estimator,
		Recorder:  deps.Recorder,
		Inference: llm.InferenceParams{
			MaxTokens:   cfg.Inference.MaxTokens,
			Temperature: cfg.Inference.Temperature,
			TopP:        cfg.Inference.TopP,
		},
		Window: llm.Window{ChatSize: cfg.Conversation.ChatSize},
		Hooks:  deps.Hooks,
	}, log)

	log.Info().
		Str("provider", adapter.Name()).
		Str("model", models.CurrentModel()).
		Int("tools", len(tools.Tools())).
		Msg("orchestrator ready")
	return o, nil
}
