package provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/soyeahso/llmbridge/internal/config"
	"github.com/soyeahso/llmbridge/internal/llm"
	"github.com/soyeahso/llmbridge/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"anthropic", "bedrock", "mistral", "ollama"}, Names())
}

func TestAdapterUnknown(t *testing.T) {
	_, err := Adapter("openai")
	assert.Error(t, err)
}

func TestTransportRequiresKey(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	cfg := config.Defaults()
	_, err := Transport("mistral", cfg)
	require.Error(t, err)
	var cfgErr *config.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "MISTRAL_API_KEY")
}

func TestNewMistralEndToEnd(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		_, _ = w.Write([]byte(`{
			"model": "mistral-small-latest",
			"choices": [{"finish_reason": "stop", "message": {"content": "Bonjour"}}],
			"usage": {"prompt_tokens": 1000000, "completion_tokens": 1000000}
		}`))
	}))
	defer srv.Close()

	cfg := config.Defaults()
	cfg.Provider = "mistral"
	cfg.Providers = map[string]config.ProviderConfig{
		"mistral": {BaseURL: srv.URL, APIKey: "sk-test"},
	}

	session := llm.NewSessionUsage()
	o, err := New(cfg, Deps{Session: session}, silentLog())
	require.NoError(t, err)
	assert.Equal(t, "mistral", o.Provider())
	assert.Equal(t, "mistral-small-latest", o.Models().CurrentModel())

	res, err := o.Invoke(context.Background(), []llm.Message{llm.UserMessage("Salut")})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", res.Content)
	assert.Equal(t, "0.400000", res.Cost.TotalCost)
	assert.Equal(t, 2_000_000, session.Snapshot().Total())

	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, float64(4096), gotBody["max_tokens"], "catalog values apply")
	assert.Equal(t, float64(1), gotBody["top_p"])
}

func TestNewOllamaFallsBackOnUnavailableModel(t *testing.T) {
	var models []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		models = append(models, body.Model)
		if len(models) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"server busy"}`))
			return
		}
		_, _ = w.Write([]byte(`{"model":"` + body.Model + `","message":{"content":"ok"},"done":true}`))
	}))
	defer srv.Close()

	cfg := config.Defaults()
	cfg.Provider = "ollama"
	cfg.Providers = map[string]config.ProviderConfig{"ollama": {BaseURL: srv.URL}}

	o, err := New(cfg, Deps{}, silentLog())
	require.NoError(t, err)

	res, err := o.Invoke(context.Background(), []llm.Message{llm.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.1", "llama3.2"}, models)
	assert.Equal(t, "llama3.2", res.Model)
}

func TestConfiguredHeadersOverride(t *testing.T) {
	cfg := config.Defaults()
	cfg.Providers = map[string]config.ProviderConfig{
		"anthropic": {APIKey: "k", Headers: map[string]string{"anthropic-version": "2099-01-01"}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.Header.Get("x-api-key"))
		assert.Equal(t, "2099-01-01", r.Header.Get("anthropic-version"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	p := cfg.Providers["anthropic"]
	p.BaseURL = srv.URL
	cfg.Providers["anthropic"] = p

	tr, err := Transport("anthropic", cfg)
	require.NoError(t, err)
	_, err = tr.Send(context.Background(), &llm.WireRequest{Path: "/v1/messages"})
	require.NoError(t, err)
}
