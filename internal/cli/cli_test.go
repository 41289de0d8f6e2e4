package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soyeahso/llmbridge/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with an isolated LLMBRIDGE_HOME.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cfgFile, logLevel = "", ""

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--log-level", "silent"}, args...))
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func withHome(t *testing.T, configYAML string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("LLMBRIDGE_HOME", home)
	if configYAML != "" {
		require.NoError(t, os.WriteFile(filepath.Join(home, "config.yaml"), []byte(configYAML), 0o600))
	}
	return home
}

func TestVersionCmd(t *testing.T) {
	withHome(t, "")
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "llmbridge dev")
}

func TestModelsCmd(t *testing.T) {
	withHome(t, "")
	out, _, err := run(t, "", "models", "ollama")
	require.NoError(t, err)
	assert.Contains(t, out, "* llama3.1")
	assert.Contains(t, out, "llama3.2")
	assert.NotContains(t, out, "bedrock")

	_, _, err = run(t, "", "models", "openai")
	assert.Error(t, err)
}

func TestCostCmd(t *testing.T) {
	withHome(t, `
catalog:
  pricing:
    llama3.1: {input: 1, output: 2, unit: 1m}
`)
	out, _, err := run(t, "", "cost", "llama3.1", "1000000", "500000")
	require.NoError(t, err)
	assert.Contains(t, out, "input:  $1.000000")
	assert.Contains(t, out, "output: $1.000000")
	assert.Contains(t, out, "total:  $2.000000")

	_, _, err = run(t, "", "cost", "nope", "1", "1")
	assert.ErrorContains(t, err, "unknown model")

	_, _, err = run(t, "", "cost", "llama3.1", "-1", "1")
	assert.Error(t, err)
}

func TestConfigCmds(t *testing.T) {
	home := withHome(t, `
provider: mistral
providers:
  mistral:
    apiKey: sk-very-secret
    baseUrl: http://localhost:9999
`)
	out, _, err := run(t, "", "config", "get", "providers.mistral.baseUrl")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999\n", out)

	_, _, err = run(t, "", "config", "get", "providers.nope")
	assert.Error(t, err)

	out, _, err = run(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "provider: mistral")
	assert.NotContains(t, out, "sk-very-secret")

	out, _, err = run(t, "", "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "config OK")

	out, _, err = run(t, "", "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.yaml")+"\n", out)
}

func TestConfigValidateReportsIssues(t *testing.T) {
	withHome(t, "logging:\n  level: loud\n")
	out, _, err := run(t, "", "config", "validate")
	assert.Error(t, err)
	assert.Contains(t, out, "logging.level")
}

// ollamaServer answers the first request with a calculator call and the
// rest with plain text.
func ollamaServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		n := calls.Add(1)
		var resp map[string]any
		if n == 1 {
			resp = map[string]any{
				"model": "llama3.1",
				"message": map[string]any{
					"role":    "assistant",
					"content": "",
					"tool_calls": []any{map[string]any{
						"function": map[string]any{"name": "calculator", "arguments": map[string]any{"expression": "6*7"}},
					}},
				},
				"done": true, "prompt_eval_count": 10, "eval_count": 4,
			}
		} else {
			resp = map[string]any{
				"model":   "llama3.1",
				"message": map[string]any{"role": "assistant", "content": "The answer is 42."},
				"done":    true, "prompt_eval_count": 20, "eval_count": 6,
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestChatOneShotWithTools(t *testing.T) {
	srv, calls := ollamaServer(t)
	withHome(t, "provider: ollama\nproviders:\n  ollama:\n    baseUrl: "+srv.URL+"\n")

	out, errOut, err := run(t, "", "chat", "what is 6*7?")
	require.NoError(t, err)
	assert.Contains(t, out, "The answer is 42.")
	assert.Contains(t, errOut, "[tool calculator]")
	assert.Contains(t, errOut, "model=llama3.1 tokens=20+6")
	assert.Equal(t, int32(2), calls.Load())

	out, _, err = run(t, "", "conversations", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ollama/llama3.1")
	assert.Contains(t, out, "5 msgs")

	out, _, err = run(t, "", "usage")
	require.NoError(t, err)
	assert.Contains(t, out, "llama3.1")
	assert.Contains(t, out, "30")
}

func TestChatREPL(t *testing.T) {
	srv, _ := ollamaServer(t)
	withHome(t, "provider: ollama\nproviders:\n  ollama:\n    baseUrl: "+srv.URL+"\n")

	out, errOut, err := run(t, "/model qwen2.5\n/model\nhello\n/usage\n/exit\n", "chat", "--no-tools")
	require.NoError(t, err)
	assert.Contains(t, errOut, "model: qwen2.5 (active)")
	// the unregistered calculator call comes back as a tool error, then the model answers
	assert.Contains(t, errOut, "[tool calculator] Error:")
	assert.Contains(t, out, "The answer is 42.")
	assert.Contains(t, errOut, "this session: 30 in, 10 out")
}

func TestUsageEmpty(t *testing.T) {
	withHome(t, "")
	out, _, err := run(t, "", "usage")
	require.NoError(t, err)
	assert.Contains(t, out, "no usage recorded")
}

func TestConversationsShowMissing(t *testing.T) {
	withHome(t, "")
	_, _, err := run(t, "", "conversations", "show", "nope")
	assert.Error(t, err)
}

func TestChatReportsFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model == "llama3.1" {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"model is overloaded"}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"model":   req.Model,
			"message": map[string]any{"role": "assistant", "content": "hello from " + req.Model},
			"done":    true,
		})
	}))
	t.Cleanup(srv.Close)
	withHome(t, "provider: ollama\nproviders:\n  ollama:\n    baseUrl: "+srv.URL+"\n")

	out, errOut, err := run(t, "", "chat", "--no-tools", "hi")
	require.NoError(t, err)
	assert.Contains(t, out, "hello from llama3.2")
	assert.Contains(t, errOut, "[fallback llama3.1 -> llama3.2")
}

func TestSystemPrompt(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	p := systemPrompt(now, nil, "")
	assert.Equal(t, "Current date: 2026-05-01\n", p)

	p = systemPrompt(now, tools.Builtin(), "Answer in French.")
	assert.Contains(t, p, "Available tools: calculator, current_time, read_url")
	assert.True(t, strings.HasSuffix(p, "\nAnswer in French.\n"))
}
