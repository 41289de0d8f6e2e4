package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/soyeahso/llmbridge/internal/version"
	"golang.org/x/time/rate"
)

// Transport performs the network call of an invocation.
type Transport interface {
	Send(ctx context.Context, req *WireRequest) ([]byte, error)
}

// HTTPTransport posts JSON requests to a provider endpoint.
type HTTPTransport struct {
	provider string
	baseURL  string
	headers  map[string]string
	limiter  *rate.Limiter
	client   *http.Client
}

// HTTPOptions configures an HTTPTransport.
type HTTPOptions struct {
	Headers   map[string]string
	RateLimit float64 // requests per second, 0 = unlimited
	Burst     int
	Client    *http.Client
}

// NewHTTPTransport creates a transport for provider rooted at baseURL.
func NewHTTPTransport(provider, baseURL string, opts HTTPOptions) *HTTPTransport {
	t := &HTTPTransport{
		provider: provider,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		headers:  opts.Headers,
		client:   opts.Client,
	}
	if t.client == nil {
		t.client = &http.Client{Timeout: 120 * time.Second}
	}
	if opts.RateLimit > 0 {
		burst := max(opts.Burst, 1)
		t.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return t
}

// Send posts req and returns the response body. Non-2xx statuses become a
// *ProviderError carrying the provider's error message.
func (t *HTTPTransport) Send(ctx context.Context, req *WireRequest) ([]byte, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, t.baseURL+req.Path, bytes.NewReader(req.Body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())
	for k, v := range t.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ProviderError{
			Provider: t.provider,
			Code:     resp.StatusCode,
			Message:  errorMessage(body),
		}
	}
	return body, nil
}

// errorMessage extracts the human-readable message from common provider
// error bodies, falling back to the raw body.
func errorMessage(body []byte) string {
	var parsed struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		switch e := parsed.Error.(type) {
		case string:
			return e
		case map[string]any:
			if msg, ok := e["message"].(string); ok {
				return msg
			}
		}
	}
	return strings.TrimSpace(string(body))
}
