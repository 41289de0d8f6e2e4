package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/soyeahso/llmbridge/internal/catalog"
	"github.com/soyeahso/llmbridge/internal/logging"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

// testCatalog has two groups for provider "test": [m1 m2] then [m3].
func testCatalog() *catalog.Catalog {
	c := catalog.New()
	c.AddModel(catalog.Model{ID: "m1", Provider: "test", MaxTokens: 1000, DefaultTemperature: 0.5})
	c.AddModel(catalog.Model{ID: "m2", Provider: "test"})
	c.AddModel(catalog.Model{ID: "m3", Provider: "test", DefaultTopP: 0.3})
	c.AddGroup(catalog.Group{Key: "a", Provider: "test", Models: []string{"m1", "m2"}})
	c.AddGroup(catalog.Group{Key: "b", Provider: "test", Models: []string{"m3"}})
	c.SetPricing("m1", catalog.PerMillion(3, 15))
	return c
}

// fakeAdapter speaks a minimal JSON dialect:
// {"stop":"end_turn","blocks":[...],"usage":{"input":1,"output":2}}.
type fakeAdapter struct {
	last Request
}

func (a *fakeAdapter) Name() string { return "test" }

func (a *fakeAdapter) FormatRequest(req Request) (*WireRequest, error) {
	a.last = req
	body, err := json.Marshal(map[string]any{
		"model":    req.Model,
		"system":   req.System,
		"messages": req.Messages,
		"tools":    req.Tools,
	})
	if err != nil {
		return nil, err
	}
	return &WireRequest{Path: "/" + req.Model, Body: body}, nil
}

func (a *fakeAdapter) ParseResponse(body []byte) (*Response, error) {
	var raw struct {
		Stop   string `json:"stop"`
		Blocks []struct {
			Text  string         `json:"text"`
			Tool  string         `json:"tool"`
			ID    string         `json:"id"`
			Input map[string]any `json:"input"`
		} `json:"blocks"`
		Usage *TokenUsage `json:"usage"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrecognizedResponse, err)
	}
	resp := &Response{RawCause: raw.Stop, Usage: raw.Usage}
	switch raw.Stop {
	case "end_turn":
		resp.Cause = CauseCompletion
	case "tool_use":
		resp.Cause = CauseToolUse
	}
	for _, b := range raw.Blocks {
		if b.Tool != "" {
			resp.Blocks = append(resp.Blocks, ContentBlock{
				Type:     BlockToolUse,
				ToolCall: &ToolCall{ID: b.ID, Name: b.Tool, Input: b.Input},
			})
			continue
		}
		resp.Blocks = append(resp.Blocks, TextBlock(b.Text))
	}
	return resp, nil
}

// funcTool is a Tool backed by a function.
type funcTool struct {
	name string
	fn   func(ctx context.Context, params map[string]any) (any, error)
}

func (t *funcTool) Name() string        { return t.name }
func (t *funcTool) Description() string { return "test tool " + t.name }
func (t *funcTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
func (t *funcTool) Execute(ctx context.Context, params map[string]any) (any, error) {
	return t.fn(ctx, params)
}

func echoTool(name string) *funcTool {
	return &funcTool{name: name, fn: func(_ context.Context, p map[string]any) (any, error) {
		return p, nil
	}}
}

// memStore is a fixed MessageStore.
type memStore []Message

func (s memStore) AllMessages() []Message { return s }
