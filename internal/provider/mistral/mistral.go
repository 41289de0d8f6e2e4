// Package mistral adapts the Mistral chat completions API.
package mistral

import (
	"encoding/json"
	"fmt"

	"github.com/soyeahso/llmbridge/internal/llm"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.mistral.ai"

// Adapter speaks the chat completions API.
type Adapter struct{}

// New creates a Mistral adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return "mistral" }

type function struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

type toolCall struct {
	ID       string   `json:"id"`
	Type     string   `json:"type,omitempty"`
	Function function `json:"function"`
}

type message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

type toolDef struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
	TopP        float64   `json:"top_p"`
	Tools       []toolDef `json:"tools,omitempty"`
	ToolChoice  string    `json:"tool_choice,omitempty"`
}

type responseMessage struct {
	Content   json.RawMessage `json:"content"`
	ToolCalls []toolCall      `json:"tool_calls"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		FinishReason string          `json:"finish_reason"`
		Message      responseMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// FormatRequest builds a chat completions request. System content is sent
// as a leading system message; each tool result is its own tool message.
func (a *Adapter) FormatRequest(req llm.Request) (*llm.WireRequest, error) {
	body := chatRequest{
		Model:       req.Model,
		MaxTokens:   req.Inference.MaxTokens,
		Temperature: req.Inference.Temperature,
		TopP:        req.Inference.TopP,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, message{Role: "system", Content: req.System})
	}

	for _, m := range req.Messages {
		if m.Role == llm.RoleTool {
			for _, r := range llm.ToolResults(m) {
				body.Messages = append(body.Messages, message{
					Role:       "tool",
					Content:    r.Text(),
					ToolCallID: r.CallID,
					Name:       r.Name,
				})
			}
			continue
		}
		out := message{Role: string(m.Role), Content: m.Text()}
		for _, call := range llm.ToolUses(m) {
			out.ToolCalls = append(out.ToolCalls, toolCall{
				ID:       call.ID,
				Type:     "function",
				Function: function{Name: call.Name, Arguments: llm.InputJSON(call.Input)},
			})
		}
		body.Messages = append(body.Messages, out)
	}

	if req.Tools != nil {
		for _, t := range req.Tools.Tools {
			var d toolDef
			d.Type = "function"
			d.Function.Name = t.Name
			d.Function.Description = t.Description
			d.Function.Parameters = t.Parameters
			body.Tools = append(body.Tools, d)
		}
		body.ToolChoice = req.Tools.Choice
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return &llm.WireRequest{Path: "/v1/chat/completions", Body: data}, nil
}

// ParseResponse decodes a chat completions response. Only the first choice
// is read.
func (a *Adapter) ParseResponse(body []byte) (*llm.Response, error) {
	var raw chatResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("mistral: %w: %v", llm.ErrUnrecognizedResponse, err)
	}
	if len(raw.Choices) == 0 {
		return nil, fmt.Errorf("mistral: %w: no choices", llm.ErrUnrecognizedResponse)
	}

	choice := raw.Choices[0]
	resp := &llm.Response{RawCause: choice.FinishReason, Model: raw.Model}
	switch choice.FinishReason {
	case "stop", "length", "model_length":
		resp.Cause = llm.CauseCompletion
	case "tool_calls":
		resp.Cause = llm.CauseToolUse
	}

	for _, text := range contentText(choice.Message.Content) {
		resp.Blocks = append(resp.Blocks, llm.TextBlock(text))
	}
	for _, tc := range choice.Message.ToolCalls {
		resp.Blocks = append(resp.Blocks, llm.ContentBlock{
			Type: llm.BlockToolUse,
			ToolCall: &llm.ToolCall{
				ID:    tc.ID,
				Name:  tc.Function.Name,
				Input: tc.Function.Arguments,
			},
		})
	}
	if raw.Usage != nil {
		resp.Usage = &llm.TokenUsage{Input: raw.Usage.PromptTokens, Output: raw.Usage.CompletionTokens}
	}
	return resp, nil
}

// contentText reads message content, which is either a string or, for
// reasoning models, an array of typed chunks. Only text chunks are kept.
func contentText(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return []string{s}
	}
	var chunks []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &chunks); err != nil {
		return nil
	}
	var out []string
	for _, c := range chunks {
		if c.Type == "text" && c.Text != "" {
			out = append(out, c.Text)
		}
	}
	return out
}
