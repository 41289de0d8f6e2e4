// Package anthropic adapts the Anthropic Messages API.
package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/soyeahso/llmbridge/internal/llm"
)

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"
	// APIVersion is sent as the anthropic-version header.
	APIVersion = "2023-06-01"
)

// Adapter speaks the Messages API.
type Adapter struct{}

// New creates an Anthropic adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return "anthropic" }

type contentBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text,omitempty"`
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name,omitempty"`
	Input     any            `json:"input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   string         `json:"content,omitempty"`
	IsError   bool           `json:"is_error,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type messagesRequest struct {
	Model       string         `json:"model"`
	MaxTokens   int            `json:"max_tokens"`
	System      string         `json:"system,omitempty"`
	Messages    []message      `json:"messages"`
	Temperature float64        `json:"temperature"`
	TopP        float64        `json:"top_p"`
	Tools       []tool         `json:"tools,omitempty"`
	ToolChoice  map[string]any `json:"tool_choice,omitempty"`
}

type messagesResponse struct {
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type  string         `json:"type"`
		Text  string         `json:"text"`
		ID    string         `json:"id"`
		Name  string         `json:"name"`
		Input map[string]any `json:"input"`
	} `json:"content"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// FormatRequest builds a Messages request. Tool results are sent as
// tool_result blocks in user turns; consecutive turns of one role merge.
func (a *Adapter) FormatRequest(req llm.Request) (*llm.WireRequest, error) {
	body := messagesRequest{
		Model:       req.Model,
		MaxTokens:   req.Inference.MaxTokens,
		System:      req.System,
		Temperature: req.Inference.Temperature,
		TopP:        req.Inference.TopP,
	}

	for _, m := range req.Messages {
		role, blocks := convertMessage(m)
		if len(blocks) == 0 {
			continue
		}
		if n := len(body.Messages); n > 0 && body.Messages[n-1].Role == role {
			body.Messages[n-1].Content = append(body.Messages[n-1].Content, blocks...)
			continue
		}
		body.Messages = append(body.Messages, message{Role: role, Content: blocks})
	}

	if req.Tools != nil {
		for _, t := range req.Tools.Tools {
			body.Tools = append(body.Tools, tool{
				Name:        t.Name,
				Description: t.Description,
				InputSchema: t.Parameters,
			})
		}
		body.ToolChoice = map[string]any{"type": req.Tools.Choice}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return &llm.WireRequest{Path: "/v1/messages", Body: data}, nil
}

func convertMessage(m llm.Message) (string, []contentBlock) {
	var blocks []contentBlock
	if m.Role == llm.RoleTool {
		for _, r := range llm.ToolResults(m) {
			blocks = append(blocks, contentBlock{
				Type:      "tool_result",
				ToolUseID: r.CallID,
				Content:   r.Text(),
				IsError:   r.IsError(),
			})
		}
		return "user", blocks
	}

	if text := m.Text(); text != "" {
		blocks = append(blocks, contentBlock{Type: "text", Text: text})
	}
	for _, call := range llm.ToolUses(m) {
		blocks = append(blocks, contentBlock{
			Type:  "tool_use",
			ID:    call.ID,
			Name:  call.Name,
			Input: llm.InputObject(call.Input),
		})
	}
	return string(m.Role), blocks
}

// ParseResponse decodes a Messages response.
func (a *Adapter) ParseResponse(body []byte) (*llm.Response, error) {
	var raw messagesResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("anthropic: %w: %v", llm.ErrUnrecognizedResponse, err)
	}

	resp := &llm.Response{RawCause: raw.StopReason, Model: raw.Model}
	switch raw.StopReason {
	case "end_turn", "stop_sequence", "max_tokens":
		resp.Cause = llm.CauseCompletion
	case "tool_use":
		resp.Cause = llm.CauseToolUse
	}

	for _, b := range raw.Content {
		switch b.Type {
		case "text":
			resp.Blocks = append(resp.Blocks, llm.TextBlock(b.Text))
		case "tool_use":
			resp.Blocks = append(resp.Blocks, llm.ContentBlock{
				Type:     llm.BlockToolUse,
				ToolCall: &llm.ToolCall{ID: b.ID, Name: b.Name, Input: b.Input},
			})
		}
	}
	if raw.Usage != nil {
		resp.Usage = &llm.TokenUsage{Input: raw.Usage.InputTokens, Output: raw.Usage.OutputTokens}
	}
	return resp, nil
}
