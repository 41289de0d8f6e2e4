// Package bedrock adapts the Amazon Bedrock Converse API.
package bedrock

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/soyeahso/llmbridge/internal/llm"
)

// BaseURL returns the Bedrock runtime endpoint of region.
func BaseURL(region string) string {
	return fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", region)
}

// Adapter speaks the Converse API.
type Adapter struct{}

// New creates a Bedrock adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string { return "bedrock" }

type textBlock struct {
	Text string `json:"text"`
}

type toolUse struct {
	ToolUseID string         `json:"toolUseId"`
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
}

type toolResult struct {
	ToolUseID string      `json:"toolUseId"`
	Content   []textBlock `json:"content"`
	Status    string      `json:"status,omitempty"`
}

type contentBlock struct {
	Text       *string     `json:"text,omitempty"`
	ToolUse    *toolUse    `json:"toolUse,omitempty"`
	ToolResult *toolResult `json:"toolResult,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type toolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

type toolConfig struct {
	Tools      []map[string]toolSpec `json:"tools"`
	ToolChoice map[string]any        `json:"toolChoice"`
}

type inferenceConfig struct {
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
}

type converseRequest struct {
	Messages        []message       `json:"messages"`
	System          []textBlock     `json:"system,omitempty"`
	InferenceConfig inferenceConfig `json:"inferenceConfig"`
	ToolConfig      *toolConfig     `json:"toolConfig,omitempty"`
}

type converseResponse struct {
	Output struct {
		Message *message `json:"message"`
	} `json:"output"`
	StopReason string `json:"stopReason"`
	Usage      *struct {
		InputTokens  int `json:"inputTokens"`
		OutputTokens int `json:"outputTokens"`
	} `json:"usage"`
}

// FormatRequest builds a Converse request. Tool results travel in user
// turns and consecutive turns of one role are merged, as Converse requires
// strictly alternating roles.
func (a *Adapter) FormatRequest(req llm.Request) (*llm.WireRequest, error) {
	body := converseRequest{
		InferenceConfig: inferenceConfig{
			MaxTokens:   req.Inference.MaxTokens,
			Temperature: req.Inference.Temperature,
			TopP:        req.Inference.TopP,
		},
	}
	if req.System != "" {
		body.System = []textBlock{{Text: req.System}}
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
		tc := &toolConfig{ToolChoice: map[string]any{req.Tools.Choice: map[string]any{}}}
		for _, t := range req.Tools.Tools {
			tc.Tools = append(tc.Tools, map[string]toolSpec{"toolSpec": {
				Name:        t.Name,
				Description: t.Description,
				InputSchema: map[string]any{"json": t.Parameters},
			}})
		}
		body.ToolConfig = tc
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return &llm.WireRequest{
		Path: "/model/" + url.PathEscape(req.Model) + "/converse",
		Body: data,
	}, nil
}

func convertMessage(m llm.Message) (string, []contentBlock) {
	if m.Role == llm.RoleTool {
		var blocks []contentBlock
		for _, r := range llm.ToolResults(m) {
			tr := &toolResult{ToolUseID: r.CallID, Content: []textBlock{{Text: r.Text()}}}
			if r.IsError() {
				tr.Status = "error"
			}
			blocks = append(blocks, contentBlock{ToolResult: tr})
		}
		return "user", blocks
	}

	var blocks []contentBlock
	if text := m.Text(); text != "" {
		blocks = append(blocks, contentBlock{Text: &text})
	}
	for _, b := range m.Blocks {
		if b.Type == llm.BlockToolResult && b.ToolResult != nil {
			r := *b.ToolResult
			blocks = append(blocks, contentBlock{ToolResult: &toolResult{
				ToolUseID: r.CallID,
				Content:   []textBlock{{Text: r.Text()}},
			}})
		}
	}
	for _, call := range llm.ToolUses(m) {
		blocks = append(blocks, contentBlock{ToolUse: &toolUse{
			ToolUseID: call.ID,
			Name:      call.Name,
			Input:     llm.InputObject(call.Input),
		}})
	}
	return string(m.Role), blocks
}

// ParseResponse decodes a Converse response.
func (a *Adapter) ParseResponse(body []byte) (*llm.Response, error) {
	var raw converseResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("bedrock: %w: %v", llm.ErrUnrecognizedResponse, err)
	}

	resp := &llm.Response{RawCause: raw.StopReason}
	switch raw.StopReason {
	case "end_turn", "stop_sequence", "max_tokens":
		resp.Cause = llm.CauseCompletion
	case "tool_use":
		resp.Cause = llm.CauseToolUse
	}

	if raw.Output.Message != nil {
		for _, b := range raw.Output.Message.Content {
			switch {
			case b.Text != nil:
				resp.Blocks = append(resp.Blocks, llm.TextBlock(*b.Text))
			case b.ToolUse != nil:
				resp.Blocks = append(resp.Blocks, llm.ContentBlock{
					Type: llm.BlockToolUse,
					ToolCall: &llm.ToolCall{
						ID:    b.ToolUse.ToolUseID,
						Name:  b.ToolUse.Name,
						Input: b.ToolUse.Input,
					},
				})
			}
		}
	}
	if raw.Usage != nil {
		resp.Usage = &llm.TokenUsage{Input: raw.Usage.InputTokens, Output: raw.Usage.OutputTokens}
	}
	return resp, nil
}
