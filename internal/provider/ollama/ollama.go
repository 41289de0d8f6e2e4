// Package ollama adapts the Ollama /api/chat endpoint.
package ollama

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/soyeahso/llmbridge/internal/llm"
)

// DefaultBaseURL is the local Ollama daemon.
const DefaultBaseURL = "http://localhost:11434"

// Adapter speaks the Ollama chat API. Ollama does not always report token
// counts; responses without them carry no usage and get estimated.
type Adapter struct {
	newID func() string
}

// New creates an Ollama adapter.
func New() *Adapter {
	return &Adapter{newID: func() string { return "call_" + uuid.NewString() }}
}

func (a *Adapter) Name() string { return "ollama" }

type function struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type toolCall struct {
	ID       string   `json:"id,omitempty"`
	Function function `json:"function"`
}

type message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
	ToolName  string     `json:"tool_name,omitempty"`
}

type toolDef struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		Parameters  map[string]any `json:"parameters"`
	} `json:"function"`
}

type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
	Tools    []toolDef `json:"tools,omitempty"`
	Options  options   `json:"options"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Content   string `json:"content"`
		ToolCalls []struct {
			ID       string `json:"id"`
			Function struct {
				Name      string `json:"name"`
				Arguments any    `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"message"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount *int   `json:"prompt_eval_count"`
	EvalCount       *int   `json:"eval_count"`
}

// FormatRequest builds a non-streaming chat request. Ollama has no tool
// choice setting; tools are simply listed.
func (a *Adapter) FormatRequest(req llm.Request) (*llm.WireRequest, error) {
	body := chatRequest{
		Model: req.Model,
		Options: options{
			NumPredict:  req.Inference.MaxTokens,
			Temperature: req.Inference.Temperature,
			TopP:        req.Inference.TopP,
		},
	}
	if req.System != "" {
		body.Messages = append(body.Messages, message{Role: "system", Content: req.System})
	}

	for _, m := range req.Messages {
		if m.Role == llm.RoleTool {
			for _, r := range llm.ToolResults(m) {
				body.Messages = append(body.Messages, message{Role: "tool", Content: r.Text(), ToolName: r.Name})
			}
			continue
		}
		out := message{Role: string(m.Role), Content: m.Text()}
		for _, call := range llm.ToolUses(m) {
			out.ToolCalls = append(out.ToolCalls, toolCall{
				ID:       call.ID,
				Function: function{Name: call.Name, Arguments: llm.InputObject(call.Input)},
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
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return &llm.WireRequest{Path: "/api/chat", Body: data}, nil
}

// ParseResponse decodes a chat response. A message with tool calls is a
// tool request regardless of done_reason; tool calls without ids get
// generated ones.
func (a *Adapter) ParseResponse(body []byte) (*llm.Response, error) {
	var raw chatResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("ollama: %w: %v", llm.ErrUnrecognizedResponse, err)
	}

	resp := &llm.Response{RawCause: raw.DoneReason, Model: raw.Model}
	switch {
	case len(raw.Message.ToolCalls) > 0:
		resp.Cause = llm.CauseToolUse
	case raw.Done:
		resp.Cause = llm.CauseCompletion
	default:
		resp.RawCause = "incomplete"
	}

	if raw.Message.Content != "" {
		resp.Blocks = append(resp.Blocks, llm.TextBlock(raw.Message.Content))
	}
	for _, tc := range raw.Message.ToolCalls {
		id := tc.ID
		if id == "" {
			id = a.newID()
		}
		resp.Blocks = append(resp.Blocks, llm.ContentBlock{
			Type:     llm.BlockToolUse,
			ToolCall: &llm.ToolCall{ID: id, Name: tc.Function.Name, Input: tc.Function.Arguments},
		})
	}
	if raw.PromptEvalCount != nil && raw.EvalCount != nil {
		resp.Usage = &llm.TokenUsage{Input: *raw.PromptEvalCount, Output: *raw.EvalCount}
	}
	return resp, nil
}
