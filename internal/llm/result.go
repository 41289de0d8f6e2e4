package llm

import "github.com/soyeahso/llmbridge/internal/catalog"

// ResultKind tags the two canonical result shapes.
type ResultKind string

const (
	KindResponse    ResultKind = "ASSISTANT_RESPONSE"
	KindToolRequest ResultKind = "ASSISTANT_TOOL_REQUEST"
)

// TokenUsage counts input and output tokens.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
}

// Total returns input plus output.
func (u TokenUsage) Total() int { return u.Input + u.Output }

// Result is the canonical outcome of an invocation. ToolCalls is only set
// for KindToolRequest.
type Result struct {
	Kind      ResultKind        `json:"type"`
	Content   string            `json:"content"`
	ToolCalls []ToolCall        `json:"toolCalls,omitempty"`
	Model     string            `json:"model,omitempty"`
	Usage     *TokenUsage       `json:"usage,omitempty"`
	Cost      *catalog.CostInfo `json:"cost,omitempty"`
}

// WantsTools reports whether the model asked for tool execution.
func (r *Result) WantsTools() bool {
	return r.Kind == KindToolRequest
}
