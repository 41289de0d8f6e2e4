package llm

import (
	"fmt"
	"strings"
)

// StopCause is the normalized termination cause of a provider response.
type StopCause int

const (
	CauseUnknown StopCause = iota
	CauseCompletion
	CauseToolUse
)

// Response is what an Adapter extracts from a provider's raw response.
// No provider-specific field survives past this type.
type Response struct {
	Cause    StopCause
	RawCause string // as reported by the provider, for diagnostics
	Blocks   []ContentBlock
	Usage    *TokenUsage // nil when the provider reported no usage
	Model    string
}

// ResponseHandler maps adapter responses onto the two canonical Result
// shapes.
type ResponseHandler struct {
	provider string
}

// NewResponseHandler creates a handler whose errors name provider.
func NewResponseHandler(provider string) *ResponseHandler {
	return &ResponseHandler{provider: provider}
}

// Handle normalizes resp. Text blocks are joined with newlines; tool_use
// blocks become tool calls. An unrecognized cause is a fatal protocol error.
func (h *ResponseHandler) Handle(resp *Response) (*Result, error) {
	if resp == nil {
		return nil, fmt.Errorf("%s: %w: empty response", h.provider, ErrUnrecognizedResponse)
	}

	var texts []string
	var calls []ToolCall
	for _, b := range resp.Blocks {
		switch b.Type {
		case BlockText:
			if b.Text != "" {
				texts = append(texts, b.Text)
			}
		case BlockToolUse:
			if b.ToolCall != nil {
				calls = append(calls, *b.ToolCall)
			}
		}
	}
	content := strings.Join(texts, "\n")

	switch resp.Cause {
	case CauseCompletion:
		return &Result{Kind: KindResponse, Content: content, Model: resp.Model}, nil
	case CauseToolUse:
		return &Result{Kind: KindToolRequest, Content: content, ToolCalls: calls, Model: resp.Model}, nil
	}
	return nil, fmt.Errorf("%s: %w: stop reason %q", h.provider, ErrUnrecognizedResponse, resp.RawCause)
}
