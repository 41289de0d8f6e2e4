// Package llm is the provider-agnostic invocation pipeline: it formats
// conversations, bridges tool calls, walks the model fallback chain, tracks
// usage and normalizes every provider response into one Result shape.
//
// Provider wire formats live behind the Adapter interface in
// internal/provider; the network call lives behind Transport.
package llm

import "strings"

// Role identifies the author of a message.
type Role string

// Role constants for messages.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// Block types.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// ContentBlock is one element of a structured message payload.
type ContentBlock struct {
	Type       string      `json:"type"`
	Text       string      `json:"text,omitempty"`
	ToolCall   *ToolCall   `json:"toolCall,omitempty"`
	ToolResult *ToolResult `json:"toolResult,omitempty"`
}

// TextBlock returns a text content block.
func TextBlock(s string) ContentBlock {
	return ContentBlock{Type: BlockText, Text: s}
}

// Message is a single turn in a conversation. Blocks carries a structured
// payload and wins over Content when set.
type Message struct {
	Role       Role           `json:"role"`
	Content    string         `json:"content,omitempty"`
	Blocks     []ContentBlock `json:"blocks,omitempty"`
	ToolCalls  []ToolCall     `json:"toolCalls,omitempty"`
	ToolCallID string         `json:"toolCallId,omitempty"`
}

// Text returns the textual content of the message. For structured messages
// the text blocks are joined with newlines.
func (m Message) Text() string {
	if len(m.Blocks) == 0 {
		return m.Content
	}
	var parts []string
	for _, b := range m.Blocks {
		if b.Type == BlockText && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// IsEmpty reports whether the message carries nothing a provider could use.
func (m Message) IsEmpty() bool {
	return strings.TrimSpace(m.Content) == "" && len(m.Blocks) == 0 && len(m.ToolCalls) == 0
}

// UserMessage is a convenience constructor.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// SystemMessage is a convenience constructor.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// AssistantMessage turns a result back into a conversation turn so it can be
// appended to the history.
func AssistantMessage(r *Result) Message {
	return Message{Role: RoleAssistant, Content: r.Content, ToolCalls: r.ToolCalls}
}

// ToolMessage wraps a tool result as a conversation turn.
func ToolMessage(r ToolResult) Message {
	rc := r
	return Message{
		Role:       RoleTool,
		ToolCallID: r.CallID,
		Blocks:     []ContentBlock{{Type: BlockToolResult, ToolResult: &rc}},
	}
}
