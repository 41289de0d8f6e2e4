package llm

import "strings"

// Request is the provider-neutral request handed to an Adapter.
type Request struct {
	Model     string
	System    string
	Messages  []Message
	Tools     *ToolConfig
	Inference InferenceParams
}

// FormatMessages extracts system content and cleans a conversation for
// sending. System messages are merged with blank lines into the returned
// system text; messages with unknown roles are dropped, as are empty
// messages other than tool results.
func FormatMessages(msgs []Message) (system string, out []Message) {
	var systemParts []string
	for _, m := range msgs {
		if !m.Role.Valid() {
			continue
		}
		if m.Role == RoleSystem {
			if text := strings.TrimSpace(m.Text()); text != "" {
				systemParts = append(systemParts, text)
			}
			continue
		}
		if m.Role != RoleTool && m.IsEmpty() {
			continue
		}
		out = append(out, m)
	}
	return strings.Join(systemParts, "\n\n"), out
}

// ToolResults returns the tool results carried by a tool message. A plain
// tool message is read as a single result answering ToolCallID.
func ToolResults(m Message) []ToolResult {
	var out []ToolResult
	for _, b := range m.Blocks {
		if b.Type == BlockToolResult && b.ToolResult != nil {
			out = append(out, *b.ToolResult)
		}
	}
	if len(out) == 0 && m.Role == RoleTool {
		out = append(out, ToolResult{CallID: m.ToolCallID, Content: m.Content})
	}
	return out
}

// ToolUses returns the tool calls of an assistant message, whether carried
// in ToolCalls or as tool_use blocks.
func ToolUses(m Message) []ToolCall {
	out := append([]ToolCall(nil), m.ToolCalls...)
	for _, b := range m.Blocks {
		if b.Type == BlockToolUse && b.ToolCall != nil {
			out = append(out, *b.ToolCall)
		}
	}
	return out
}
