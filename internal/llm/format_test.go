package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMessages(t *testing.T) {
	msgs := []Message{
		SystemMessage("You are terse."),
		UserMessage("hi"),
		{Role: "narrator", Content: "ignored"},
		{Role: RoleAssistant, Content: "   "},
		SystemMessage("Answer in English."),
		{Role: RoleTool, ToolCallID: "t1"},
		UserMessage("again"),
	}
	system, out := FormatMessages(msgs)
	assert.Equal(t, "You are terse.\n\nAnswer in English.", system)
	require.Len(t, out, 3)
	assert.Equal(t, RoleUser, out[0].Role)
	assert.Equal(t, RoleTool, out[1].Role, "tool messages survive even when empty")
	assert.Equal(t, "again", out[2].Content)
}

func TestToolResultsAndUses(t *testing.T) {
	plain := Message{Role: RoleTool, ToolCallID: "t9", Content: "42"}
	assert.Equal(t, []ToolResult{{CallID: "t9", Content: "42"}}, ToolResults(plain))

	structured := ToolMessage(ToolResult{CallID: "t1", Error: "boom"})
	got := ToolResults(structured)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsError())

	asst := Message{
		Role:      RoleAssistant,
		ToolCalls: []ToolCall{{ID: "a"}},
		Blocks:    []ContentBlock{{Type: BlockToolUse, ToolCall: &ToolCall{ID: "b"}}},
	}
	uses := ToolUses(asst)
	require.Len(t, uses, 2)
	assert.Equal(t, "a", uses[0].ID)
	assert.Equal(t, "b", uses[1].ID)
}

func TestMessageText(t *testing.T) {
	m := Message{Role: RoleUser, Content: "ignored", Blocks: []ContentBlock{TextBlock("one"), TextBlock("two")}}
	assert.Equal(t, "one\ntwo", m.Text())
	assert.False(t, m.IsEmpty())
	assert.True(t, Message{Role: RoleUser}.IsEmpty())
}
