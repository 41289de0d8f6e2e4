package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleCompletionJoinsText(t *testing.T) {
	h := NewResponseHandler("test")
	res, err := h.Handle(&Response{
		Cause:  CauseCompletion,
		Blocks: []ContentBlock{TextBlock("Hello"), TextBlock("World")},
	})
	require.NoError(t, err)
	assert.Equal(t, KindResponse, res.Kind)
	assert.Equal(t, "Hello\nWorld", res.Content)
	assert.Empty(t, res.ToolCalls)
}

func TestHandleToolUse(t *testing.T) {
	h := NewResponseHandler("test")
	input := map[string]any{"a": 2, "b": 2}
	res, err := h.Handle(&Response{
		Cause: CauseToolUse,
		Blocks: []ContentBlock{{
			Type:     BlockToolUse,
			ToolCall: &ToolCall{ID: "t1", Name: "calculator", Input: input},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, KindToolRequest, res.Kind)
	assert.Equal(t, "", res.Content)
	assert.Equal(t, []ToolCall{{ID: "t1", Name: "calculator", Input: input}}, res.ToolCalls)
	assert.True(t, res.WantsTools())
}

func TestHandleIgnoresNonTextBlocksInContent(t *testing.T) {
	h := NewResponseHandler("test")
	res, err := h.Handle(&Response{
		Cause: CauseToolUse,
		Blocks: []ContentBlock{
			TextBlock("Let me check."),
			{Type: BlockToolUse, ToolCall: &ToolCall{ID: "x", Name: "lookup"}},
			{Type: "reasoning", Text: "hidden"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Let me check.", res.Content)
	assert.Len(t, res.ToolCalls, 1)
}

func TestHandleUnrecognizedCause(t *testing.T) {
	h := NewResponseHandler("test")
	_, err := h.Handle(&Response{Cause: CauseUnknown, RawCause: "content_filtered"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnrecognizedResponse)
	assert.Contains(t, err.Error(), "content_filtered")

	_, err = h.Handle(nil)
	assert.ErrorIs(t, err, ErrUnrecognizedResponse)
}
