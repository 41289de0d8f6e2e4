package anthropic

import (
	"encoding/json"
	"testing"

	"github.com/soyeahso/llmbridge/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatRequest(t *testing.T) {
	wire, err := New().FormatRequest(llm.Request{
		Model:  "claude-sonnet-4-20250514",
		System: "sys",
		Messages: []llm.Message{
			llm.UserMessage("weather?"),
			{Role: llm.RoleAssistant, Content: "checking", ToolCalls: []llm.ToolCall{{ID: "tu_1", Name: "weather", Input: map[string]any{"city": "Oslo"}}}},
			llm.ToolMessage(llm.ToolResult{CallID: "tu_1", Content: "rain"}),
			llm.UserMessage("thanks"),
		},
		Tools: &llm.ToolConfig{
			Tools:  []llm.ToolSpec{{Name: "weather", Description: "forecast", Parameters: map[string]any{"type": "object"}}},
			Choice: llm.ToolChoiceAuto,
		},
		Inference: llm.InferenceParams{MaxTokens: 64, Temperature: 0.7, TopP: 0.9},
	})
	require.NoError(t, err)
	assert.Equal(t, "/v1/messages", wire.Path)
	assert.JSONEq(t, `{
		"model": "claude-sonnet-4-20250514",
		"max_tokens": 64,
		"system": "sys",
		"temperature": 0.7,
		"top_p": 0.9,
		"messages": [
			{"role": "user", "content": [{"type": "text", "text": "weather?"}]},
			{"role": "assistant", "content": [
				{"type": "text", "text": "checking"},
				{"type": "tool_use", "id": "tu_1", "name": "weather", "input": {"city": "Oslo"}}
			]},
			{"role": "user", "content": [
				{"type": "tool_result", "tool_use_id": "tu_1", "content": "rain"},
				{"type": "text", "text": "thanks"}
			]}
		],
		"tools": [{"name": "weather", "description": "forecast", "input_schema": {"type": "object"}}],
		"tool_choice": {"type": "auto"}
	}`, string(wire.Body))
}

func TestFormatRequestNoTools(t *testing.T) {
	wire, err := New().FormatRequest(llm.Request{Model: "m", Messages: []llm.Message{llm.UserMessage("hi")}})
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(wire.Body, &body))
	assert.NotContains(t, body, "tools")
	assert.NotContains(t, body, "tool_choice")
}

func TestParseResponse(t *testing.T) {
	resp, err := New().ParseResponse([]byte(`{
		"id": "msg_1",
		"model": "claude-sonnet-4-20250514",
		"stop_reason": "tool_use",
		"content": [
			{"type": "text", "text": "Let me look."},
			{"type": "tool_use", "id": "tu_2", "name": "weather", "input": {"city": "Bergen"}}
		],
		"usage": {"input_tokens": 20, "output_tokens": 7}
	}`))
	require.NoError(t, err)
	assert.Equal(t, llm.CauseToolUse, resp.Cause)
	assert.Equal(t, "claude-sonnet-4-20250514", resp.Model)
	assert.Equal(t, &llm.TokenUsage{Input: 20, Output: 7}, resp.Usage)

	res, err := llm.NewResponseHandler("anthropic").Handle(resp)
	require.NoError(t, err)
	assert.Equal(t, "Let me look.", res.Content)
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "tu_2", res.ToolCalls[0].ID)
}

func TestParseResponseStopReasons(t *testing.T) {
	for reason, want := range map[string]llm.StopCause{
		"end_turn":      llm.CauseCompletion,
		"max_tokens":    llm.CauseCompletion,
		"stop_sequence": llm.CauseCompletion,
		"tool_use":      llm.CauseToolUse,
		"refusal":       llm.CauseUnknown,
	} {
		resp, err := New().ParseResponse([]byte(`{"stop_reason":"` + reason + `","content":[]}`))
		require.NoError(t, err)
		assert.Equal(t, want, resp.Cause, reason)
	}
}
