package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/soyeahso/llmbridge/internal/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedUsage struct {
	mu   sync.Mutex
	recs []UsageRecord
}

func (r *recordedUsage) RecordUsage(_ context.Context, rec UsageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func newOrchestrator(tr Transport, opts Options) (*Orchestrator, *fakeAdapter) {
	a := &fakeAdapter{}
	models := NewModelManager(testCatalog(), "test", "m1", 3, silentLog())
	return New(a, tr, models, opts, silentLog()), a
}

func TestInvokeResponse(t *testing.T) {
	tr := (&MockTransport{}).Reply(`{"stop":"end_turn","blocks":[{"text":"Hello"},{"text":"World"}],"usage":{"input":1000,"output":500}}`)
	rec := &recordedUsage{}
	o, a := newOrchestrator(tr, Options{
		Usage:    NewUsageTracker(testCatalog(), NewSessionUsage(), true),
		Recorder: rec,
	})

	res, err := o.Invoke(context.Background(), []Message{SystemMessage("be brief"), UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, KindResponse, res.Kind)
	assert.Equal(t, "Hello\nWorld", res.Content)
	assert.Equal(t, "m1", res.Model)
	assert.Equal(t, &TokenUsage{Input: 1000, Output: 500}, res.Usage)
	assert.Equal(t, "0.010500", res.Cost.TotalCost)

	assert.Equal(t, "be brief", a.last.System)
	assert.Nil(t, a.last.Tools, "no tools registered means no tool clause")
	assert.Equal(t, 1000, a.last.Inference.MaxTokens)

	require.Len(t, rec.recs, 1)
	assert.Equal(t, "test", rec.recs[0].Provider)
	assert.False(t, rec.recs[0].Estimated)
}

func TestInvokeToolRequest(t *testing.T) {
	tr := (&MockTransport{}).Reply(`{"stop":"tool_use","blocks":[{"tool":"calculator","id":"t1","input":{"a":2,"b":2}}]}`)
	o, a := newOrchestrator(tr, Options{})
	o.RegisterTools(echoTool("calculator"))

	res, err := o.Invoke(context.Background(), []Message{UserMessage("2+2?")})
	require.NoError(t, err)
	assert.Equal(t, KindToolRequest, res.Kind)
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, "t1", res.ToolCalls[0].ID)
	assert.Equal(t, map[string]any{"a": float64(2), "b": float64(2)}, res.ToolCalls[0].Input)

	require.NotNil(t, a.last.Tools)
	assert.Equal(t, "calculator", a.last.Tools.Tools[0].Name)

	// Tracking disabled by default: stable zero shape.
	assert.Equal(t, &TokenUsage{}, res.Usage)
	assert.Equal(t, "0.000000", res.Cost.TotalCost)
}

func TestInvokeEstimatesMissingUsage(t *testing.T) {
	tr := (&MockTransport{}).Reply(`{"stop":"end_turn","blocks":[{"text":"12345678"}]}`)
	rec := &recordedUsage{}
	o, _ := newOrchestrator(tr, Options{
		Usage:    NewUsageTracker(testCatalog(), nil, true),
		Recorder: rec,
	})

	res, err := o.Invoke(context.Background(), []Message{UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Usage.Output)
	assert.Positive(t, res.Usage.Input)
	require.Len(t, rec.recs, 1)
	assert.True(t, rec.recs[0].Estimated)
}

func TestInvokeFallsBackOnRateLimit(t *testing.T) {
	tr := (&MockTransport{}).
		Fail(&ProviderError{Provider: "test", Code: 429, Message: "Too many requests"}).
		Reply(`{"stop":"end_turn","blocks":[{"text":"ok"}]}`)
	o, _ := newOrchestrator(tr, Options{})

	res, err := o.Invoke(context.Background(), []Message{UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "m2", res.Model)
	assert.Equal(t, 2, tr.Calls())
	assert.Equal(t, "/m1", tr.Requests[0].Path)
	assert.Equal(t, "/m2", tr.Requests[1].Path)
}

func TestInvokeCapReturnsTriggeringError(t *testing.T) {
	var sent int
	tr := &MockTransport{SendFunc: func(context.Context, *WireRequest) ([]byte, error) {
		sent++
		return nil, fmt.Errorf("attempt %d: connection reset by peer", sent)
	}}
	o, _ := newOrchestrator(tr, Options{})

	_, err := o.Invoke(context.Background(), []Message{UserMessage("hi")})
	require.Error(t, err)
	assert.Equal(t, "attempt 3: connection reset by peer", err.Error())
	assert.Equal(t, 3, sent)
	assert.Equal(t, "m1", o.Models().CurrentModel())

	// The counter resets per invocation.
	_, err = o.Invoke(context.Background(), []Message{UserMessage("hi")})
	require.Error(t, err)
	assert.Equal(t, 6, sent)
}

func TestInvokeUnrecognizedResponseNotRetried(t *testing.T) {
	tr := (&MockTransport{}).Reply(`{"stop":"guardrail_intervened","blocks":[]}`)
	o, _ := newOrchestrator(tr, Options{})

	_, err := o.Invoke(context.Background(), []Message{UserMessage("hi")})
	require.ErrorIs(t, err, ErrUnrecognizedResponse)
	assert.Equal(t, 1, tr.Calls())
}

func TestInvokeExhaustion(t *testing.T) {
	tr := (&MockTransport{}).Fail(errors.New("ThrottlingException: rate limit"))
	a := &fakeAdapter{}
	models := NewModelManager(testCatalog(), "test", "m3", 3, silentLog())
	o := New(a, tr, models, Options{}, silentLog())

	_, err := o.Invoke(context.Background(), []Message{UserMessage("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ThrottlingException")
	assert.Equal(t, StateExhausted, models.State())

	_, err = o.Invoke(context.Background(), []Message{UserMessage("hi")})
	assert.ErrorIs(t, err, ErrModelsExhausted)
	assert.Equal(t, 1, tr.Calls())
}

func TestInvokeStore(t *testing.T) {
	tr := (&MockTransport{}).Reply(`{"stop":"end_turn","blocks":[{"text":"ok"}]}`)
	o, a := newOrchestrator(tr, Options{Window: Window{ChatSize: 2}})

	_, err := o.InvokeStore(context.Background())
	require.ErrorIs(t, err, ErrNoMessageStore)
	_, err = o.FormattedMessages()
	require.ErrorIs(t, err, ErrNoMessageStore)

	o.SetMessageStore(memStore{
		SystemMessage("sys"),
		UserMessage("old"),
		{Role: RoleAssistant, Content: "older reply"},
		UserMessage("new"),
	})

	msgs, err := o.FormattedMessages()
	require.NoError(t, err)
	assert.Equal(t, []string{"system:sys", "user:new"}, roles(msgs))

	_, err = o.InvokeStore(context.Background())
	require.NoError(t, err)
	require.Len(t, a.last.Messages, 1)
	assert.Equal(t, "new", a.last.Messages[0].Content)
	assert.Equal(t, "sys", a.last.System)
}

func TestRunExecutesTools(t *testing.T) {
	tr := (&MockTransport{}).
		Reply(`{"stop":"tool_use","blocks":[{"text":"checking"},{"tool":"calculator","id":"t1","input":{"a":2}}]}`).
		Reply(`{"stop":"end_turn","blocks":[{"text":"The answer is 4"}]}`)
	o, a := newOrchestrator(tr, Options{})
	o.RegisterTools(&funcTool{name: "calculator", fn: func(context.Context, map[string]any) (any, error) {
		return 4, nil
	}})

	res, history, err := o.Run(context.Background(), []Message{UserMessage("2+2?")}, 3)
	require.NoError(t, err)
	assert.Equal(t, "The answer is 4", res.Content)
	require.Len(t, history, 4)
	assert.Equal(t, RoleAssistant, history[1].Role)
	assert.Equal(t, RoleTool, history[2].Role)
	assert.Equal(t, "t1", history[2].ToolCallID)
	assert.Equal(t, RoleAssistant, history[3].Role)

	// The second request carried the tool result.
	last := a.last.Messages[len(a.last.Messages)-1]
	results := ToolResults(last)
	require.Len(t, results, 1)
	assert.Equal(t, 4, results[0].Content)
}

func TestRunStopsAfterMaxRounds(t *testing.T) {
	tr := (&MockTransport{}).Reply(`{"stop":"tool_use","blocks":[{"tool":"calculator","id":"t1","input":{}}]}`)
	o, _ := newOrchestrator(tr, Options{})
	o.RegisterTools(echoTool("calculator"))

	_, _, err := o.Run(context.Background(), []Message{UserMessage("loop")}, 2)
	require.ErrorIs(t, err, ErrToolRounds)
	assert.Equal(t, 3, tr.Calls())
}

func TestInvokeRequestCarriesToolHistory(t *testing.T) {
	tr := (&MockTransport{}).Reply(`{"stop":"end_turn","blocks":[{"text":"ok"}]}`)
	o, _ := newOrchestrator(tr, Options{})

	_, err := o.Invoke(context.Background(), []Message{
		UserMessage("hi"),
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "t1", Name: "calc", Input: map[string]any{}}}},
		ToolMessage(ToolResult{CallID: "t1", Content: "4"}),
	})
	require.NoError(t, err)

	var body struct {
		Messages []Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(tr.Requests[0].Body, &body))
	assert.Len(t, body.Messages, 3)
}

func TestInvokeEmitsHooks(t *testing.T) {
	tr := (&MockTransport{}).
		Fail(&ProviderError{Provider: "test", Code: 503, Message: "model unavailable"}).
		Reply(`{"stop":"tool_use","blocks":[{"tool":"calculator","id":"t1","input":{}}]}`)
	h := hooks.NewManager(silentLog())
	var events []string
	var fallback map[string]any
	for _, ev := range hooks.AllEvents {
		h.On(ev, "record", func(_ context.Context, p hooks.Payload) error {
			events = append(events, p.Event)
			if p.Event == hooks.EventModelFallback {
				fallback = p.Data
			}
			return nil
		})
	}
	o, _ := newOrchestrator(tr, Options{Hooks: h})

	res, err := o.Invoke(context.Background(), []Message{UserMessage("hi")})
	require.NoError(t, err)
	o.ProcessToolCalls(context.Background(), res.ToolCalls)

	assert.Equal(t, []string{
		hooks.EventBeforeInvoke,
		hooks.EventInvokeFailed,
		hooks.EventModelFallback,
		hooks.EventAfterInvoke,
		hooks.EventToolCalls,
	}, events)
	assert.Equal(t, "m1", fallback["from"])
	assert.Equal(t, "m2", fallback["to"])
}
