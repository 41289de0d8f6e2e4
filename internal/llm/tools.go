package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/soyeahso/llmbridge/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Tool is a capability the model can request during a conversation.
type Tool interface {
	// Name returns the tool's unique identifier.
	Name() string

	// Description returns a human-readable description for the model.
	Description() string

	// Parameters returns the JSON Schema of the tool's input.
	Parameters() map[string]any

	// Execute runs the tool with parsed parameters.
	Execute(ctx context.Context, params map[string]any) (any, error)
}

// ToolCall is a model request to invoke a tool. Input is either structured
// (map[string]any) or JSON text (string, []byte, json.RawMessage).
type ToolCall struct {
	ID    string `json:"toolUseId"`
	Name  string `json:"name"`
	Input any    `json:"input"`
}

// ToolResult is the outcome of one tool call. Exactly one of Content and
// Error is meaningful.
type ToolResult struct {
	CallID  string `json:"toolUseId"`
	Name    string `json:"name"`
	Content any    `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// IsError reports whether the call failed.
func (r ToolResult) IsError() bool { return r.Error != "" }

// Text renders the result as text for providers that only accept strings.
func (r ToolResult) Text() string {
	if r.IsError() {
		return "Error: " + r.Error
	}
	switch v := r.Content.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	data, err := json.Marshal(r.Content)
	if err != nil {
		return fmt.Sprint(r.Content)
	}
	return string(data)
}

// ToolSpec is the serializable description of one tool.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolChoiceAuto lets the model decide whether to call a tool.
const ToolChoiceAuto = "auto"

// ToolConfig is the provider-neutral tool payload attached to a request.
type ToolConfig struct {
	Tools  []ToolSpec `json:"tools"`
	Choice string     `json:"toolChoice"`
}

// DefaultToolConcurrency bounds concurrent tool executions per batch.
const DefaultToolConcurrency = 4

// ToolManager holds registered tools and dispatches tool-call batches.
type ToolManager struct {
	mu          sync.RWMutex
	tools       []Tool
	byName      map[string]Tool
	concurrency int
	log         *logging.Logger
}

// NewToolManager creates an empty tool manager.
func NewToolManager(log *logging.Logger) *ToolManager {
	return &ToolManager{
		byName:      make(map[string]Tool),
		concurrency: DefaultToolConcurrency,
		log:         log.Sub("tools"),
	}
}

// SetConcurrency sets how many tools of one batch may run at once.
// Values below 1 run the batch sequentially.
func (m *ToolManager) SetConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	m.mu.Lock()
	m.concurrency = n
	m.mu.Unlock()
}

// RegisterTools adds tools to the registry. A tool whose name is already
// registered is dropped; the first registration wins.
func (m *ToolManager) RegisterTools(tools ...Tool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tools {
		if t == nil {
			continue
		}
		if _, dup := m.byName[t.Name()]; dup {
			m.log.Debug().Str("tool", t.Name()).Msg("duplicate tool ignored")
			continue
		}
		m.byName[t.Name()] = t
		m.tools = append(m.tools, t)
	}
}

// Tools returns the registered tools in registration order.
func (m *ToolManager) Tools() []Tool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Tool, len(m.tools))
	copy(out, m.tools)
	return out
}

// Tool returns a tool by name.
func (m *ToolManager) Tool(name string) (Tool, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.byName[name]
	return t, ok
}

// ToolConfig returns the tool payload for a request, or nil when no tools
// are registered. Callers must omit the tool clause entirely on nil; some
// providers reject an empty tool list.
func (m *ToolManager) ToolConfig() *ToolConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.tools) == 0 {
		return nil
	}
	specs := make([]ToolSpec, 0, len(m.tools))
	for _, t := range m.tools {
		specs = append(specs, ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return &ToolConfig{Tools: specs, Choice: ToolChoiceAuto}
}

// ProcessToolCalls executes a batch of tool calls. results[i] always
// answers calls[i]; a failing call yields an error-tagged result and never
// aborts the rest of the batch.
func (m *ToolManager) ProcessToolCalls(ctx context.Context, calls []ToolCall) []ToolResult {
	results := make([]ToolResult, len(calls))

	m.mu.RLock()
	limit := m.concurrency
	m.mu.RUnlock()

	var g errgroup.Group
	g.SetLimit(limit)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = m.processOne(ctx, call)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (m *ToolManager) processOne(ctx context.Context, call ToolCall) (res ToolResult) {
	res = ToolResult{CallID: call.ID, Name: call.Name}

	defer func() {
		if r := recover(); r != nil {
			m.log.Error().
				Str("tool", call.Name).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("tool panicked")
			res.Content = nil
			res.Error = fmt.Sprintf("%v: panic: %v", ErrToolExecution, r)
		}
	}()

	params, err := ParseToolInput(call.Input)
	if err != nil {
		m.log.Warn().Str("tool", call.Name).Err(err).Msg("bad tool input")
		res.Error = err.Error()
		return res
	}

	tool, ok := m.Tool(call.Name)
	if !ok {
		res.Error = fmt.Sprintf("%v: %s", ErrToolNotFound, call.Name)
		return res
	}

	m.log.Debug().Str("tool", call.Name).Str("id", call.ID).Msg("executing tool")
	out, err := tool.Execute(ctx, params)
	if err != nil {
		m.log.Warn().Str("tool", call.Name).Err(err).Msg("tool failed")
		res.Error = fmt.Sprintf("%v: %v", ErrToolExecution, err)
		return res
	}
	res.Content = out
	return res
}

// ParseToolInput accepts structured or JSON-text tool input and returns
// the parameter map. Empty input yields an empty map.
func ParseToolInput(input any) (map[string]any, error) {
	var raw []byte
	switch v := input.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case json.RawMessage:
		raw = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrToolInput, err)
		}
		raw = data
	}

	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("%w: failed to parse arguments: %v", ErrToolInput, err)
	}
	if params == nil {
		params = map[string]any{}
	}
	return params, nil
}

// InputObject returns call input as a parameter map, or an empty map when
// it cannot be parsed. Adapters use it to echo past tool calls back to a
// provider that requires an object.
func InputObject(input any) map[string]any {
	params, err := ParseToolInput(input)
	if err != nil {
		return map[string]any{}
	}
	return params
}

// InputJSON returns call input as JSON text.
func InputJSON(input any) string {
	switch v := input.(type) {
	case string:
		if v != "" {
			return v
		}
	case json.RawMessage:
		if len(v) > 0 {
			return string(v)
		}
	case []byte:
		if len(v) > 0 {
			return string(v)
		}
	}
	data, err := json.Marshal(InputObject(input))
	if err != nil {
		return "{}"
	}
	return string(data)
}
