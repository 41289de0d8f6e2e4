package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/soyeahso/llmbridge/internal/catalog"
	"github.com/soyeahso/llmbridge/internal/hooks"
	"github.com/soyeahso/llmbridge/internal/logging"
)

// UsageRecord is one tracked request, handed to a UsageRecorder.
type UsageRecord struct {
	Provider  string
	Model     string
	Input     int
	Output    int
	Cost      catalog.CostInfo
	Estimated bool
	CreatedAt time.Time
}

// UsageRecorder persists usage records.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, rec UsageRecord) error
}

// Options configures an Orchestrator. Zero fields get working defaults.
type Options struct {
	Tools     *ToolManager
	Usage     *UsageTracker
	Estimator Estimator
	Recorder  UsageRecorder
	Inference InferenceParams // configuration-level parameters, overlaid on model values
	Window    Window
	Hooks     *hooks.Manager // handlers run synchronously and must not call back into the orchestrator
}

// Orchestrator drives invocations against one provider: format, send,
// normalize, with error recovery delegated to the ModelManager.
type Orchestrator struct {
	mu        sync.Mutex
	adapter   Adapter
	transport Transport
	models    *ModelManager
	tools     *ToolManager
	usage     *UsageTracker
	handler   *ResponseHandler
	estimator Estimator
	recorder  UsageRecorder
	inference InferenceParams
	store     MessageStore
	window    Window
	hooks     *hooks.Manager
	log       *logging.Logger
}

// New creates an orchestrator.
func New(adapter Adapter, transport Transport, models *ModelManager, opts Options, log *logging.Logger) *Orchestrator {
	o := &Orchestrator{
		adapter:   adapter,
		transport: transport,
		models:    models,
		tools:     opts.Tools,
		usage:     opts.Usage,
		handler:   NewResponseHandler(adapter.Name()),
		estimator: opts.Estimator,
		recorder:  opts.Recorder,
		inference: opts.Inference,
		window:    opts.Window,
		hooks:     opts.Hooks,
		log:       log.Sub("llm." + adapter.Name()),
	}
	if o.tools == nil {
		o.tools = NewToolManager(log)
	}
	if o.usage == nil {
		o.usage = NewUsageTracker(nil, nil, false)
	}
	if o.estimator == nil {
		o.estimator = CharEstimator{}
	}
	return o
}

// Provider returns the adapter's provider name.
func (o *Orchestrator) Provider() string { return o.adapter.Name() }

// Models returns the model manager.
func (o *Orchestrator) Models() *ModelManager { return o.models }

// Usage returns the usage tracker.
func (o *Orchestrator) Usage() *UsageTracker { return o.usage }

// ToolManager returns the tool registry.
func (o *Orchestrator) ToolManager() *ToolManager { return o.tools }

// RegisterTools adds tools; see ToolManager.RegisterTools.
func (o *Orchestrator) RegisterTools(tools ...Tool) {
	o.tools.RegisterTools(tools...)
}

// ProcessToolCalls executes a tool-call batch; see ToolManager.ProcessToolCalls.
func (o *Orchestrator) ProcessToolCalls(ctx context.Context, calls []ToolCall) []ToolResult {
	results := o.tools.ProcessToolCalls(ctx, calls)
	failed := 0
	for _, r := range results {
		if r.IsError() {
			failed++
		}
	}
	o.hooks.Emit(ctx, hooks.EventToolCalls, map[string]any{
		"provider": o.adapter.Name(),
		"count":    len(results),
		"failed":   failed,
	})
	return results
}

// SetMessageStore attaches a conversation store read by InvokeStore.
func (o *Orchestrator) SetMessageStore(store MessageStore) {
	o.mu.Lock()
	o.store = store
	o.mu.Unlock()
}

// FormattedMessages returns the windowed, cleaned conversation of the
// attached store, with system content merged into one leading message.
func (o *Orchestrator) FormattedMessages() ([]Message, error) {
	o.mu.Lock()
	store := o.store
	o.mu.Unlock()
	if store == nil {
		return nil, ErrNoMessageStore
	}
	system, msgs := FormatMessages(o.window.Apply(store.AllMessages()))
	if system != "" {
		msgs = append([]Message{SystemMessage(system)}, msgs...)
	}
	return msgs, nil
}

// InvokeStore invokes the model on the attached store's windowed history.
func (o *Orchestrator) InvokeStore(ctx context.Context) (*Result, error) {
	o.mu.Lock()
	store := o.store
	o.mu.Unlock()
	if store == nil {
		return nil, ErrNoMessageStore
	}
	return o.Invoke(ctx, o.window.Apply(store.AllMessages()))
}

// Invoke sends msgs to the current model. Failed sends are retried
// according to ModelManager.Recover, up to its attempt cap; the error that
// ends the loop is returned unchanged.
func (o *Orchestrator) Invoke(ctx context.Context, msgs []Message) (*Result, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.models.State() == StateExhausted {
		return nil, ErrModelsExhausted
	}
	o.models.Reset()

	system, formatted := FormatMessages(msgs)
	o.hooks.Emit(ctx, hooks.EventBeforeInvoke, map[string]any{
		"provider": o.adapter.Name(),
		"model":    o.models.CurrentModel(),
		"messages": len(formatted),
	})
	for attempt := 1; ; attempt++ {
		res, err := o.attempt(ctx, system, formatted)
		if err == nil {
			o.hooks.Emit(ctx, hooks.EventAfterInvoke, map[string]any{
				"provider": o.adapter.Name(),
				"model":    res.Model,
				"kind":     string(res.Kind),
				"input":    res.Usage.Input,
				"output":   res.Usage.Output,
				"cost":     res.Cost.TotalCost,
				"attempts": attempt,
			})
			return res, nil
		}

		model := o.models.CurrentModel()
		o.log.Warn().Int("attempt", attempt).Str("model", model).Err(err).Msg("invocation failed")
		o.hooks.Emit(ctx, hooks.EventInvokeFailed, map[string]any{
			"provider": o.adapter.Name(),
			"model":    model,
			"attempt":  attempt,
			"error":    err.Error(),
		})
		if final := o.models.Recover(err); final != nil {
			return nil, final
		}
		if next := o.models.CurrentModel(); next != model {
			o.hooks.Emit(ctx, hooks.EventModelFallback, map[string]any{
				"provider": o.adapter.Name(),
				"from":     model,
				"to":       next,
				"error":    err.Error(),
			})
		}
	}
}

func (o *Orchestrator) attempt(ctx context.Context, system string, msgs []Message) (*Result, error) {
	model := o.models.CurrentModel()
	params, err := o.models.InferenceConfig(o.inference)
	if err != nil {
		return nil, err
	}

	wire, err := o.adapter.FormatRequest(Request{
		Model:     model,
		System:    system,
		Messages:  msgs,
		Tools:     o.tools.ToolConfig(),
		Inference: params,
	})
	if err != nil {
		return nil, fmt.Errorf("format request: %w", err)
	}

	o.log.Debug().Str("model", model).Int("messages", len(msgs)).Msg("sending request")
	start := time.Now()
	body, err := o.transport.Send(ctx, wire)
	if err != nil {
		return nil, err
	}

	resp, err := o.adapter.ParseResponse(body)
	if err != nil {
		return nil, err
	}

	usage, estimated := o.tokenUsage(wire, resp)
	snap := o.usage.Track(model, usage.Input, usage.Output)

	res, err := o.handler.Handle(resp)
	if err != nil {
		return nil, err
	}
	if res.Model == "" {
		res.Model = model
	}
	res.Usage = &snap.Request
	res.Cost = &snap.Cost

	o.log.Info().
		Str("model", res.Model).
		Str("type", string(res.Kind)).
		Int("input", snap.Request.Input).
		Int("output", snap.Request.Output).
		Bool("estimated", estimated).
		Str("cost", snap.Cost.TotalCost).
		Dur("duration", time.Since(start)).
		Msg("invocation complete")

	if o.recorder != nil && o.usage.Enabled() {
		rec := UsageRecord{
			Provider:  o.adapter.Name(),
			Model:     res.Model,
			Input:     snap.Request.Input,
			Output:    snap.Request.Output,
			Cost:      snap.Cost,
			Estimated: estimated,
			CreatedAt: time.Now(),
		}
		if err := o.recorder.RecordUsage(ctx, rec); err != nil {
			o.log.Warn().Err(err).Msg("failed to record usage")
		}
	}
	return res, nil
}

// tokenUsage returns the provider-reported usage, or an estimate over the
// request body and the response text when the provider reported none.
func (o *Orchestrator) tokenUsage(wire *WireRequest, resp *Response) (TokenUsage, bool) {
	if resp.Usage != nil {
		return *resp.Usage, false
	}
	var out strings.Builder
	for _, b := range resp.Blocks {
		switch {
		case b.Type == BlockText:
			out.WriteString(b.Text)
		case b.Type == BlockToolUse && b.ToolCall != nil:
			out.WriteString(b.ToolCall.Name)
			if data, err := json.Marshal(b.ToolCall.Input); err == nil {
				out.Write(data)
			}
		}
	}
	return TokenUsage{
		Input:  o.estimator.Estimate(string(wire.Body)),
		Output: o.estimator.Estimate(out.String()),
	}, true
}

// Run invokes the model and executes requested tools until the model
// answers without tool calls. It returns the final result and the
// conversation including every assistant and tool turn it added.
func (o *Orchestrator) Run(ctx context.Context, msgs []Message, maxRounds int) (*Result, []Message, error) {
	history := append([]Message(nil), msgs...)
	for round := 0; ; round++ {
		res, err := o.Invoke(ctx, history)
		if err != nil {
			return nil, history, err
		}
		if !res.WantsTools() {
			history = append(history, AssistantMessage(res))
			return res, history, nil
		}
		if round >= maxRounds {
			return res, history, fmt.Errorf("%w: stopped after %d", ErrToolRounds, maxRounds)
		}

		history = append(history, AssistantMessage(res))
		for _, r := range o.ProcessToolCalls(ctx, res.ToolCalls) {
			history = append(history, ToolMessage(r))
		}
		o.log.Debug().Int("round", round+1).Int("calls", len(res.ToolCalls)).Msg("tool round complete")
	}
}
