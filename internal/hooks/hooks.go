// Package hooks lets callers observe the invocation lifecycle: requests,
// failures, model fallback and tool batches.
package hooks

import (
	"context"
	"sync"

	"github.com/soyeahso/llmbridge/internal/logging"
)

// Event names emitted by the orchestrator.
const (
	EventBeforeInvoke  = "before_invoke"
	EventAfterInvoke   = "after_invoke"
	EventInvokeFailed  = "invoke_failed"
	EventModelFallback = "model_fallback"
	EventToolCalls     = "tool_calls"
)

// AllEvents lists all known hook event names.
var AllEvents = []string{
	EventBeforeInvoke,
	EventAfterInvoke,
	EventInvokeFailed,
	EventModelFallback,
	EventToolCalls,
}

// Payload carries event data to hook handlers.
type Payload struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

// Handler is a function that handles a hook event.
// Returning an error logs the failure but does not stop processing.
type Handler func(ctx context.Context, p Payload) error

// Manager manages hook registrations and dispatches events. A nil Manager
// is valid and drops every event.
type Manager struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	log      *logging.Logger
}

type namedHandler struct {
	name    string
	handler Handler
}

// NewManager creates a hook manager.
func NewManager(log *logging.Logger) *Manager {
	return &Manager{
		handlers: make(map[string][]namedHandler),
		log:      log.Sub("hooks"),
	}
}

// On registers a handler for the given event.
// The name identifies the handler for logging and Off.
func (m *Manager) On(event, name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[event] = append(m.handlers[event], namedHandler{name: name, handler: handler})
	m.log.Debug().Str("event", event).Str("handler", name).Msg("hook registered")
}

// Off removes all handlers with the given name from the event.
func (m *Manager) Off(event, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handlers := m.handlers[event]
	filtered := make([]namedHandler, 0, len(handlers))
	for _, h := range handlers {
		if h.name != name {
			filtered = append(filtered, h)
		}
	}
	m.handlers[event] = filtered
}

// Emit dispatches an event to all registered handlers synchronously, in
// registration order. Errors and panics are logged and do not prevent
// subsequent handlers from running.
func (m *Manager) Emit(ctx context.Context, event string, data map[string]any) {
	if m == nil {
		return
	}
	m.mu.RLock()
	handlers := make([]namedHandler, len(m.handlers[event]))
	copy(handlers, m.handlers[event])
	m.mu.RUnlock()

	payload := Payload{Event: event, Data: data}
	for _, h := range handlers {
		m.call(ctx, h, payload)
	}
}

func (m *Manager) call(ctx context.Context, h namedHandler, p Payload) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error().Interface("panic", r).Str("event", p.Event).Str("handler", h.name).Msg("hook handler panic")
		}
	}()
	if err := h.handler(ctx, p); err != nil {
		m.log.Warn().
			Err(err).
			Str("event", p.Event).
			Str("handler", h.name).
			Msg("hook handler error")
	}
}

// Count returns the number of handlers registered for an event.
func (m *Manager) Count(event string) int {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handlers[event])
}
