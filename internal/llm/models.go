package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"strings"
	"sync"

	"github.com/soyeahso/llmbridge/internal/catalog"
	"github.com/soyeahso/llmbridge/internal/logging"
)

// DefaultMaxAttempts caps sends per invocation.
const DefaultMaxAttempts = 3

// ErrModelsExhausted is returned when an invocation is attempted after the
// fallback chain ran out. SetModel or Restart leaves the exhausted state.
var ErrModelsExhausted = errors.New("fallback chain exhausted")

// ModelState is the state of the fallback state machine.
type ModelState int

const (
	StateActive ModelState = iota
	StateExhausted
)

func (s ModelState) String() string {
	if s == StateExhausted {
		return "exhausted"
	}
	return "active"
}

// InferenceParams are the sampling parameters sent with a request.
type InferenceParams struct {
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"topP"`
}

// DefaultInference are the request-level defaults every layer starts from.
var DefaultInference = InferenceParams{MaxTokens: 2048, Temperature: 0.7, TopP: 0.9}

// merge overlays the non-zero fields of o.
func (p InferenceParams) merge(o InferenceParams) InferenceParams {
	if o.MaxTokens > 0 {
		p.MaxTokens = o.MaxTokens
	}
	if o.Temperature > 0 {
		p.Temperature = o.Temperature
	}
	if o.TopP > 0 {
		p.TopP = o.TopP
	}
	return p
}

// ModelManager tracks the current model of one conversation and walks the
// provider's fallback sequence strictly forward when calls fail.
//
// A ModelManager belongs to one orchestrator; it must not be shared by
// concurrently in-flight invocations of the same conversation.
type ModelManager struct {
	mu          sync.Mutex
	catalog     *catalog.Catalog
	provider    string
	current     string
	exhausted   bool
	attempts    int
	maxAttempts int
	log         *logging.Logger
}

// NewModelManager creates a manager positioned at initial. An empty initial
// selects the first model of the provider's sequence. maxAttempts < 1
// selects DefaultMaxAttempts.
func NewModelManager(cat *catalog.Catalog, provider, initial string, maxAttempts int, log *logging.Logger) *ModelManager {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if initial == "" {
		if seq := cat.Sequence(provider); len(seq) > 0 {
			initial = seq[0]
		}
	}
	return &ModelManager{
		catalog:     cat,
		provider:    provider,
		current:     initial,
		maxAttempts: maxAttempts,
		log:         log.Sub("models"),
	}
}

// Provider returns the provider whose sequence is walked.
func (m *ModelManager) Provider() string { return m.provider }

// MaxAttempts returns the per-invocation send cap.
func (m *ModelManager) MaxAttempts() int { return m.maxAttempts }

// CurrentModel returns the current model id, or "" once exhausted.
func (m *ModelManager) CurrentModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exhausted {
		return ""
	}
	return m.current
}

// State returns the state machine position.
func (m *ModelManager) State() ModelState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exhausted {
		return StateExhausted
	}
	return StateActive
}

// SetModel switches to id. It fails without changing state when id is not
// part of the provider's fallback sequence.
func (m *ModelManager) SetModel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !slices.Contains(m.catalog.Sequence(m.provider), id) {
		return false
	}
	m.current = id
	m.exhausted = false
	m.log.Info().Str("model", id).Msg("model set")
	return true
}

// Restart returns to the head of the fallback sequence.
func (m *ModelManager) Restart() bool {
	seq := m.catalog.Sequence(m.provider)
	if len(seq) == 0 {
		return false
	}
	return m.SetModel(seq[0])
}

// AvailableModels returns the provider's models in fallback order.
func (m *ModelManager) AvailableModels() []catalog.Model {
	var out []catalog.Model
	for _, id := range m.catalog.Sequence(m.provider) {
		if model, ok := m.catalog.Model(id); ok {
			out = append(out, model)
		}
	}
	return out
}

// InferenceConfig returns the sampling parameters of the current model:
// DefaultInference, overlaid by the model's catalog values, overlaid by the
// non-zero fields of overrides.
func (m *ModelManager) InferenceConfig(overrides InferenceParams) (InferenceParams, error) {
	id := m.CurrentModel()
	model, ok := m.catalog.Model(id)
	if !ok {
		return InferenceParams{}, fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}
	params := DefaultInference.merge(InferenceParams{
		MaxTokens:   model.MaxTokens,
		Temperature: model.DefaultTemperature,
		TopP:        model.DefaultTopP,
	})
	return params.merge(overrides), nil
}

// FallbackToNextModel advances to the next model of the current group, or
// to the first model of the next group. It returns false without changing
// state when the current model is last or belongs to no group.
func (m *ModelManager) FallbackToNextModel() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.advanceLocked()
}

func (m *ModelManager) advanceLocked() bool {
	if m.exhausted {
		return false
	}
	groups := m.catalog.Groups(m.provider)
	for gi, g := range groups {
		idx := slices.Index(g.Models, m.current)
		if idx < 0 {
			continue
		}
		var next string
		if idx+1 < len(g.Models) {
			next = g.Models[idx+1]
		} else {
			for _, later := range groups[gi+1:] {
				if len(later.Models) > 0 {
					next = later.Models[0]
					break
				}
			}
		}
		if next == "" {
			return false
		}
		m.log.Warn().Str("from", m.current).Str("to", next).Msg("falling back to next model")
		m.current = next
		return true
	}
	return false
}

func (m *ModelManager) isLastLocked() bool {
	seq := m.catalog.Sequence(m.provider)
	return len(seq) > 0 && seq[len(seq)-1] == m.current
}

// Reset clears the attempt counter. The orchestrator calls it at the start
// of every invocation.
func (m *ModelManager) Reset() {
	m.mu.Lock()
	m.attempts = 0
	m.mu.Unlock()
}

// Recover decides what happens after a failed send. It returns nil when the
// caller should send again (possibly on a new model) and err itself when the
// failure is final.
//
// Fallback-worthy errors advance the model and retry only if the advance
// succeeded. Transient errors retry on the same model. Everything else is
// final. Retries stop once the attempt cap is reached.
func (m *ModelManager) Recover(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrUnrecognizedResponse) || errors.Is(err, ErrUnknownModel) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.exhausted {
		return err
	}
	m.attempts++
	if m.attempts >= m.maxAttempts {
		m.log.Error().Int("attempts", m.attempts).Err(err).Msg("retry cap reached")
		return err
	}

	switch {
	case IsFallbackWorthy(err):
		if m.advanceLocked() {
			return nil
		}
		if m.isLastLocked() {
			m.exhausted = true
			m.log.Error().Str("model", m.current).Msg("no fallback model left")
		}
		return err
	case IsTransient(err):
		m.log.Warn().Str("model", m.current).Err(err).Msg("transient error, retrying")
		return nil
	}
	return err
}

// HandleError recovers from err by calling retry until it succeeds or
// Recover declares the failure final. The triggering error is returned
// verbatim on exhaustion.
func (m *ModelManager) HandleError(err error, retry func() (*Result, error)) (*Result, error) {
	for {
		if final := m.Recover(err); final != nil {
			return nil, final
		}
		res, rerr := retry()
		if rerr == nil {
			return res, nil
		}
		err = rerr
	}
}

var fallbackSignatures = []string{
	"rate limit",
	"rate-limit",
	"ratelimit",
	"too many requests",
	"quota",
	"throttl",
	"model unavailable",
	"model is unavailable",
	"not available",
	"model_not_found",
	"on-demand throughput",
	"inference profile",
	"overloaded",
	"capacity",
}

// IsFallbackWorthy reports whether err suggests another model may succeed.
func IsFallbackWorthy(err error) bool {
	if err == nil {
		return false
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Code {
		case 429, 503, 529:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range fallbackSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// IsTransient reports whether err is a network or server hiccup worth
// retrying on the same model.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Code {
		case 500, 502, 504:
			return true
		}
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "timeout")
}
