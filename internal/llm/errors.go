package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownModel is returned when inference parameters are requested for
	// a model the catalog does not know.
	ErrUnknownModel = errors.New("unknown model")

	// ErrUnrecognizedResponse is returned when a provider reports a
	// termination cause the pipeline cannot map. It is never retried.
	ErrUnrecognizedResponse = errors.New("unrecognized response")

	// ErrToolInput marks a tool call whose input could not be parsed.
	ErrToolInput = errors.New("invalid tool input")

	// ErrToolNotFound marks a tool call naming an unregistered tool.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolExecution marks a tool whose executor failed.
	ErrToolExecution = errors.New("tool execution failed")

	// ErrNoMessageStore is returned by InvokeStore when no store is attached.
	ErrNoMessageStore = errors.New("no message store set")

	// ErrToolRounds is returned by Run when the model keeps requesting tools.
	ErrToolRounds = errors.New("too many tool rounds")
)

// ProviderError is returned when an LLM provider fails.
type ProviderError struct {
	Provider string
	Message  string
	Code     int // HTTP status code (401, 429, 500, etc.)
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
