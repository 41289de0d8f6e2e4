// Package tools provides built-in tools the chat command registers with
// the orchestrator.
package tools

import (
	"fmt"

	"github.com/soyeahso/llmbridge/internal/llm"
)

// Builtin returns every built-in tool.
func Builtin() []llm.Tool {
	return []llm.Tool{NewCalculator(), NewClock(), NewReadURL()}
}

// stringParam reads a required string parameter.
func stringParam(params map[string]any, name string) (string, error) {
	v, ok := params[name]
	if !ok {
		return "", fmt.Errorf("%s is required", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", name, v)
	}
	if s == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return s, nil
}

// optionalString reads a string parameter, returning "" when absent.
func optionalString(params map[string]any, name string) string {
	s, _ := params[name].(string)
	return s
}
