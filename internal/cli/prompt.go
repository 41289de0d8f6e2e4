package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/llmbridge/internal/llm"
)

// systemPrompt builds the system message of a new conversation. Tools are
// described natively by each provider's tool clause, so only their names
// are listed here.
func systemPrompt(now time.Time, tools []llm.Tool, extra string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current date: %s\n", now.Format("2006-01-02"))

	if len(tools) > 0 {
		names := make([]string, len(tools))
		for i, t := range tools {
			names[i] = t.Name()
		}
		fmt.Fprintf(&b, "Available tools: %s\n", strings.Join(names, ", "))
		b.WriteString("When using tools, explain what you're doing.\n")
	}

	if extra != "" {
		b.WriteString("\n")
		b.WriteString(extra)
		b.WriteString("\n")
	}

	return b.String()
}
