package llm

// MessageStore supplies a stored conversation. The pipeline only reads it.
type MessageStore interface {
	AllMessages() []Message
}

// Window truncates a conversation to at most ChatSize messages: every
// system message plus the most recent non-system messages. A ChatSize of
// zero keeps everything.
type Window struct {
	ChatSize int
}

// Apply returns the windowed view of msgs. The input is never modified.
// Tool results whose originating call fell out of the window are dropped
// from the head of the kept tail.
func (w Window) Apply(msgs []Message) []Message {
	if w.ChatSize <= 0 || len(msgs) <= w.ChatSize {
		return append([]Message(nil), msgs...)
	}

	var system, rest []Message
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m)
		} else {
			rest = append(rest, m)
		}
	}

	keep := max(w.ChatSize-len(system), 0)
	if keep < len(rest) {
		rest = rest[len(rest)-keep:]
	}
	for len(rest) > 0 && rest[0].Role == RoleTool {
		rest = rest[1:]
	}

	out := make([]Message, 0, len(system)+len(rest))
	out = append(out, system...)
	return append(out, rest...)
}
