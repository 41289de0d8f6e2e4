package store

import (
	"sync"

	"github.com/soyeahso/llmbridge/internal/llm"
)

// MemoryConversation is an in-memory llm.MessageStore for sessions that
// are not persisted.
type MemoryConversation struct {
	mu   sync.RWMutex
	msgs []llm.Message
}

// NewMemoryConversation creates a conversation seeded with msgs.
func NewMemoryConversation(msgs ...llm.Message) *MemoryConversation {
	return &MemoryConversation{msgs: append([]llm.Message(nil), msgs...)}
}

// Append adds messages in order.
func (c *MemoryConversation) Append(msgs ...llm.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msgs...)
}

// AllMessages returns a copy of the conversation.
func (c *MemoryConversation) AllMessages() []llm.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]llm.Message(nil), c.msgs...)
}

// Len returns the number of messages.
func (c *MemoryConversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.msgs)
}

// Reset drops every message.
func (c *MemoryConversation) Reset() {
	c.mu.Lock()
	c.msgs = nil
	c.mu.Unlock()
}
