package conversation

import "sync"

// History encapsulates conversation history with thread-safe access.
//
// The zero value is not useful - use NewHistory to create instances.
type History struct {
	mu       sync.RWMutex
	messages []Message
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{messages: make([]Message, 0)}
}

// SetMessages replaces all messages. Makes a defensive copy to prevent
// external modification.
func (h *History) SetMessages(messages []Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = make([]Message, len(messages))
	copy(h.messages, messages)
}

// Messages returns a copy of all messages for thread-safe access.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]Message, len(h.messages))
	copy(result, h.messages)
	return result
}

// Append adds messages to the end of the history.
func (h *History) Append(msgs ...Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msgs...)
}

// Count returns the number of messages.
func (h *History) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Clear removes all messages.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = make([]Message, 0)
}
