// Package conversation defines the message model shared by the engine, the
// tool executor and the transport surface.
//
// Two kinds of roles exist. Canonical roles (user, assistant, system) are
// the only ones a model provider ever sees. Synthetic roles (thinking,
// answer, question) are finer-grained bookkeeping for the UI event stream;
// Consolidate folds them back into canonical assistant turns before each
// provider call.
package conversation

import "time"

// Role identifies the author of a message.
type Role string

// Canonical roles, valid in provider transcripts.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Synthetic roles, valid only in the in-process history.
const (
	RoleThinking Role = "thinking"
	RoleAnswer   Role = "answer"
	RoleQuestion Role = "question"
)

// Synthetic reports whether the role exists only for UI bookkeeping and
// must never be sent to a provider as-is.
func (r Role) Synthetic() bool {
	switch r {
	case RoleThinking, RoleAnswer, RoleQuestion:
		return true
	}
	return false
}

// Message is a single conversation entry.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// User builds a user-role message stamped with the current time.
func User(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now()}
}

// Assistant builds a canonical assistant-role message.
func Assistant(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now()}
}

// Thinking builds a thinking-role message.
func Thinking(content string) Message {
	return Message{Role: RoleThinking, Content: content, Timestamp: time.Now()}
}

// Answer builds an answer-role message.
func Answer(content string) Message {
	return Message{Role: RoleAnswer, Content: content, Timestamp: time.Now()}
}
