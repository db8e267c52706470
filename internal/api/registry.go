package api

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/counsel0/counsel/internal/conversation"
)

// ErrConversationNotFound indicates the requested conversation ID is
// unknown to this process.
var ErrConversationNotFound = errors.New("conversation not found")

// registry is the in-process conversation store. Persistence across
// restarts is out of scope; each conversation lives as long as the
// server does.
type registry struct {
	mu            sync.RWMutex
	conversations map[uuid.UUID]*conversation.History
}

func newRegistry() *registry {
	return &registry{conversations: make(map[uuid.UUID]*conversation.History)}
}

// create registers a fresh conversation and returns its ID.
func (r *registry) create() (uuid.UUID, *conversation.History) {
	id := uuid.New()
	history := conversation.NewHistory()

	r.mu.Lock()
	r.conversations[id] = history
	r.mu.Unlock()
	return id, history
}

// get returns the history for an existing conversation.
func (r *registry) get(id uuid.UUID) (*conversation.History, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	history, ok := r.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return history, nil
}

// remove deletes a conversation. Removing an unknown ID is a no-op.
func (r *registry) remove(id uuid.UUID) {
	r.mu.Lock()
	delete(r.conversations, id)
	r.mu.Unlock()
}

// list returns the IDs of all live conversations with their message
// counts. Order is unspecified.
func (r *registry) list() map[uuid.UUID]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uuid.UUID]int, len(r.conversations))
	for id, history := range r.conversations {
		out[id] = history.Count()
	}
	return out
}
