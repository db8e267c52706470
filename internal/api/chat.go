package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/counsel0/counsel/internal/conversation"
	"github.com/counsel0/counsel/internal/engine"
	"github.com/counsel0/counsel/internal/log"
)

// chatInput is the request body for the streaming chat endpoint. An
// empty ConversationID starts a new conversation.
type chatInput struct {
	ConversationID string `json:"conversationId,omitempty"`
	Query          string `json:"query"`
}

// chatHandler owns the SSE streaming endpoint. Engine events map 1:1
// onto SSE events: the event name is the engine event type and the data
// is the JSON-encoded event.
type chatHandler struct {
	controller *engine.Controller
	registry   *registry
	logger     log.Logger
}

// sseErrorPayload mirrors the engine's error event shape for transport
// failures detected before the engine runs.
type sseErrorPayload struct {
	Type    engine.EventType `json:"type"`
	Content string           `json:"content"`
}

// stream handles POST /api/v1/chat/stream.
//
// The engine guarantees exactly one complete event per run; for request
// validation failures that happen before the engine starts, the handler
// emits its own error + complete pair so the contract holds for every
// response this endpoint ever produces.
func (h *chatHandler) stream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var input chatInput
	r.Body = http.MaxBytesReader(w, r.Body, 1024*1024)
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.failBeforeRun(w, flusher, "Invalid request body")
		return
	}
	if input.Query == "" {
		h.failBeforeRun(w, flusher, "query is required")
		return
	}

	history, conversationID, err := h.resolveConversation(input.ConversationID)
	if err != nil {
		h.failBeforeRun(w, flusher, err.Error())
		return
	}

	history.Append(conversation.User(input.Query))

	ctx := r.Context()
	h.logger.Debug("chat stream started",
		"conversation_id", conversationID,
		"request_id", requestIDFromContext(ctx))

	notify := engine.NotifierFunc(func(ev engine.Event) {
		if err := writeEvent(w, flusher, string(ev.Type), ev); err != nil {
			// Write failure usually means the client went away; the
			// engine keeps running and its context cancellation (via
			// the request context) tears the loop down.
			h.logger.Debug("failed to write SSE event", "error", err)
		}
	})

	if err := h.controller.Run(ctx, history, notify); err != nil {
		// The engine already pushed error + complete events; this log
		// is for the operator, not the client.
		h.logger.Error("turn loop failed",
			"conversation_id", conversationID, "error", err)
		return
	}

	h.logger.Info("chat stream completed", "conversation_id", conversationID)
}

// resolveConversation looks up an existing conversation or creates a new
// one when no ID is supplied.
func (h *chatHandler) resolveConversation(id string) (*conversation.History, uuid.UUID, error) {
	if id == "" {
		newID, history := h.registry.create()
		return history, newID, nil
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, uuid.Nil, fmt.Errorf("invalid conversation ID %q", id)
	}
	history, err := h.registry.get(parsed)
	if err != nil {
		return nil, uuid.Nil, err
	}
	return history, parsed, nil
}

// failBeforeRun emits the error + complete event pair for failures that
// precede the engine run.
func (h *chatHandler) failBeforeRun(w io.Writer, f http.Flusher, message string) {
	_ = writeEvent(w, f, string(engine.EventError), sseErrorPayload{
		Type:    engine.EventError,
		Content: message,
	})
	_ = writeEvent(w, f, string(engine.EventComplete), sseErrorPayload{
		Type: engine.EventComplete,
	})
}

// writeEvent writes a single SSE event with JSON-encoded data.
// SSE format: "event: <type>\ndata: <json>\n\n"
func writeEvent[T any](w io.Writer, flusher http.Flusher, event string, data T) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	flusher.Flush()
	return nil
}

// conversationHandler serves conversation CRUD.
type conversationHandler struct {
	registry *registry
	logger   log.Logger
}

type conversationCreated struct {
	ConversationID string `json:"conversationId"`
}

type conversationSummary struct {
	ConversationID string `json:"conversationId"`
	MessageCount   int    `json:"messageCount"`
}

type conversationList struct {
	Conversations []conversationSummary `json:"conversations"`
}

type conversationMessages struct {
	ConversationID string                 `json:"conversationId"`
	Messages       []conversation.Message `json:"messages"`
}

func (h *conversationHandler) create(w http.ResponseWriter, _ *http.Request) {
	id, _ := h.registry.create()
	writeJSON(w, http.StatusCreated, conversationCreated{ConversationID: id.String()}, h.logger)
}

func (h *conversationHandler) list(w http.ResponseWriter, _ *http.Request) {
	summaries := conversationList{Conversations: []conversationSummary{}}
	for id, count := range h.registry.list() {
		summaries.Conversations = append(summaries.Conversations, conversationSummary{
			ConversationID: id.String(),
			MessageCount:   count,
		})
	}
	writeJSON(w, http.StatusOK, summaries, h.logger)
}

func (h *conversationHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "conversation ID must be a UUID", h.logger)
		return
	}

	history, err := h.registry.get(id)
	if err != nil {
		if errors.Is(err, ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "conversation not found", h.logger)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "lookup failed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, conversationMessages{
		ConversationID: id.String(),
		Messages:       history.Messages(),
	}, h.logger)
}

func (h *conversationHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "conversation ID must be a UUID", h.logger)
		return
	}
	h.registry.remove(id)
	w.WriteHeader(http.StatusNoContent)
}
