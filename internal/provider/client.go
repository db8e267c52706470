// Package provider abstracts streaming chat completion backends behind a
// single interface. Each adapter converts the canonical conversation
// transcript to its SDK's wire format, streams the response, and surfaces
// text as uniform events. Adapters never interpret the text they stream;
// control-tag handling lives entirely in the engine.
package provider

import (
	"context"
	"errors"

	"github.com/counsel0/counsel/internal/conversation"
)

// ErrStreamAborted is returned by an EmitFunc to stop a stream early
// without treating it as a failure. Adapters stop consuming and return
// nil. The engine uses this when a complete tool tag arrives
// mid-generation and the rest of the response would be wasted tokens.
var ErrStreamAborted = errors.New("stream aborted by consumer")

// EventType identifies a stream event.
type EventType string

const (
	// EventMessageStart signals the provider began a response.
	EventMessageStart EventType = "message_start"
	// EventTextDelta carries an incremental text fragment.
	EventTextDelta EventType = "text_delta"
	// EventMessageStop signals the provider finished the response.
	EventMessageStop EventType = "message_stop"
)

// Event is one unit of streamed provider output.
type Event struct {
	Type EventType
	Text string
}

// EmitFunc receives stream events in order. Returning ErrStreamAborted
// stops the stream cleanly; any other error aborts it as a failure.
type EmitFunc func(Event) error

// Request is a provider-agnostic completion request. Messages must
// already be consolidated: only canonical roles are accepted.
type Request struct {
	Model       string
	System      string
	Messages    []conversation.Message
	MaxTokens   int
	Temperature float32
}

// Client is a streaming chat completion backend.
type Client interface {
	// Name returns the provider identifier ("anthropic", "openai", ...).
	Name() string

	// Stream sends the request and forwards response events to emit
	// until the stream ends, the context is cancelled, or emit asks to
	// stop. A consumer-initiated abort is not an error.
	Stream(ctx context.Context, req Request, emit EmitFunc) error

	// Ping verifies the backend is reachable with the configured
	// credentials.
	Ping(ctx context.Context) error
}

// emitText is shared adapter plumbing: forward a delta, translating the
// consumer abort into a clean stop signal for the caller.
func emitText(emit EmitFunc, text string) (stop bool, err error) {
	if text == "" {
		return false, nil
	}
	if err := emit(Event{Type: EventTextDelta, Text: text}); err != nil {
		if errors.Is(err, ErrStreamAborted) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}
