package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/counsel0/counsel/internal/conversation"
)

// OllamaClient streams completions from a local Ollama server.
type OllamaClient struct {
	client *api.Client
}

// NewOllamaClient creates an Ollama-backed client for the given host,
// e.g. "http://localhost:11434".
func NewOllamaClient(host string) (*OllamaClient, error) {
	if host == "" {
		host = "http://localhost:11434"
	}

	parsed, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid host %q: %w", host, err)
	}

	return &OllamaClient{client: api.NewClient(parsed, http.DefaultClient)}, nil
}

// Name implements Client.
func (c *OllamaClient) Name() string { return "ollama" }

// Stream implements Client.
func (c *OllamaClient) Stream(ctx context.Context, req Request, emit EmitFunc) error {
	streaming := true
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: toOllamaMessages(req.System, req.Messages),
		Stream:   &streaming,
		Options:  map[string]any{},
	}
	if req.Temperature > 0 {
		chatReq.Options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		chatReq.Options["num_predict"] = req.MaxTokens
	}

	if err := emit(Event{Type: EventMessageStart}); err != nil {
		return err
	}

	aborted := false
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		stop, err := emitText(emit, resp.Message.Content)
		if err != nil {
			return err
		}
		if stop {
			// Stop the SDK callback loop; the abort itself is not a
			// failure, so it is cleared below.
			aborted = true
			return ErrStreamAborted
		}
		return nil
	})
	if aborted {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ollama streaming: %w", err)
	}

	return emit(Event{Type: EventMessageStop})
}

// Ping implements Client by listing local models.
func (c *OllamaClient) Ping(ctx context.Context) error {
	if _, err := c.client.List(ctx); err != nil {
		return fmt.Errorf("ollama ping: %w", err)
	}
	return nil
}

func toOllamaMessages(system string, messages []conversation.Message) []api.Message {
	out := make([]api.Message, 0, len(messages)+1)
	if system != "" {
		out = append(out, api.Message{Role: "system", Content: system})
	}
	for _, msg := range messages {
		out = append(out, api.Message{Role: string(msg.Role), Content: msg.Content})
	}
	return out
}
