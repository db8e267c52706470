package provider

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/counsel0/counsel/internal/conversation"
)

// GeminiClient streams completions from the Gemini API using the
// google.golang.org/genai SDK.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient creates a Gemini-backed client.
func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &GeminiClient{client: client}, nil
}

// Name implements Client.
func (c *GeminiClient) Name() string { return "gemini" }

// Stream implements Client.
func (c *GeminiClient) Stream(ctx context.Context, req Request, emit EmitFunc) error {
	cfg := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(req.Temperature)
	}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}

	if err := emit(Event{Type: EventMessageStart}); err != nil {
		return err
	}

	contents := toGeminiContents(req.Messages)
	for resp, err := range c.client.Models.GenerateContentStream(ctx, req.Model, contents, cfg) {
		if err != nil {
			return fmt.Errorf("gemini streaming: %w", err)
		}
		stop, err := emitText(emit, resp.Text())
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}

	return emit(Event{Type: EventMessageStop})
}

// Ping implements Client with a minimal one-token generation.
func (c *GeminiClient) Ping(ctx context.Context) error {
	_, err := c.client.Models.GenerateContent(ctx, "gemini-2.5-flash",
		genai.Text("ping"),
		&genai.GenerateContentConfig{MaxOutputTokens: 1})
	if err != nil {
		return fmt.Errorf("gemini ping: %w", err)
	}
	return nil
}

// toGeminiContents converts the transcript to Gemini's content format.
// Gemini models only know "user" and "model" roles; system content is
// carried via SystemInstruction, so stray system messages become user
// turns.
func toGeminiContents(messages []conversation.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == conversation.RoleAssistant {
			role = genai.Role(genai.RoleModel)
		}
		out = append(out, genai.NewContentFromText(msg.Content, role))
	}
	return out
}
