package provider

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/counsel0/counsel/internal/conversation"
)

// OpenAIClient streams completions from the OpenAI Chat Completions API
// using the official SDK.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates an OpenAI-backed client. The API key is
// required; baseURL may be empty to use the public endpoint.
func NewOpenAIClient(apiKey, baseURL string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIClient{client: openai.NewClient(opts...)}, nil
}

// Name implements Client.
func (c *OpenAIClient) Name() string { return "openai" }

// Stream implements Client.
func (c *OpenAIClient) Stream(ctx context.Context, req Request, emit EmitFunc) error {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: toOpenAIMessages(req.System, req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(float64(req.Temperature))
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)

	if err := emit(Event{Type: EventMessageStart}); err != nil {
		return err
	}

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		stop, err := emitText(emit, chunk.Choices[0].Delta.Content)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("openai streaming: %w", err)
	}
	return emit(Event{Type: EventMessageStop})
}

// Ping implements Client by listing models, the cheapest authenticated
// call the API offers.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx); err != nil {
		return fmt.Errorf("openai ping: %w", err)
	}
	return nil
}

func toOpenAIMessages(system string, messages []conversation.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}
	for _, msg := range messages {
		switch msg.Role {
		case conversation.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case conversation.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
