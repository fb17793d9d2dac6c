// Package genai provides GenAI-enhanced operations using the OpenAI API.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Error variables for better error handling and testability
var (
	// ErrNoChoicesReturned indicates the API responded without any completion choices.
	ErrNoChoicesReturned = errors.New("no choices returned")
)

// Defaults for chat completion requests.
const (
	// DefaultModel is used when no model option is provided.
	DefaultModel = openai.ChatModelGPT4oMini
	// DefaultMaxTokens caps coach responses to a chat-sized length.
	DefaultMaxTokens = 300
	// DefaultTemperature balances consistency and variety in responses.
	DefaultTemperature = 0.7
)

// Opts holds configuration options for the GenAI client.
type Opts struct {
	// APIKey overrides the OPENAI_API_KEY environment variable.
	APIKey string
	// Model selects the chat completion model.
	Model string
	// MaxTokens caps the completion length. Zero means DefaultMaxTokens.
	MaxTokens int64
	// Temperature sets sampling temperature. Zero means DefaultTemperature.
	Temperature float64
}

// Option configures the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithModel sets the chat completion model.
func WithModel(model string) Option {
	return func(o *Opts) {
		o.Model = model
	}
}

// WithMaxTokens sets the completion token cap.
func WithMaxTokens(n int64) Option {
	return func(o *Opts) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(o *Opts) {
		o.Temperature = t
	}
}

// chatService defines minimal interface for chat completions.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// openaiChatService adapts the OpenAI SDK to the chatService interface.
type openaiChatService struct {
	client openai.Client
}

func (s openaiChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

// Client wraps the OpenAI chat completion service for generating coach responses.
type Client struct {
	chat        chatService
	model       string
	maxTokens   int64
	temperature float64
}

// NewClient initializes a new GenAI client. The API key comes from the
// WithAPIKey option or the OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}

	cli := openai.NewClient(option.WithAPIKey(apiKey))
	slog.Debug("GenAI.NewClient: client created", "model", model, "maxTokens", maxTokens)
	return &Client{
		chat:        openaiChatService{client: cli},
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}, nil
}

// GeneratePrompt generates a response based on the provided system and user prompts.
func (c *Client) GeneratePrompt(systemPrompt, userPrompt string) (string, error) {
	return c.GeneratePromptWithContext(context.Background(), systemPrompt, userPrompt)
}

// GeneratePromptWithContext generates a response with cancellation support.
func (c *Client) GeneratePromptWithContext(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userPrompt),
	}
	return c.GenerateWithMessages(ctx, messages)
}

// GenerateWithMessages generates a response from a full message sequence,
// typically a system prompt followed by conversation history.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   openai.Int(c.maxTokens),
		Temperature: openai.Float(c.temperature),
	}
	resp, err := c.chat.Create(ctx, params)
	if err != nil {
		slog.Debug("GenAI.GenerateWithMessages: completion failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		slog.Debug("GenAI.GenerateWithMessages: empty choices in response")
		return "", ErrNoChoicesReturned
	}
	slog.Debug("GenAI.GenerateWithMessages: completion succeeded", "messages", len(messages))
	return resp.Choices[0].Message.Content, nil
}
