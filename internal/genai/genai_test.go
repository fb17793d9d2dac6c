package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp   openai.ChatCompletion
	err    error
	params openai.ChatCompletionNewParams
}

func (m *mockChatService) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	m.params = params
	return m.resp, m.err
}

func TestGeneratePrompt_Success(t *testing.T) {
	// Prepare a mock response with one choice
	mockResp := openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: "Hello World"}},
		},
	}
	client := &Client{chat: &mockChatService{resp: mockResp}, model: DefaultModel, maxTokens: DefaultMaxTokens, temperature: DefaultTemperature}
	out, err := client.GeneratePrompt("system prompt", "user prompt")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "Hello World" {
		t.Errorf("expected 'Hello World', got '%s'", out)
	}
}

func TestGeneratePrompt_ServiceError(t *testing.T) {
	client := &Client{chat: &mockChatService{err: errors.New("service failure")}, model: DefaultModel}
	_, err := client.GeneratePrompt("sys", "usr")
	if err == nil || !strings.Contains(err.Error(), "service failure") {
		t.Errorf("expected service failure error, got %v", err)
	}
}

func TestGeneratePrompt_NoChoices(t *testing.T) {
	// Empty choices slice
	mockResp := openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{}}
	client := &Client{chat: &mockChatService{resp: mockResp}, model: DefaultModel}
	_, err := client.GeneratePrompt("sys", "usr")
	if !errors.Is(err, ErrNoChoicesReturned) {
		t.Errorf("expected no choices returned error, got %v", err)
	}
}

func TestGenerateWithMessages_PassesModelSettings(t *testing.T) {
	mock := &mockChatService{
		resp: openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "ok"}},
			},
		},
	}
	client := &Client{chat: mock, model: "gpt-4o-mini", maxTokens: 300, temperature: 0.7}
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage("sys"),
		openai.UserMessage("first"),
		openai.AssistantMessage("reply"),
		openai.UserMessage("second"),
	}
	out, err := client.GenerateWithMessages(context.Background(), messages)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "ok" {
		t.Errorf("expected 'ok', got '%s'", out)
	}
	if mock.params.Model != "gpt-4o-mini" {
		t.Errorf("expected model to be forwarded, got %v", mock.params.Model)
	}
	if len(mock.params.Messages) != 4 {
		t.Errorf("expected 4 messages forwarded, got %d", len(mock.params.Messages))
	}
}

func TestNewClient_NoKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := NewClient()
	if err == nil {
		t.Error("expected error when API key not provided, got nil")
	}
}

func TestNewClient_WithKey(t *testing.T) {
	key := "test-key"
	cli, err := NewClient(WithAPIKey(key))
	if err != nil {
		t.Fatalf("expected no error with API key, got %v", err)
	}
	if cli == nil {
		t.Error("expected client instance, got nil")
	}
}

func TestNewClient_Options(t *testing.T) {
	cli, err := NewClient(WithAPIKey("k"), WithModel("gpt-4o"), WithMaxTokens(128), WithTemperature(0.2))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cli.model != "gpt-4o" || cli.maxTokens != 128 || cli.temperature != 0.2 {
		t.Errorf("options not applied: %+v", cli)
	}
}
