// Package llm wraps the OpenAI chat completion API behind the interface the
// chat service expects.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/botforge-ai/botforge/internal/service"
)

const (
	// DefaultChatModel is used when a chatbot does not name a model
	DefaultChatModel = openai.GPT4oMini
)

var (
	// ErrNoAPIKey is returned when the OpenAI API key is not set
	ErrNoAPIKey = errors.New("OPENAI_API_KEY environment variable not set")
	// ErrNoChoices is returned when the API responds without any completion
	ErrNoChoices = errors.New("no completion choices returned")
)

// ChatAPI defines the subset of the OpenAI client used for chat
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client wraps the OpenAI API client
type Client struct {
	api ChatAPI
}

// NewClient creates a new OpenAI-backed chat client
func NewClient(apiKey string) *Client {
	return &Client{api: openai.NewClient(apiKey)}
}

// NewClientWithAPI creates a client around an existing ChatAPI, used in tests
func NewClientWithAPI(api ChatAPI) *Client {
	return &Client{api: api}
}

// NewClientFromEnv creates a new client using the OPENAI_API_KEY environment variable
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return NewClient(apiKey), nil
}

// Complete sends the system prompt and conversation to the model and returns
// the assistant's reply.
func (c *Client) Complete(ctx context.Context, model, systemPrompt string, messages []service.ChatMessage) (string, error) {
	if model == "" {
		model = DefaultChatModel
	}

	apiMessages := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	apiMessages = append(apiMessages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range messages {
		apiMessages = append(apiMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: apiMessages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}
