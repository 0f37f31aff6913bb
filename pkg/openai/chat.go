package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const (
	GroqBaseURL        = "https://api.groq.com/openai/v1"
	DefaultGroqModel   = "llama-3.3-70b-versatile"
	DefaultOpenAIModel = openai.GPT4oMini

	providerOpenAI = "openai"
)

type IChatCompletion interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
	Provider() string
}

type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

type chatService struct {
	client   *openai.Client
	model    string
	provider string
}

// NewChatCompletion builds a client for any OpenAI-compatible chat API. An
// empty key is accepted; the upstream rejects the call at request time.
func NewChatCompletion(cfg Config) IChatCompletion {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultGroqModel
		if cfg.Provider == providerOpenAI {
			model = DefaultOpenAIModel
		}
	}

	return &chatService{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    model,
		provider: cfg.Provider,
	}
}

func (c *chatService) Provider() string {
	return c.provider
}

func (c *chatService) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		},
		{
			Role:    openai.ChatMessageRoleUser,
			Content: userPrompt,
		},
	}

	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model:    c.model,
			Messages: messages,
		},
	)
	if err != nil {
		return "", fmt.Errorf("%s chat completion error: %w", c.provider, err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in chat completion response")
	}

	return resp.Choices[0].Message.Content, nil
}
