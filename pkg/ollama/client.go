package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "llama3.2"
)

type IOllama interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
	Provider() string
}

// Client wraps the Ollama API client for single-turn, non-streaming chats.
type Client struct {
	client *api.Client
	model  string
}

func NewClient(ollamaURL string, model string) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}

	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{
		client: api.NewClient(baseURL, http.DefaultClient),
		model:  model,
	}, nil
}

func (c *Client) Provider() string {
	return "ollama"
}

func (c *Client) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	stream := false
	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Stream: &stream,
	}

	var content string
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}

	return content, nil
}
