package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultModel = "gemini-1.5-flash"

var ErrMissingAPIKey = errors.New("gemini API key is required")

type IGemini interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
	Provider() string
	Close() error
}

type geminiClient struct {
	modelName string
	client    *genai.Client
}

// NewGeminiClient does not fail on a missing key so the service can still
// start; every Complete call then returns ErrMissingAPIKey.
func NewGeminiClient(ctx context.Context, apiKey string, modelName string) (IGemini, error) {
	if modelName == "" {
		modelName = DefaultModel
	}

	if apiKey == "" {
		return &geminiClient{modelName: modelName}, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		modelName: modelName,
		client:    client,
	}, nil
}

func (g *geminiClient) Provider() string {
	return "gemini"
}

func (g *geminiClient) Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error) {
	if g.client == nil {
		return "", ErrMissingAPIKey
	}

	model := g.client.GenerativeModel(g.modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}

	res, err := model.GenerateContent(ctx, genai.Text(userPrompt))
	if err != nil {
		return "", err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("no response from Gemini API")
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("unexpected response format from Gemini API")
	}

	return sb.String(), nil
}

func (g *geminiClient) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}
