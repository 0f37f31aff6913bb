// Package recommender turns a set of detected skin conditions into a
// skincare recommendation by asking a chat-completion provider.
package recommender

import (
	"context"
	"fmt"
	"io"
	"strings"

	"DermaScan/pkg/gemini"
	"DermaScan/pkg/ollama"
	"DermaScan/pkg/openai"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	SystemPrompt = "You are a helpful assistant."

	// missingValue is how an absent age or gender appears in the prompt.
	missingValue = "None"
)

// ChatProvider is satisfied by every chat client in pkg.
type ChatProvider interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
	Provider() string
}

type Request struct {
	Problems []string
	Age      string
	Gender   string
}

type IRecommender interface {
	Recommend(ctx context.Context, req Request) (string, error)
	Provider() string
	Close() error
}

type Config struct {
	Provider     string
	APIKey       string
	BaseURL      string
	Model        string
	GeminiAPIKey string
	GeminiModel  string
	OllamaURL    string
}

type recommender struct {
	chat ChatProvider
}

func New(chat ChatProvider) IRecommender {
	return &recommender{chat: chat}
}

// NewFromConfig picks the chat provider. Missing credentials never fail here.
func NewFromConfig(ctx context.Context, cfg Config) (IRecommender, error) {
	switch cfg.Provider {
	case ProviderGroq, "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = openai.GroqBaseURL
		}
		return New(openai.NewChatCompletion(openai.Config{
			Provider: ProviderGroq,
			APIKey:   cfg.APIKey,
			BaseURL:  baseURL,
			Model:    cfg.Model,
		})), nil
	case ProviderOpenAI:
		return New(openai.NewChatCompletion(openai.Config{
			Provider: ProviderOpenAI,
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
		})), nil
	case ProviderGemini:
		client, err := gemini.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return New(client), nil
	case ProviderOllama:
		client, err := ollama.NewClient(cfg.OllamaURL, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return New(client), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// DefaultModel is the model used for provider when none is configured. Gemini
// takes its model from GeminiModel instead.
func DefaultModel(provider string) string {
	switch provider {
	case ProviderGroq, "":
		return openai.DefaultGroqModel
	case ProviderOpenAI:
		return openai.DefaultOpenAIModel
	case ProviderOllama:
		return ollama.DefaultModel
	default:
		return ""
	}
}

// Close releases provider resources when the provider holds any.
func (r *recommender) Close() error {
	if c, ok := r.chat.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (r *recommender) Provider() string {
	return r.chat.Provider()
}

func (r *recommender) Recommend(ctx context.Context, req Request) (string, error) {
	return r.chat.Complete(ctx, SystemPrompt, BuildPrompt(req))
}

// BuildPrompt renders the problem list the way a Python list literal prints,
// e.g. ['blackhead', 'acne scar'].
func BuildPrompt(req Request) string {
	quoted := make([]string, len(req.Problems))
	for i, p := range req.Problems {
		quoted[i] = "'" + p + "'"
	}
	problems := "[" + strings.Join(quoted, ", ") + "]"

	return fmt.Sprintf(
		"Based on the following predicted skin issues and the discription of the user: %s,User's : Age %s Gender %s "+
			"please provide recommended medication and a daily routine to follow for these conditions. "+
			"Include detailed steps and suggestions. (Note: This is experimental advice and not a substitute for professional medical guidance.)"+
			"Be more human like dont use works like user, assist, that feels more robotic",
		problems, orMissing(req.Age), orMissing(req.Gender),
	)
}

func orMissing(v string) string {
	if v == "" {
		return missingValue
	}
	return v
}
