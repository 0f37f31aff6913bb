package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompleteSendsSingleTurn(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Wash twice a day."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client := NewChatCompletion(Config{Provider: "groq", APIKey: "test-key", BaseURL: srv.URL})

	text, err := client.Complete(context.Background(), "You are a helpful assistant.", "help")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "Wash twice a day." {
		t.Errorf("unexpected text %q", text)
	}

	if got.Model != DefaultGroqModel {
		t.Errorf("expected default model %q, got %q", DefaultGroqModel, got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "help" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
}

func TestCompleteUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewChatCompletion(Config{Provider: "groq", BaseURL: srv.URL})

	if _, err := client.Complete(context.Background(), "sys", "user"); err == nil {
		t.Fatal("expected error for unauthorized upstream")
	}
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	client := NewChatCompletion(Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL, Model: "gpt-4o-mini"})

	if _, err := client.Complete(context.Background(), "sys", "user"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestOpenAIProviderDefaultsToOpenAIModel(t *testing.T) {
	var got struct {
		Model string `json:"model"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"ok"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client := NewChatCompletion(Config{Provider: "openai", APIKey: "k", BaseURL: srv.URL})
	if _, err := client.Complete(context.Background(), "sys", "user"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Model != DefaultOpenAIModel {
		t.Errorf("expected %q, got %q", DefaultOpenAIModel, got.Model)
	}
}
