package completion

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-3.5-turbo",
  "choices": [{"index": 0, "message": {"role": "assistant", "content": "  Check monthly.  "}, "finish_reason": "stop"}],
  "usage": {"prompt_tokens": 10, "completion_tokens": 3, "total_tokens": 13}
}`

func TestNewOpenAI_Validation(t *testing.T) {
	if _, err := NewOpenAI("", "gpt-3.5-turbo"); err == nil {
		t.Error("expected error for empty api key")
	}
	if _, err := NewOpenAI("key", ""); err == nil {
		t.Error("expected error for empty model")
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	client, err := NewOpenAI("test-key", "gpt-3.5-turbo", WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewOpenAI failed: %v", err)
	}

	text, err := client.Complete(context.Background(), Request{
		SystemPrompt: "system text",
		UserPrompt:   "user text",
		MaxTokens:    150,
		Temperature:  0.7,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "  Check monthly.  " {
		t.Errorf("unexpected text %q", text)
	}

	if got["model"] != "gpt-3.5-turbo" {
		t.Errorf("expected model gpt-3.5-turbo, got %v", got["model"])
	}
	if got["max_tokens"] != float64(150) {
		t.Errorf("expected max_tokens 150, got %v", got["max_tokens"])
	}
	if got["temperature"] != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", got["temperature"])
	}
	messages, _ := got["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "system text" {
		t.Errorf("unexpected system message %v", first)
	}
}

func TestOpenAIClient_CompleteSendsZeroTemperature(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody)
	}))
	defer srv.Close()

	client, err := NewOpenAI("test-key", "gpt-3.5-turbo", WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewOpenAI failed: %v", err)
	}
	if _, err := client.Complete(context.Background(), Request{UserPrompt: "hi", Temperature: 0}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	temperature, ok := got["temperature"]
	if !ok {
		t.Fatal("expected temperature in request body")
	}
	if temperature != float64(0) {
		t.Errorf("expected temperature 0, got %v", temperature)
	}
}

func TestOpenAIClient_CompleteServerError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
	}))
	defer srv.Close()

	client, err := NewOpenAI("test-key", "gpt-3.5-turbo", WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewOpenAI failed: %v", err)
	}
	if _, err := client.Complete(context.Background(), Request{UserPrompt: "hi"}); err == nil {
		t.Fatal("expected error from failing server")
	}
	if calls != 1 {
		t.Errorf("expected exactly one call without retries, got %d", calls)
	}
}

func TestOpenAIClient_CompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"gpt-3.5-turbo","choices":[]}`)
	}))
	defer srv.Close()

	client, err := NewOpenAI("test-key", "gpt-3.5-turbo", WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewOpenAI failed: %v", err)
	}
	if _, err := client.Complete(context.Background(), Request{UserPrompt: "hi"}); err != ErrEmptyCompletion {
		t.Errorf("expected ErrEmptyCompletion, got %v", err)
	}
}
