package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNew_ValidProviders(t *testing.T) {
	tests := []struct {
		opts     Options
		provider string
	}{
		{Options{Provider: ProviderOpenAI, APIKey: "test-key"}, ProviderOpenAI},
		{Options{Provider: "", APIKey: "test-key"}, ProviderOpenAI},
		{Options{Provider: ProviderClaude, APIKey: "test-key"}, ProviderClaude},
		{Options{Provider: ProviderOllama}, ProviderOllama},
		{Options{Provider: ProviderAzure, APIKey: "test-key", AzureEndpoint: "https://example.openai.azure.com", AzureDeployment: "gpt4o-prod"}, ProviderAzure},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			a, err := New(tt.opts)
			if err != nil {
				t.Fatalf("New(%q) error: %v", tt.opts.Provider, err)
			}
			if a == nil {
				t.Fatalf("New(%q) returned nil adapter", tt.opts.Provider)
			}
			if got := a.Info().Provider; got != tt.provider {
				t.Errorf("Info().Provider = %q, want %q", got, tt.provider)
			}
		})
	}
}

func TestNew_InvalidProvider(t *testing.T) {
	if _, err := New(Options{Provider: "gemini"}); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestNew_AzureRequiresEndpoint(t *testing.T) {
	if _, err := New(Options{Provider: ProviderAzure, APIKey: "k"}); err == nil {
		t.Error("expected error when azure endpoint is missing")
	}
}

func TestNew_ModelDefaults(t *testing.T) {
	a, _ := New(Options{Provider: ProviderClaude, APIKey: "k"})
	if a.Info().Name != defaultClaudeModel {
		t.Errorf("claude model: got %q", a.Info().Name)
	}
	a, _ = New(Options{Provider: ProviderOpenAI, APIKey: "k", Model: "gpt-4o-mini"})
	if a.Info().Name != "gpt-4o-mini" {
		t.Errorf("openai model: got %q", a.Info().Name)
	}
	a, _ = New(Options{Provider: ProviderAzure, APIKey: "k", AzureEndpoint: "https://x.openai.azure.com", AzureDeployment: "prod"})
	if a.Info().Name != "prod" {
		t.Errorf("azure deployment: got %q", a.Info().Name)
	}
}

func TestOpenAIComplete_JSONMode(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "{\"suggestion\":\"hi\"}"},
				"finish_reason": "stop"
			}]
		}`)
	}))
	defer server.Close()

	a := NewOpenAI("test-key", "gpt-4o", server.URL+"/v1")
	text, err := Collect(context.Background(), a, CompletionRequest{
		SystemPrompt: "be helpful",
		UserMessage:  "hello",
		JSON:         true,
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if text != `{"suggestion":"hi"}` {
		t.Errorf("got %q", text)
	}

	rf, ok := gotBody["response_format"].(map[string]any)
	if !ok || rf["type"] != "json_object" {
		t.Errorf("response_format: got %v", gotBody["response_format"])
	}
	if gotBody["model"] != "gpt-4o" {
		t.Errorf("model: got %v", gotBody["model"])
	}
	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Errorf("expected system + user messages, got %d", len(msgs))
	}
}

func TestOpenAIComplete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"invalid api key","type":"invalid_request_error"}}`)
	}))
	defer server.Close()

	a := NewOpenAI("bad-key", "", server.URL+"/v1")
	_, err := Collect(context.Background(), a, CompletionRequest{UserMessage: "hello"})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "openai complete") {
		t.Errorf("error should be wrapped with the provider: %v", err)
	}
}

type stubAdapter struct {
	chunks []StreamChunk
	err    error
}

func (s stubAdapter) Complete(context.Context, CompletionRequest) (<-chan StreamChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan StreamChunk, len(s.chunks))
	for _, c := range s.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (s stubAdapter) Info() ModelInfo { return ModelInfo{Provider: "stub"} }

func TestCollect(t *testing.T) {
	got, err := Collect(context.Background(), stubAdapter{chunks: []StreamChunk{{Text: "Hello "}, {Text: "World"}}}, CompletionRequest{})
	if err != nil || got != "Hello World" {
		t.Errorf("got %q, %v", got, err)
	}

	boom := errors.New("boom")
	if _, err := Collect(context.Background(), stubAdapter{chunks: []StreamChunk{{Text: "x"}, {Error: boom}}}, CompletionRequest{}); !errors.Is(err, boom) {
		t.Errorf("expected chunk error, got %v", err)
	}
	if _, err := Collect(context.Background(), stubAdapter{err: boom}, CompletionRequest{}); !errors.Is(err, boom) {
		t.Errorf("expected start error, got %v", err)
	}
}

func TestOllamaComplete_StreamsNDJSON(t *testing.T) {
	var gotReq ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&gotReq)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"{\"sugg"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"estion\":\"hi\"}"},"done":true}`)
	}))
	defer server.Close()

	a := NewOllama(server.URL+"/", "")
	text, err := Collect(context.Background(), a, CompletionRequest{SystemPrompt: "sys", UserMessage: "hello", JSON: true})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if text != `{"suggestion":"hi"}` {
		t.Errorf("got %q", text)
	}
	if gotReq.Format != "json" {
		t.Errorf("format: got %q, want json", gotReq.Format)
	}
	if gotReq.Model != defaultOllamaModel {
		t.Errorf("model: got %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Errorf("messages: got %+v", gotReq.Messages)
	}
}

func TestOllamaComplete_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := Collect(context.Background(), NewOllama(server.URL, "missing"), CompletionRequest{UserMessage: "x"})
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected status error, got %v", err)
	}
}
