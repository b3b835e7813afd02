// Package adapter provides a unified interface for the LLM providers that
// write conversation suggestions.
package adapter

import (
	"context"
	"fmt"
	"strings"
)

// Provider name constants.
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderClaude = "claude"
	ProviderOllama = "ollama"
)

// StreamChunk is a single token or error delivered during streaming.
type StreamChunk struct {
	Text  string
	Error error
}

// CompletionRequest holds the parameters for a completion call.
type CompletionRequest struct {
	SystemPrompt string
	Context      string
	UserMessage  string
	Model        string
	MaxTokens    int
	Temperature  float64
	Stream       bool
	JSON         bool // ask for a JSON object response where the provider supports it
}

// ModelInfo describes the model behind an adapter.
type ModelInfo struct {
	Name              string
	Provider          string
	MaxContextWindow  int
	SupportsStreaming bool
	SupportsJSONMode  bool
}

// LLMAdapter is the common interface all provider adapters implement.
type LLMAdapter interface {
	// Complete sends a prompt and streams the response.
	Complete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)

	// Info returns metadata about the adapter/model.
	Info() ModelInfo
}

// Options selects and configures a provider.
type Options struct {
	Provider string
	APIKey   string // empty = read from the provider's env var
	Model    string
	BaseURL  string // OpenAI-compatible endpoint override, or the Ollama host

	AzureEndpoint   string
	AzureDeployment string
	AzureAPIVersion string
}

// New constructs the LLMAdapter for the configured provider.
func New(opts Options) (LLMAdapter, error) {
	switch strings.ToLower(opts.Provider) {
	case ProviderOpenAI, "":
		return NewOpenAI(opts.APIKey, opts.Model, opts.BaseURL), nil
	case ProviderAzure:
		if opts.AzureEndpoint == "" {
			return nil, fmt.Errorf("adapter: azure provider requires an endpoint")
		}
		return NewAzureOpenAI(opts.APIKey, opts.AzureEndpoint, opts.AzureDeployment, opts.AzureAPIVersion), nil
	case ProviderClaude:
		return NewClaude(opts.APIKey, opts.Model), nil
	case ProviderOllama:
		return NewOllama(opts.BaseURL, opts.Model), nil
	default:
		return nil, fmt.Errorf("adapter: unknown provider %q; valid providers: openai, azure, claude, ollama", opts.Provider)
	}
}

// Collect runs a non-streaming completion and returns the full text.
func Collect(ctx context.Context, llm LLMAdapter, req CompletionRequest) (string, error) {
	req.Stream = false
	stream, err := llm.Complete(ctx, req)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for chunk := range stream {
		if chunk.Error != nil {
			return "", chunk.Error
		}
		sb.WriteString(chunk.Text)
	}
	return sb.String(), nil
}
