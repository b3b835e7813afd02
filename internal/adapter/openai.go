package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIModel     = "gpt-4o"
	defaultAzureAPIVersion = "2024-02-01"
)

// openaiAdapter implements LLMAdapter for OpenAI and Azure OpenAI.
type openaiAdapter struct {
	client   *openai.Client
	model    string
	provider string
}

// NewOpenAI creates an OpenAI adapter. If apiKey is empty, OPENAI_API_KEY is
// used. baseURL is optional.
func NewOpenAI(apiKey, model, baseURL string) LLMAdapter {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openaiAdapter{
		client:   openai.NewClientWithConfig(cfg),
		model:    model,
		provider: ProviderOpenAI,
	}
}

// NewAzureOpenAI creates an adapter for an Azure OpenAI deployment. If
// apiKey is empty, AZURE_OPENAI_KEY is used. Every request is routed to
// deployment regardless of the model it names.
func NewAzureOpenAI(apiKey, endpoint, deployment, apiVersion string) LLMAdapter {
	if apiKey == "" {
		apiKey = os.Getenv("AZURE_OPENAI_KEY")
	}
	if deployment == "" {
		deployment = defaultOpenAIModel
	}
	cfg := openai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion == "" {
		apiVersion = defaultAzureAPIVersion
	}
	cfg.APIVersion = apiVersion
	cfg.AzureModelMapperFunc = func(string) string { return deployment }
	return &openaiAdapter{
		client:   openai.NewClientWithConfig(cfg),
		model:    deployment,
		provider: ProviderAzure,
	}
}

func (o *openaiAdapter) Info() ModelInfo {
	return ModelInfo{
		Name:              o.model,
		Provider:          o.provider,
		MaxContextWindow:  128000,
		SupportsStreaming: true,
		SupportsJSONMode:  true,
	}
}

func (o *openaiAdapter) Complete(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	messages := []openai.ChatCompletionMessage{}
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	if req.Context != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: fmt.Sprintf("<context>\n%s\n</context>", req.Context),
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.UserMessage,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	ch := make(chan StreamChunk, 64)

	if !req.Stream {
		go func() {
			defer close(ch)
			resp, err := o.client.CreateChatCompletion(ctx, chatReq)
			if err != nil {
				ch <- StreamChunk{Error: fmt.Errorf("%s complete: %w", o.provider, err)}
				return
			}
			if len(resp.Choices) > 0 {
				ch <- StreamChunk{Text: resp.Choices[0].Message.Content}
			}
		}()
		return ch, nil
	}

	chatReq.Stream = true
	stream, err := o.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		close(ch)
		return nil, fmt.Errorf("%s stream: %w", o.provider, err)
	}

	go func() {
		defer close(ch)
		defer stream.Close()
		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				ch <- StreamChunk{Error: fmt.Errorf("%s stream recv: %w", o.provider, err)}
				return
			}
			if len(resp.Choices) > 0 {
				ch <- StreamChunk{Text: resp.Choices[0].Delta.Content}
			}
		}
	}()

	return ch, nil
}
