package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIEnricher struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIEnricher creates an enricher backed by any OpenAI-compatible API.
// Set baseURL to a non-empty string to point at a local server (LM Studio,
// llama.cpp, Ollama's /v1 endpoint, etc.); leave empty for api.openai.com.
func NewOpenAIEnricher(baseURL, apiKey, model string, timeout time.Duration) *OpenAIEnricher {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIEnricher{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

func (o *OpenAIEnricher) Summarize(ctx context.Context, content string) (string, error) {
	if tooShort(content) {
		return "", nil
	}

	return o.complete(ctx, summarizeSystemPrompt, summarizePrompt(content), 150, 0.5)
}

func (o *OpenAIEnricher) Categorize(ctx context.Context, content, title string) (string, error) {
	if tooShort(content) {
		return "", nil
	}

	raw, err := o.complete(ctx, categorizeSystemPrompt, categorizePrompt(content, title), 20, 0.3)
	if err != nil {
		return "", err
	}

	return NormalizeCategory(raw), nil
}

func (o *OpenAIEnricher) complete(ctx context.Context, system, user string, maxTokens int, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model %q", o.model)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
