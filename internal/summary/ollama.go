package summary

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ollama/ollama/api"
)

type OllamaEnricher struct {
	client  *api.Client
	model   string
	timeout time.Duration
	mu      sync.Mutex
}

func NewOllamaEnricher(baseURL, model string, timeout time.Duration) *OllamaEnricher {
	c := api.NewClient(&url.URL{
		Scheme: "http",
		Host:   baseURL,
		Path:   "/",
	}, &http.Client{})

	return &OllamaEnricher{
		client:  c,
		model:   model,
		timeout: timeout,
	}
}

func (o *OllamaEnricher) Summarize(ctx context.Context, content string) (string, error) {
	if tooShort(content) {
		return "", nil
	}

	return o.generate(ctx, summarizeSystemPrompt, summarizePrompt(content))
}

func (o *OllamaEnricher) Categorize(ctx context.Context, content, title string) (string, error) {
	if tooShort(content) {
		return "", nil
	}

	raw, err := o.generate(ctx, categorizeSystemPrompt, categorizePrompt(content, title))
	if err != nil {
		return "", err
	}

	return NormalizeCategory(raw), nil
}

func (o *OllamaEnricher) generate(ctx context.Context, system, prompt string) (string, error) {
	// Local models handle one generation at a time.
	o.mu.Lock()
	defer o.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	req := &api.GenerateRequest{
		Model:  o.model,
		System: system,
		Prompt: prompt,
	}

	var parts []string
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		parts = append(parts, resp.Response)
		return nil
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(strings.Join(parts, "")), nil
}
