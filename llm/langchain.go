// Package llm - langchaingo-backed clients for local Ollama models
// and the Google AI SDK surface.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaClient runs against a local Ollama server via langchaingo.
// No API key is required.
type OllamaClient struct {
	llm *ollama.LLM
}

// NewOllamaClient creates a client for the given server URL and model.
// An empty serverURL uses Ollama's default (http://localhost:11434).
func NewOllamaClient(serverURL, model string) (*OllamaClient, error) {
	if model == "" {
		model = "llama3"
	}
	opts := []ollama.Option{ollama.WithModel(model)}
	if strings.TrimSpace(serverURL) != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	return &OllamaClient{llm: llm}, nil
}

// Chat folds the system instruction into a single prompt and runs a
// deterministic completion.
func (c *OllamaClient) Chat(ctx context.Context, system, user string) (string, error) {
	completion, err := c.llm.Call(ctx, foldPrompt(system, user), llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	return strings.TrimSpace(completion), nil
}

// GoogleAIClient uses the langchaingo Google AI binding.
type GoogleAIClient struct {
	llm *googleai.GoogleAI
}

// NewGoogleAIClient creates a Google AI client.
func NewGoogleAIClient(ctx context.Context, apiKey, model string) (*GoogleAIClient, error) {
	if model == "" {
		model = "gemini-1.5-flash"
	}
	llm, err := googleai.New(
		ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("googleai: %w", err)
	}
	return &GoogleAIClient{llm: llm}, nil
}

func (c *GoogleAIClient) Chat(ctx context.Context, system, user string) (string, error) {
	completion, err := c.llm.Call(ctx, foldPrompt(system, user), llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("googleai: %w", err)
	}
	return strings.TrimSpace(completion), nil
}

func foldPrompt(system, user string) string {
	if strings.TrimSpace(system) == "" {
		return user
	}
	return fmt.Sprintf("System Instructions: %s\n\nUser: %s", system, user)
}
