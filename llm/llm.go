// Package llm provides pluggable chat clients for the dialogue
// controller. The default client speaks the OpenAI-compatible
// chat.completions protocol; Gemini native, langchaingo-backed
// Ollama and Google AI clients are also available.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/autostream-x/autostream-agent/resilience"
)

var ErrLLMDisabled = errors.New("llm client disabled (missing key or base url)")

// Client is the minimal interface used by the sales agent. All three
// dialogue stages (classification, grounded answers, extraction) go
// through it.
type Client interface {
	Chat(ctx context.Context, system, user string) (string, error)
}

// OpenAIClient is an OpenAI-compatible HTTP client.
type OpenAIClient struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client
	Retry   *resilience.RetryConfig
}

type chatReq struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResp struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string      `json:"message"`
		Type    string      `json:"type,omitempty"`
		Code    interface{} `json:"code,omitempty"`
	} `json:"error,omitempty"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	FinishReason string      `json:"finish_reason"`
	Message      chatMessage `json:"message"`
}

// NewFromEnv creates a client from the environment.
//
// LLM_PROVIDER selects the backend: "openai" (default, any
// OpenAI-compatible server), "gemini" (native REST), "ollama" or
// "googleai" (langchaingo). Key precedence for hosted providers:
// LLM_API_KEY > OPENAI_API_KEY > GEMINI_API_KEY > GOOGLE_API_KEY.
// Local hosts (localhost/127.0.0.1) and ollama allow an empty key,
// as does LLM_ALLOW_NO_KEY=true.
func NewFromEnv() (Client, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	if provider == "" {
		provider = "openai"
	}

	key := firstNonEmpty(
		os.Getenv("LLM_API_KEY"),
		os.Getenv("OPENAI_API_KEY"),
		os.Getenv("GEMINI_API_KEY"),
		os.Getenv("GOOGLE_API_KEY"),
	)
	model := strings.TrimSpace(os.Getenv("LLM_MODEL"))
	timeout := 60 * time.Second
	if v := strings.TrimSpace(os.Getenv("LLM_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		}
	}

	switch provider {
	case "ollama":
		return NewOllamaClient(os.Getenv("LLM_BASE_URL"), model)
	case "googleai":
		if key == "" {
			return nil, ErrLLMDisabled
		}
		return NewGoogleAIClient(context.Background(), key, model)
	case "gemini":
		if key == "" {
			return nil, ErrLLMDisabled
		}
		return NewGeminiClient(key, model, timeout), nil
	case "openai":
		base := firstNonEmpty(
			os.Getenv("LLM_BASE_URL"),
			os.Getenv("OPENAI_BASE_URL"),
		)
		if base == "" {
			base = "https://api.openai.com/v1"
		}
		base = normalizeBase(base)

		allowNoKey := strings.EqualFold(os.Getenv("LLM_ALLOW_NO_KEY"), "true") ||
			strings.Contains(base, "localhost") || strings.Contains(base, "127.0.0.1")
		if key == "" && !allowNoKey {
			return nil, ErrLLMDisabled
		}
		if model == "" {
			model = "gpt-4o-mini"
		}

		httpClient := &http.Client{Timeout: timeout}
		if strings.EqualFold(os.Getenv("LLM_DEBUG"), "true") {
			httpClient.Transport = &loggingRT{base: http.DefaultTransport}
		}
		return &OpenAIClient{
			BaseURL: strings.TrimRight(base, "/"),
			APIKey:  key,
			Model:   model,
			HTTP:    httpClient,
			Retry:   resilience.DefaultRetryConfig(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", provider)
	}
}

// Chat sends a synchronous chat.completions request. Transport
// failures and 5xx responses are retried; protocol errors are not.
func (c *OpenAIClient) Chat(ctx context.Context, system, user string) (string, error) {
	reqBody := chatReq{
		Model:       c.Model,
		Messages:    []chatMessage{{Role: "system", Content: system}, {Role: "user", Content: user}},
		MaxTokens:   512,
		Temperature: 0,
	}
	b, _ := json.Marshal(reqBody)
	endpoint := c.BaseURL + "/chat/completions"

	var result string
	call := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
		if err != nil {
			return resilience.Permanent{Err: err}
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if strings.TrimSpace(c.APIKey) != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
		}

		res, err := c.HTTP.Do(httpReq)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		body, _ := io.ReadAll(res.Body)
		if res.StatusCode >= 500 || res.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("llm: %d %s", res.StatusCode, strings.TrimSpace(string(body)))
		}

		var out chatResp
		if err := json.Unmarshal(body, &out); err != nil {
			return resilience.Permanent{Err: fmt.Errorf("llm decode failed: %w; raw=%s", err, strings.TrimSpace(string(body)))}
		}
		if out.Error != nil {
			return resilience.Permanent{Err: errors.New(strings.TrimSpace(out.Error.Message))}
		}
		if len(out.Choices) == 0 {
			return resilience.Permanent{Err: errors.New("llm: empty choices")}
		}
		result = strings.TrimSpace(out.Choices[0].Message.Content)
		return nil
	}

	if err := resilience.RetryWithConfig(ctx, c.Retry, call); err != nil {
		return "", err
	}
	return result, nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// normalizeBase adds /v1 for local OpenAI-compatible servers if necessary.
func normalizeBase(u string) string {
	s := strings.TrimRight(strings.TrimSpace(u), "/")
	if s == "" {
		return s
	}
	isLocal := strings.Contains(s, "localhost") || strings.Contains(s, "127.0.0.1")
	if isLocal {
		if !strings.HasSuffix(s, "/v1") && !strings.Contains(s, "/openai/v1") {
			s += "/v1"
		}
	}
	return s
}
