// Package llm - Gemini native API client
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/autostream-x/autostream-agent/logger"
	"github.com/autostream-x/autostream-agent/resilience"
)

// GeminiClient implements the Client interface using Gemini's native
// REST API. https://ai.google.dev/api/rest
type GeminiClient struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    *http.Client

	log *logger.Logger
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role"` // "user" or "model"
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
	Error      *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason"`
}

// NewGeminiClient creates a new Gemini native API client
func NewGeminiClient(apiKey, model string, timeout time.Duration) *GeminiClient {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &GeminiClient{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: "https://generativelanguage.googleapis.com/v1beta",
		HTTP:    &http.Client{Timeout: timeout},
		log:     logger.Component("llm.gemini"),
	}
}

// Chat implements the Client interface. Gemini has no dedicated
// "system" role, so the system instruction is folded into the user
// message.
func (c *GeminiClient) Chat(ctx context.Context, system, user string) (string, error) {
	fullPrompt := user
	if strings.TrimSpace(system) != "" {
		fullPrompt = fmt.Sprintf("System Instructions: %s\n\nUser: %s", system, user)
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: fullPrompt}}},
		},
		GenerationConfig: &geminiGenConfig{
			Temperature:     0,
			MaxOutputTokens: 1024,
		},
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.BaseURL, c.Model, c.APIKey)

	var result string
	call := func() error {
		c.log.Debugf("request model=%s prompt_len=%d", c.Model, len(fullPrompt))
		httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
		if err != nil {
			return resilience.Permanent{Err: fmt.Errorf("gemini: create request: %w", err)}
		}
		httpReq.Header.Set("Content-Type", "application/json")

		res, err := c.HTTP.Do(httpReq)
		if err != nil {
			return fmt.Errorf("gemini: http request: %w", err)
		}
		defer res.Body.Close()

		body, _ := io.ReadAll(res.Body)
		if res.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("gemini: 429 rate limit: %s", strings.TrimSpace(string(body)))
		}
		if res.StatusCode/100 != 2 {
			err := fmt.Errorf("gemini: %d %s", res.StatusCode, strings.TrimSpace(string(body)))
			if res.StatusCode >= 500 {
				return err
			}
			return resilience.Permanent{Err: err}
		}

		var out geminiResponse
		if err := json.Unmarshal(body, &out); err != nil {
			return resilience.Permanent{Err: fmt.Errorf("gemini: decode failed: %w", err)}
		}
		if out.Error != nil {
			return resilience.Permanent{Err: fmt.Errorf("gemini: %d %s", out.Error.Code, out.Error.Message)}
		}
		if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
			return fmt.Errorf("gemini: empty candidates")
		}

		var sb strings.Builder
		for _, p := range out.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
		result = strings.TrimSpace(sb.String())
		return nil
	}

	if err := resilience.RetryWithConfig(ctx, resilience.DefaultRetryConfig(), call); err != nil {
		c.log.Error("gemini call failed", err)
		return "", err
	}
	return result, nil
}
