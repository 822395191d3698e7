// internal/genai/client.go
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cypher-catalog/internal/common/config"
	commonhttp "cypher-catalog/internal/common/http"
)

var (
	ErrCredentialsMissing = errors.New("GENAI_CREDENTIALS_MISSING")
	ErrModelUnavailable   = errors.New("GENAI_MODEL_UNAVAILABLE")
	ErrModelTimeout       = errors.New("GENAI_MODEL_TIMEOUT")
)

// Options tune a single completion.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Completer is a black-box chat completion service.
type Completer interface {
	// Configured reports whether credentials are present. Callers check it before any call.
	Configured() bool
	Complete(ctx context.Context, system, user string, opts Options) (string, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type ChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client talks to an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	http    *commonhttp.Client
}

// NewClient builds a client. The per-call deadline comes from cfg.Timeout and is applied
// through the request context, so hc should not carry its own timeout.
func NewClient(cfg config.GenAIConfig, hc *commonhttp.Client) *Client {
	if hc == nil {
		hc = commonhttp.NewClient(0)
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		timeout: config.GetDuration(cfg.Timeout),
		http:    hc,
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) Complete(ctx context.Context, system, user string, opts Options) (string, error) {
	if !c.Configured() {
		return "", ErrCredentialsMissing
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := []Message{}
	if system != "" {
		messages = append(messages, Message{Role: "system", Content: system})
	}
	messages = append(messages, Message{Role: "user", Content: user})

	reqBody := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/chat/completions", map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	}, reqBody)
	if err != nil {
		return "", classify(ctx, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: api error (status %d): %s", ErrModelUnavailable, resp.StatusCode, truncate(string(bodyBytes), 200))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(bodyBytes, &chatResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrModelUnavailable, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: provider error: %s", ErrModelUnavailable, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty response", ErrModelUnavailable)
	}

	return chatResp.Choices[0].Message.Content, nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrModelTimeout, err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrModelTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ Completer = (*Client)(nil)
