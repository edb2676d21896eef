// Package perplexity talks to a Perplexity-compatible chat-completion
// endpoint. Every failure mode of a request is classified and mapped to a
// fixed user-displayable string; no error ever escapes Respond.
package perplexity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finchat/internal/core"
	"finchat/internal/prompt"
)

const (
	DefaultBaseURL = "https://api.perplexity.ai/chat/completions"
	DefaultModel   = "sonar"
	DefaultTimeout = 120 * time.Second

	defaultTemperature = 0.7
	defaultMaxTokens   = 1000

	// maxErrorBodyBytes bounds how much of a failed response body is logged.
	maxErrorBodyBytes = 4 << 10
)

// ErrMissingCredentials is returned by complete when no API key is set.
// Respond maps it to MsgMissingCredentials without touching the network.
var ErrMissingCredentials = errors.New("perplexity: API key not set")

// APIError is a non-200 response from the completion endpoint.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("perplexity: API error (status %d)", e.Status)
}

// User-facing replies for each failure classification. These are the exact
// strings surfaced in the chat; diagnostics go to the log channel only.
const (
	MsgMissingCredentials = "Error: Perplexity API key not initialized. Please check your API key configuration."

	MsgAPIError = `I'm sorry, I couldn't process your question at this time due to a connection issue.

Please try one of these options:
1. Break your question into smaller, simpler parts
2. Try again in a few minutes (the service might be temporarily busy)
3. Ask a different question about your financial data`

	MsgTimeout = `The financial analysis is taking longer than expected. To get a response more quickly:

1. Try asking a simpler question
2. Break your question into smaller parts
3. Specifically mention which part of your financial data you're interested in

For example, instead of asking about multiple scenarios, focus on one specific aspect of your finances.`

	MsgConnectionError = "I'm sorry, I couldn't connect to the financial analysis service. Please check your internet connection and try again."

	MsgUnexpectedError = "I'm sorry, an unexpected error occurred while analyzing your financial data. Please try again with a different question."
)

// Config configures a Client. Zero values fall back to the package defaults;
// only APIKey has no default.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client issues one synchronous completion request per user query. It holds
// no mutable state and is safe for reuse across a session.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	httpc       *http.Client
}

func New(cfg Config) *Client {
	c := &Client{
		apiKey:      strings.TrimSpace(cfg.APIKey),
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.temperature == 0 {
		c.temperature = defaultTemperature
	}
	if c.maxTokens == 0 {
		c.maxTokens = defaultMaxTokens
	}
	if c.timeout == 0 {
		c.timeout = DefaultTimeout
	}
	c.httpc = &http.Client{Timeout: c.timeout}
	return c
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
}

// Respond sends the user query plus prior turns against the fixed financial
// context and returns the assistant reply. Every failure is classified and
// returned as a pre-written user-readable string; the caller never sees an
// error value. Exactly one attempt is made per call.
func (c *Client) Respond(ctx context.Context, contextText, query string, history []core.Turn) string {
	reply, err := c.complete(ctx, contextText, query, history)
	if err == nil {
		return reply
	}

	switch {
	case errors.Is(err, ErrMissingCredentials):
		return MsgMissingCredentials
	case isAPIError(err):
		var apiErr *APIError
		errors.As(err, &apiErr)
		slog.ErrorContext(ctx, "Completion API error",
			"status", apiErr.Status,
			"body", apiErr.Body)
		return MsgAPIError
	case isTimeout(err):
		slog.WarnContext(ctx, "Completion request timed out",
			"timeout", c.timeout,
			"error", err)
		return MsgTimeout
	case isConnectionError(err):
		slog.ErrorContext(ctx, "Completion request failed to connect", "error", err)
		return MsgConnectionError
	default:
		slog.ErrorContext(ctx, "Unexpected completion failure", "error", err)
		return MsgUnexpectedError
	}
}

// complete performs the single request/response exchange. It returns typed
// errors for Respond to classify; tests exercise it directly.
func (c *Client) complete(ctx context.Context, contextText, query string, history []core.Turn) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingCredentials
	}

	msgs := make([]message, 0, len(history)+2)
	msgs = append(msgs, message{Role: string(core.RoleSystem), Content: prompt.SystemPrompt(contextText)})
	for _, turn := range history {
		msgs = append(msgs, message{Role: string(turn.Role), Content: turn.Content})
	}
	msgs = append(msgs, message{Role: string(core.RoleUser), Content: query})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", &APIError{Status: resp.StatusCode, Body: string(detail)}
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("perplexity: no choices in response")
	}
	return out.Choices[0].Message.Content, nil
}

func isAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// isConnectionError covers transport failures that never produced a response:
// DNS, dial and TLS errors all surface as a *url.Error from http.Client.Do.
func isConnectionError(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
