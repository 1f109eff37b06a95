package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// UpstreamError wraps a failure reported by an LLM vendor before or during
// a stream. StatusCode is zero for transport-level failures.
type UpstreamError struct {
	Provider   Provider
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// DeltaFunc receives incremental text as it arrives from the vendor.
// Returning an error aborts the stream.
type DeltaFunc func(delta string) error

// Config holds per-provider generation defaults
type Config struct {
	OpenAIModel    string
	AnthropicModel string
	Timeout        time.Duration
}

// Client issues streaming chat-completion requests against the vendor
// selected by the tenant's API key shape
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewClient creates a new LLM client
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}
	if cfg.AnthropicModel == "" {
		cfg.AnthropicModel = "claude-3-5-sonnet-20240620"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.WithField("component", "llm"),
	}
}

// StreamChat selects the provider for apiKey, opens a streaming completion
// with the full message list and forwards each text delta to onDelta.
// It returns only after the vendor stream ends or fails; no retry is
// attempted. Context cancellation aborts the vendor request.
func (c *Client) StreamChat(ctx context.Context, apiKey string, messages []Message, onDelta DeltaFunc) error {
	provider, err := DetectProvider(apiKey)
	if err != nil {
		return err
	}

	switch provider {
	case ProviderAnthropic:
		return c.streamAnthropic(ctx, apiKey, messages, onDelta)
	default:
		return c.streamOpenAI(ctx, apiKey, messages, onDelta)
	}
}

// drainError turns a non-200 vendor response into an UpstreamError
func drainError(provider Provider, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &UpstreamError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}
}
