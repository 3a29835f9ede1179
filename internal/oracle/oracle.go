// Package oracle provides the reasoning-model client used for venue
// extraction, intent classification, and risk narration.
//
// The production client wraps langchaingo's OpenAI-compatible chat API, so a
// custom base URL can point it at any compatible gateway. Calls are rate
// limited and retried with exponential backoff.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// Default configuration values.
const (
	defaultModel       = "gpt-4o-mini"
	defaultTimeout     = 60 * time.Second
	defaultMaxRetries  = 3
	defaultBaseBackoff = 1 * time.Second
	defaultRateLimit   = 2.0
	defaultBurst       = 4
)

// ErrEmptyPrompt indicates a blank prompt was submitted.
var ErrEmptyPrompt = errors.New("empty prompt")

// Oracle produces a free-form completion for a prompt.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds settings for the production client.
type Config struct {
	// APIKey authenticates against the provider. Required.
	APIKey string
	// Model is the chat model name.
	Model string
	// BaseURL overrides the provider endpoint; empty uses the default.
	BaseURL string
	// Timeout bounds a single completion attempt.
	Timeout time.Duration
	// RequestsPerSecond caps the outbound call rate.
	RequestsPerSecond float64
	// MaxRetries bounds retry attempts after the first call.
	MaxRetries int
}

// Client is the production Oracle backed by a langchaingo chat model.
type Client struct {
	model      llms.Model
	timeout    time.Duration
	limiter    *rate.Limiter
	maxRetries int
}

var _ Oracle = (*Client)(nil)

// NewClient creates a client from config.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("oracle API key required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating chat client: %w", err)
	}

	return newClient(llm, cfg), nil
}

// newClient wires a client around any langchaingo model. Split out so tests
// can substitute a fake model.
func newClient(model llms.Model, cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRateLimit
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	return &Client{
		model:      model,
		timeout:    timeout,
		limiter:    rate.NewLimiter(rate.Limit(rps), defaultBurst),
		maxRetries: retries,
	}
}

// Complete sends the prompt and returns the raw completion text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter error: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		out, err := c.generate(ctx, prompt)
		if err == nil {
			return out, nil
		}

		lastErr = err
		// Cancellation is terminal; anything else from the transport is
		// worth another attempt.
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := llms.GenerateFromSinglePrompt(callCtx, c.model, prompt)
	if err != nil {
		return "", fmt.Errorf("generating completion: %w", err)
	}
	return out, nil
}
