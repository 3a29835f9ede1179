// Package websearch provides the web-search client used by venue discovery
// and risk assessment.
//
// The production client talks to a serper.dev-compatible JSON API. Requests
// are rate limited and retried with exponential backoff on transport and
// server errors.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Default configuration values.
const (
	defaultBaseURL     = "https://google.serper.dev"
	defaultTimeout     = 15 * time.Second
	defaultMaxRetries  = 3
	defaultBaseBackoff = 500 * time.Millisecond
	defaultRateLimit   = 5.0
	defaultBurst       = 5
	defaultMaxResults  = 5
)

// ErrEmptyQuery indicates a blank search query.
var ErrEmptyQuery = errors.New("empty query")

// Searcher runs a web search and returns a plain-text digest of the results,
// suitable for inclusion in a reasoning prompt. An empty digest with a nil
// error means the search ran but found nothing.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Config holds settings for the search client.
type Config struct {
	// APIKey authenticates against the search API. Required.
	APIKey string
	// BaseURL is the API endpoint; empty uses the serper.dev default.
	BaseURL string
	// Timeout bounds a single HTTP request.
	Timeout time.Duration
	// RequestsPerSecond caps the outbound call rate.
	RequestsPerSecond float64
	// MaxRetries bounds retry attempts after the first call.
	MaxRetries int
	// MaxResults caps how many organic results are returned per query.
	MaxResults int
}

// Client is the production Searcher.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	maxResults int
}

var _ Searcher = (*Client)(nil)

// NewClient creates a search client from config.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("search API key required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
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
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), defaultBurst),
		maxRetries: retries,
		maxResults: maxResults,
	}, nil
}

// searchRequest is the serper.dev request body.
type searchRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

// searchResponse is the subset of the serper.dev response we consume.
type searchResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
	AnswerBox struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answerBox"`
}

// Search runs one query and returns a newline-separated digest of results.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", ErrEmptyQuery
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

		digest, err := c.doRequest(ctx, query)
		if err == nil {
			return digest, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(searchRequest{Query: query, Num: c.maxResults})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &retryableError{err: fmt.Errorf("search request failed: %w", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &retryableError{err: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &retryableError{err: fmt.Errorf("rate limited (429)")}
	}
	if resp.StatusCode >= 500 {
		return "", &retryableError{err: fmt.Errorf("server error (%d): %s", resp.StatusCode, string(raw))}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search API error (%d): %s", resp.StatusCode, string(raw))
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	return formatDigest(parsed, c.maxResults), nil
}

// formatDigest renders results as plain text for prompt inclusion.
func formatDigest(resp searchResponse, limit int) string {
	var b strings.Builder

	if resp.AnswerBox.Answer != "" {
		b.WriteString(resp.AnswerBox.Answer)
		b.WriteString("\n")
	} else if resp.AnswerBox.Snippet != "" {
		b.WriteString(resp.AnswerBox.Snippet)
		b.WriteString("\n")
	}

	for i, r := range resp.Organic {
		if i >= limit {
			break
		}
		b.WriteString(r.Title)
		if r.Snippet != "" {
			b.WriteString(": ")
			b.WriteString(r.Snippet)
		}
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}

// retryableError wraps an error to indicate it can be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryableError checks if an error should be retried.
func isRetryableError(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
