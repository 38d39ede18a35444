package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aman-zulfiqar/wmgr/internal/metrics"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var errRateLimited = errors.New("rate limited (429)")

// Client is an HTTP client with retry, timeout and client-side rate
// limiting for Solana JSON-RPC
type Client struct {
	httpClient   *http.Client
	baseURL      string
	maxRetries   int
	retryBackoff time.Duration
	commitment   Commitment
	limiter      *rate.Limiter
	metrics      *metrics.Metrics
	logger       *logrus.Logger
}

// ClientConfig holds configuration for the RPC client
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Commitment used for reads and confirmation. Defaults to confirmed.
	Commitment Commitment

	// RequestsPerSecond caps outgoing requests; zero disables the limiter.
	RequestsPerSecond float64
	Burst             int

	Metrics *metrics.Metrics
	Logger  *logrus.Logger
}

// NewClient creates a new RPC client with retry support
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.Commitment == "" {
		cfg.Commitment = CommitmentConfirmed
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:      cfg.BaseURL,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		commitment:   cfg.Commitment,
		limiter:      limiter,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
}

func (c *Client) URL() string            { return c.baseURL }
func (c *Client) Commitment() Commitment { return c.commitment }

// Call makes a JSON-RPC call with retry logic. Transport failures and 429s
// are retried; a JSON-RPC error inside a 200 response is left to the caller.
func (c *Client) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	start := time.Now()
	err := c.call(ctx, method, params, result)

	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordRPCCall(method, status, time.Since(start))
	return err
}

func (c *Client) call(ctx context.Context, method string, params interface{}, result interface{}) error {
	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"method":  method,
				"error":   lastErr,
			}).Debug("retrying RPC call")
			c.metrics.RecordRPCRetry(method)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2 // exponential backoff
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
		}

		resp, err := c.doRequest(ctx, data)
		if err != nil {
			if errors.Is(err, errRateLimited) {
				c.metrics.RecordRateLimitHit()
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			continue
		}

		if err := json.Unmarshal(resp, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}

		return nil
	}

	return fmt.Errorf("%s: max retries exceeded: %w", method, lastErr)
}

func (c *Client) doRequest(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errRateLimited
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}
