package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/maltedev/price-tracker/internal/config"
)

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

type unlockerRequest struct {
	Format string `json:"format"`
	URL    string `json:"url"`
	Zone   string `json:"zone"`
}

// UnlockerClient fetches pages through a web unlocker API that returns the
// target page's HTML as the response body.
type UnlockerClient struct {
	httpClient  *http.Client
	cfg         config.UnlockerConfig
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

func NewUnlockerClient(cfg config.UnlockerConfig, logger *slog.Logger) *UnlockerClient {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &UnlockerClient{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		cfg:         cfg,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		logger:      logger.With("component", "unlocker"),
	}
}

// Fetch returns the HTML of url. Transport errors, 429 and 5xx responses are
// retried up to MaxRetries times with a linearly growing delay.
func (c *UnlockerClient) Fetch(ctx context.Context, url string) (string, error) {
	body, err := json.Marshal(unlockerRequest{Format: "raw", URL: url, Zone: c.cfg.Zone})
	if err != nil {
		return "", fmt.Errorf("failed to marshal unlocker request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, time.Duration(attempt)*c.cfg.RetryDelay); err != nil {
				return "", err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		html, retry, err := c.do(ctx, body)
		if err == nil {
			c.logger.Debug("page fetched", "url", url, "bytes", len(html), "attempt", attempt+1)
			return html, nil
		}
		if !retry {
			return "", err
		}

		c.logger.Warn("unlocker request failed", "url", url, "attempt", attempt+1, "error", err)
		lastErr = err
	}

	return "", lastErr
}

// do performs one request. The bool reports whether a failure is worth
// retrying.
func (c *UnlockerClient) do(ctx context.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, ctx.Err()
		}
		return "", true, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("%w: reading body: %v", ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retry, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, truncate(string(data), maxErrorBody))
	}

	html := string(data)
	if strings.TrimSpace(html) == "" {
		return "", false, ErrEmptyBody
	}
	return html, false, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
