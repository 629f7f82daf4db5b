package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/scanlens/backend/internal/domain"
)

const (
	maxAttempts     = 3
	maxResponseBody = 2 << 20
	userAgent       = "ScanLens/1.0"
)

// ClientConfig holds the transport settings shared by every adapter
type ClientConfig struct {
	Timeout time.Duration
	// RatePerSecond is the sustained request rate; zero disables limiting
	RatePerSecond float64
	Burst         int
}

// client is the HTTP transport under each provider adapter
type client struct {
	name        string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	debug       bool
}

func newClient(name string, cfg ClientConfig) *client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}
	return &client{
		name:        name,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(limit, burst),
	}
}

// SetDebug enables verbose request logging
func (c *client) SetDebug(debug bool) {
	c.debug = debug
}

func (c *client) debugLog(format string, args ...interface{}) {
	if c.debug {
		log.Printf("[%s] "+format, append([]interface{}{c.name}, args...)...)
	}
}

// exponentialBackoff returns the wait before retrying after attempt
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// getJSON issues a GET and decodes a 200 response into dst. It returns
// found=false on 404, retries 429 and 5xx, and gives up on other statuses.
func (c *client) getJSON(ctx context.Context, reqURL string, headers map[string]string, dst interface{}) (found bool, err error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return false, fmt.Errorf("rate limiter error: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return false, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		c.debugLog("GET %s (attempt %d)", redact(req), attempt)
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			log.Printf("[%s] Request error (attempt %d): %v", c.name, attempt, err)
			lastErr = fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
			if err := sleep(ctx, exponentialBackoff(attempt)); err != nil {
				return false, err
			}
			continue
		}

		body, readErr := readLimitedBody(resp.Body, maxResponseBody)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return false, fmt.Errorf("%w: reading body: %v", domain.ErrProviderFailure, readErr)
			}
			if err := json.Unmarshal(body, dst); err != nil {
				return false, fmt.Errorf("failed to decode response: %w", err)
			}
			return true, nil
		case resp.StatusCode == http.StatusNotFound:
			c.debugLog("not found")
			return false, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			log.Printf("[%s] API error (attempt %d) - Status: %d", c.name, attempt, resp.StatusCode)
			lastErr = fmt.Errorf("%w: status %d", domain.ErrProviderFailure, resp.StatusCode)
			if err := sleep(ctx, exponentialBackoff(attempt)); err != nil {
				return false, err
			}
		default:
			c.debugLog("status %d body %s", resp.StatusCode, string(body))
			return false, fmt.Errorf("%w: status %d", domain.ErrProviderFailure, resp.StatusCode)
		}
	}

	log.Printf("[%s] All retries failed", c.name)
	return false, lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// redact strips the key query parameter before a URL reaches the logs
func redact(req *http.Request) string {
	u := *req.URL
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
