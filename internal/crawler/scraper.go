// Package crawler fetches institution pages and turns them into resource records.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"mhdb/internal/config"
)

// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// Fetcher returns the body of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// FetchResult describes a completed page fetch.
type FetchResult struct {
	Body       []byte
	StatusCode int
	Attempts   int
	Duration   time.Duration
}

var _ Fetcher = (*Scraper)(nil)

// Scraper fetches pages over HTTP with config-driven retry logic.
type Scraper struct {
	client       *resty.Client
	retryPolicy  *config.RetryPolicy
	bufferSizeKb int
}

// NewScraper creates a scraper from the scraper settings.
func NewScraper(cfg config.ScraperConfig) *Scraper {
	client := resty.New().
		SetTimeout(cfg.Retry.GetTimeout()).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	retry := cfg.Retry

	return &Scraper{
		client:       client,
		retryPolicy:  &retry,
		bufferSizeKb: cfg.BufferSizeKb,
	}
}

// Fetch downloads url, retrying transport failures and retryable statuses.
func (s *Scraper) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	var lastErr error

	result := &FetchResult{}
	start := time.Now()

	for attempt := 1; attempt <= s.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, s.retryPolicy.GetRetryDelay(attempt)); err != nil {
				return nil, err
			}
		}

		result.Attempts = attempt

		body, status, err := s.get(ctx, url)
		result.StatusCode = status
		result.Duration = time.Since(start)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, s.retryPolicy.MaxAttempts, err)

			continue
		}

		if status != http.StatusOK {
			lastErr = fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, status)

			// Only retry on specific status codes
			if !isRetryableStatus(status) {
				break
			}

			continue
		}

		result.Body = body

		return result, nil
	}

	return result, lastErr
}

func (s *Scraper) get(ctx context.Context, url string) ([]byte, int, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, 0, err
	}

	raw := resp.RawBody()
	defer raw.Close()

	// bufferSizeKb is in KB, convert to bytes
	limit := int64(s.bufferSizeKb) * 1024

	body, err := io.ReadAll(io.LimitReader(raw, limit))
	if err != nil {
		return nil, resp.StatusCode(), fmt.Errorf("failed to read response body: %w", err)
	}

	return body, resp.StatusCode(), nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	// Retry on temporary failures
	switch statusCode {
	case http.StatusServiceUnavailable: // 503
		return true
	case http.StatusGatewayTimeout: // 504
		return true
	case http.StatusTooManyRequests: // 429
		return true
	case http.StatusRequestTimeout: // 408
		return true
	}

	return false
}
