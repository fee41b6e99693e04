package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhdb/internal/config"
)

func testScraperConfig() config.ScraperConfig {
	cfg := config.Default().Scraper
	cfg.Retry.MaxAttempts = 3
	cfg.Retry.InitialDelayMs = 1
	cfg.Retry.MaxDelayMs = 5
	cfg.Retry.TimeoutSec = 2

	return cfg
}

func TestScraper_Fetch_OK(t *testing.T) {
	var userAgent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	res, err := NewScraper(testScraperConfig()).Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "<html><body>ok</body></html>", string(res.Body))
	assert.Contains(t, userAgent, "Mozilla/5.0")
}

func TestScraper_Fetch_RetriesRetryableStatus(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		_, _ = w.Write([]byte("recovered"))
	}))
	defer server.Close()

	res, err := NewScraper(testScraperConfig()).Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, "recovered", string(res.Body))
}

func TestScraper_Fetch_NonRetryableStatus(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	res, err := NewScraper(testScraperConfig()).Fetch(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrUnexpectedStatusCode)

	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.EqualValues(t, 1, calls.Load())
}

func TestScraper_Fetch_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	res, err := NewScraper(testScraperConfig()).Fetch(context.Background(), url)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "attempt 3/3")
	assert.Equal(t, 3, res.Attempts)
}

func TestScraper_Fetch_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScraper(testScraperConfig()).Fetch(ctx, server.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScraper_Fetch_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 3000)))
	}))
	defer server.Close()

	cfg := testScraperConfig()
	cfg.BufferSizeKb = 1

	res, err := NewScraper(cfg).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, res.Body, 1024)
}

func TestIsRetryableStatus(t *testing.T) {
	for _, code := range []int{408, 429, 503, 504} {
		assert.True(t, isRetryableStatus(code), code)
	}

	for _, code := range []int{200, 301, 400, 403, 404, 500} {
		assert.False(t, isRetryableStatus(code), code)
	}
}
