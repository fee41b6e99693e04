// Package payload maps catalogue records to the store's schema and reconciles them with the store API.
package payload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"mhdb/internal/logger"
	"mhdb/internal/metrics"
	"mhdb/pkg/utils"
)

// APIKeyHeader carries the store API key.
const APIKeyHeader = "X-Api-Key"

const (
	collegesPath      = "/colleges"
	bulkPath          = "/colleges/bulk"
	maxErrorBodyRunes = 200
)

// Store errors.
var (
	ErrStoreUnreachable = errors.New("store unreachable")
	ErrInvalidResponse  = errors.New("invalid store response")
)

// StoreError is a non-2xx reply from the store.
type StoreError struct {
	Message    string
	Body       string
	StatusCode int
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store returned %d: %s", e.StatusCode, e.Message)
}

// Client defines the store operations the pipeline relies on.
type Client interface {
	HealthCheck(ctx context.Context) bool
	BulkUpsert(ctx context.Context, colleges []CollegePayload) (*BulkResult, error)
	ListAll(ctx context.Context) ([]StoredCollege, error)
}

// Ensure StoreClient implements Client.
var _ Client = (*StoreClient)(nil)

// StoreClient talks to the store's REST API.
type StoreClient struct {
	client        *resty.Client
	logger        *logger.Logger
	metrics       *metrics.Recorder
	healthTimeout time.Duration
}

// StoreOptions configures a StoreClient.
type StoreOptions struct {
	Logger        *logger.Logger
	Metrics       *metrics.Recorder
	BaseURL       string
	APIKey        string
	HealthTimeout time.Duration
}

// NewStoreClient creates a store client. Requests carry the API key when one is set.
func NewStoreClient(opts StoreOptions) *StoreClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetHeader("Accept", "application/json")

	if opts.APIKey != "" {
		client.SetHeader(APIKeyHeader, opts.APIKey)
	}

	timeout := opts.HealthTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &StoreClient{
		client:        client,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		healthTimeout: timeout,
	}
}

// HealthCheck reports whether the read endpoint answers 200 within the health timeout.
func (c *StoreClient) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	resp, err := c.client.R().SetContext(ctx).Get(collegesPath)
	if err != nil {
		c.record("health", 0)

		if c.logger != nil {
			c.logger.Debug("store health check failed", "error", err)
		}

		return false
	}

	c.record("health", resp.StatusCode())

	return resp.StatusCode() == http.StatusOK
}

// BulkUpsert submits colleges for upsert by name.
func (c *StoreClient) BulkUpsert(ctx context.Context, colleges []CollegePayload) (*BulkResult, error) {
	if colleges == nil {
		colleges = []CollegePayload{}
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(colleges).
		Post(bulkPath)
	if err != nil {
		c.record("bulk_upsert", 0)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnreachable, err)
	}

	c.record("bulk_upsert", resp.StatusCode())

	if !resp.IsSuccess() {
		return nil, newStoreError(resp.StatusCode(), resp.Body())
	}

	var result BulkResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	return &result, nil
}

// ListAll returns the store's full snapshot.
func (c *StoreClient) ListAll(ctx context.Context) ([]StoredCollege, error) {
	resp, err := c.client.R().SetContext(ctx).Get(collegesPath)
	if err != nil {
		c.record("list", 0)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnreachable, err)
	}

	c.record("list", resp.StatusCode())

	if !resp.IsSuccess() {
		return nil, newStoreError(resp.StatusCode(), resp.Body())
	}

	var colleges []StoredCollege
	if err := json.Unmarshal(resp.Body(), &colleges); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	return colleges, nil
}

func (c *StoreClient) record(op string, code int) {
	if c.metrics != nil {
		c.metrics.StoreRequest(op, code)
	}
}

// newStoreError prefers the message or detail field of a JSON body and
// falls back to the start of the raw text.
func newStoreError(status int, body []byte) *StoreError {
	text := strings.TrimSpace(string(body))

	var parsed struct {
		Message string `json:"message"`
		Detail  any    `json:"detail"`
	}

	msg := ""
	if err := json.Unmarshal(body, &parsed); err == nil {
		switch {
		case parsed.Message != "":
			msg = parsed.Message
		case parsed.Detail != nil:
			msg = detailString(parsed.Detail)
		}
	}

	if msg == "" {
		msg = utils.Truncate(text, maxErrorBodyRunes)
	}

	if msg == "" {
		msg = http.StatusText(status)
	}

	return &StoreError{StatusCode: status, Message: msg, Body: text}
}

func detailString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}

	return string(data)
}
