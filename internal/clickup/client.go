package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teemow/meetingsync/internal/instrumentation"
	"github.com/teemow/meetingsync/internal/logging"
	"github.com/teemow/meetingsync/internal/retry"
)

const maxErrorBody = 4 << 10

// APIError is a non-2xx ClickUp response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("clickup %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsRateLimited reports whether err is a throttled ClickUp response.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// Client implements the reconciliation engine's task tracker on ClickUp.
type Client struct {
	cfg     Config
	http    *http.Client
	baseURL string
	retrier *retry.Retrier
	metrics *instrumentation.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewClient creates a Client. A nil httpClient uses a client with a 30s
// timeout.
func NewClient(cfg Config, httpClient *http.Client, metrics *instrumentation.Metrics, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid clickup config: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithService(logger, instrumentation.ServiceClickUp)

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		baseURL: cfg.baseURL(),
		retrier: retry.New(cfg.Retry, logger).OnRetry(func(op string, _ error) {
			metrics.RecordRetry(context.Background(), op)
		}),
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// call performs one API request under the retry policy. in is encoded as
// the JSON body when non-nil; out receives the decoded response when non-nil.
func (c *Client) call(ctx context.Context, op, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
	}

	body, err := retry.Do(ctx, c.retrier, op, func() ([]byte, error) {
		return c.once(ctx, method, path, payload)
	})
	if err != nil {
		return err
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Authorization", c.cfg.Token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		return body, nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{
		Method:     method,
		Path:       strings.SplitN(path, "?", 2)[0],
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
	if !retry.Retryable(resp.StatusCode) {
		return nil, retry.Permanent(apiErr)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		if wait, ok := retry.WaitFromHeaders(resp.Header, c.now()); ok {
			return nil, retry.RetryAfter(wait, apiErr)
		}
	}
	return nil, apiErr
}
