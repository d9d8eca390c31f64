package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/teemow/meetingsync/internal/instrumentation"
	"github.com/teemow/meetingsync/internal/logging"
	"github.com/teemow/meetingsync/internal/retry"
)

// maxErrorBody caps how much of a failed response is kept in an APIError.
const maxErrorBody = 4 << 10

// APIError is a non-2xx Graph response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph API returned %d: %s", e.StatusCode, e.Body)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Client is a Microsoft Graph client.
type Client struct {
	http    *http.Client
	baseURL string
	retrier *retry.Retrier
	metrics *instrumentation.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewClient creates a Client authenticated with the client credentials grant.
func NewClient(ctx context.Context, cfg Config, metrics *instrumentation.Metrics, logger *slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph config: %w", err)
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.tokenURL(),
		Scopes:       []string{DefaultScope},
	}
	return NewClientWithHTTPClient(cc.Client(ctx), cfg.baseURL(), cfg.Retry, metrics, logger), nil
}

// NewClientWithHTTPClient creates a Client using an already authenticated
// HTTP client.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string, policy retry.Policy, metrics *instrumentation.Metrics, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithService(logger, instrumentation.ServiceGraph)
	r := retry.New(policy, logger).OnRetry(func(op string, _ error) {
		metrics.RecordRetry(context.Background(), op)
	})
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		retrier: r,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// request describes one Graph call.
type request struct {
	op     string
	url    string
	accept string
	header map[string]string
}

// get performs a GET under the retry policy and returns the response body.
func (c *Client) get(ctx context.Context, req request) ([]byte, error) {
	return retry.Do(ctx, c.retrier, req.op, func() ([]byte, error) {
		return c.once(ctx, req)
	})
}

func (c *Client) once(ctx context.Context, req request) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.url, nil)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	accept := req.accept
	if accept == "" {
		accept = "application/json"
	}
	httpReq.Header.Set("Accept", accept)
	for k, v := range req.header {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
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
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
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

// collection is the envelope of every Graph list response.
type collection[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// list follows @odata.nextLink until the collection is exhausted.
func list[T any](ctx context.Context, c *Client, req request) ([]T, error) {
	var all []T
	for next := req.url; next != ""; {
		req.url = next
		body, err := c.get(ctx, req)
		if err != nil {
			return nil, err
		}
		var page collection[T]
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("failed to decode %s response: %w", req.op, err)
		}
		all = append(all, page.Value...)
		next = page.NextLink
	}
	return all, nil
}
