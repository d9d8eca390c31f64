// Package retry provides the bounded retry policy shared by the HTTP adapters.
//
// A Policy caps a call by attempts and by wall-clock budget. Rate-limited
// responses may dictate their own wait through RetryAfter.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/teemow/meetingsync/internal/logging"
)

// Default policy values.
const (
	DefaultMaxAttempts = 5
	DefaultWait        = 10 * time.Second
	DefaultMaxElapsed  = 2 * time.Minute
)

// Policy bounds how often and for how long a call is retried.
type Policy struct {
	// MaxAttempts counts the first call. Values below 1 mean a single call.
	MaxAttempts int `yaml:"max_attempts"`
	// Wait is the fixed delay between attempts unless the server asks for
	// a different one.
	Wait time.Duration `yaml:"wait"`
	// MaxElapsed stops retrying once this much time has passed.
	MaxElapsed time.Duration `yaml:"max_elapsed"`
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Wait:        DefaultWait,
		MaxElapsed:  DefaultMaxElapsed,
	}
}

// Validate checks the policy for nonsensical values.
func (p Policy) Validate() error {
	if p.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must not be negative")
	}
	if p.Wait < 0 {
		return fmt.Errorf("wait must not be negative")
	}
	if p.MaxElapsed < 0 {
		return fmt.Errorf("max_elapsed must not be negative")
	}
	return nil
}

// Retrier executes operations under a Policy.
type Retrier struct {
	policy  Policy
	logger  *slog.Logger
	onRetry func(op string, err error)
}

// New creates a Retrier. A nil logger falls back to slog.Default().
func New(p Policy, logger *slog.Logger) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{policy: p, logger: logger}
}

// OnRetry registers a hook invoked before every retry wait.
func (r *Retrier) OnRetry(fn func(op string, err error)) *Retrier {
	r.onRetry = fn
	return r
}

// Policy returns the configured policy.
func (r *Retrier) Policy() Policy {
	return r.policy
}

// Do runs fn until it succeeds, returns a permanent error, or the policy is
// exhausted. The last error is returned unwrapped.
func Do[T any](ctx context.Context, r *Retrier, op string, fn func() (T, error)) (T, error) {
	p := r.policy
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	maxElapsed := p.MaxElapsed
	if maxElapsed <= 0 {
		maxElapsed = time.Duration(math.MaxInt64)
	}

	return backoff.Retry(ctx, fn,
		backoff.WithBackOff(backoff.NewConstantBackOff(p.Wait)),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(maxElapsed),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logging.WithOperation(r.logger, op).Warn("retrying after failure",
				slog.Duration("wait", wait),
				logging.Err(err))
			if r.onRetry != nil {
				r.onRetry(op, err)
			}
		}),
	)
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// RetryAfter marks err as retryable after the given delay, overriding the
// policy's fixed wait for this attempt.
func RetryAfter(wait time.Duration, err error) error {
	secs := int(math.Ceil(wait.Seconds()))
	if secs < 0 {
		secs = 0
	}
	return fmt.Errorf("%w (%w)", err, backoff.RetryAfter(secs))
}

// IsPermanent reports whether err was marked permanent.
func IsPermanent(err error) bool {
	var perm *backoff.PermanentError
	return errors.As(err, &perm)
}

// Retryable reports whether an HTTP status is worth retrying.
func Retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// WaitFromHeaders derives the server-requested delay from a rate-limited
// response. It understands Retry-After (seconds or HTTP date) and
// X-RateLimit-Reset (unix seconds). The second result is false when neither
// header yields a usable value.
func WaitFromHeaders(h http.Header, now time.Time) (time.Duration, bool) {
	if v := h.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second, true
		}
		if at, err := http.ParseTime(v); err == nil {
			return clampWait(at.Sub(now)), true
		}
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			return clampWait(time.Unix(unix, 0).Sub(now)), true
		}
	}
	return 0, false
}

func clampWait(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
