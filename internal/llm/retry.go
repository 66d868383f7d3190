package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty response from llm")

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, Truncate(e.Message, 200))
}

// StatusError is a non-retryable provider rejection such as a bad key.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm api status %d: %s", e.StatusCode, Truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// IsUpstream reports whether err came from the provider rather than from parsing.
func IsUpstream(err error) bool {
	var statusErr *StatusError
	return IsRetryable(err) || errors.As(err, &statusErr) || errors.Is(err, ErrEmptyResponse)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// RetryClient retries retryable provider errors with backoff. One call makes
// at most maxRetries+1 attempts.
type RetryClient struct {
	next       Client
	maxRetries int
	backoff    func(int) time.Duration
	log        *slog.Logger
}

func NewRetryClient(next Client, maxRetries int, log *slog.Logger) *RetryClient {
	if maxRetries < 0 {
		maxRetries = MaxRetries
	}
	return &RetryClient{next: next, maxRetries: maxRetries, backoff: Backoff, log: log}
}

func (c *RetryClient) Model() string { return c.next.Model() }

func (c *RetryClient) Complete(ctx context.Context, req Request) (string, error) {
	var text string
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		text, lastErr = c.next.Complete(ctx, req)
		if lastErr == nil || !IsRetryable(lastErr) {
			return text, lastErr
		}
		if attempt == c.maxRetries {
			break
		}
		c.log.Warn("retryable llm error", "stage", req.Stage, "attempt", attempt+1, "error", lastErr)
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
