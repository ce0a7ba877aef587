package analysis

import (
	"context"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/observability"
)

const (
	maxAttempts  = 3
	initialDelay = 500 * time.Millisecond
)

// retryable marks errors worth another attempt (timeouts, 5xx, rate limits).
type retryable interface {
	Retryable() bool
}

// withRetry runs fn with bounded retries and exponential backoff, honoring
// the breaker and the context deadline.
func withRetry(ctx context.Context, service string, breaker *Breaker, fn func(context.Context) error) error {
	var lastErr error
	delay := initialDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if !breaker.Allow() {
			return ErrBreakerOpen
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			breaker.Success()
			return nil
		}
		breaker.Failure()

		if r, ok := lastErr.(retryable); !ok || !r.Retryable() {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}

		observability.ExternalCallRetries.WithLabelValues(service).Inc()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return lastErr
}
