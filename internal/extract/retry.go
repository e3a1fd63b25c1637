package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// RetryConfig holds retry configuration for API calls.
type RetryConfig struct {
	MaxRetries        int           // Maximum number of retries (default: 3)
	InitialBackoff    time.Duration // Initial backoff duration (default: 1s)
	MaxBackoff        time.Duration // Maximum backoff duration (default: 30s)
	BackoffMultiplier float64       // Backoff multiplier (default: 2.0)
	Timeout           time.Duration // Per-request timeout (default: 60s)

	// MaxConcurrentCalls caps in-flight API calls across goroutines when
	// capturing several notes at once (default: 3, 0 = unlimited).
	MaxConcurrentCalls int

	// RequestsPerMinute throttles the call rate (default: 30, 0 = unlimited).
	RequestsPerMinute int
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:         3,
		InitialBackoff:     1 * time.Second,
		MaxBackoff:         30 * time.Second,
		BackoffMultiplier:  2.0,
		Timeout:            60 * time.Second,
		MaxConcurrentCalls: 3,
		RequestsPerMinute:  30,
	}
}

// retryWithBackoff executes an operation with retry and exponential backoff.
// Non-retriable errors (auth failures, bad requests) return immediately.
func (e *Extractor) retryWithBackoff(ctx context.Context, operation string, fn func(context.Context) error) error {
	if e.concurrencySem != nil {
		if err := e.concurrencySem.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("failed to acquire concurrency slot for %s: %w", operation, err)
		}
		defer e.concurrencySem.Release(1)
	}

	var lastErr error
	backoff := e.retry.InitialBackoff

	for attempt := 0; attempt <= e.retry.MaxRetries; attempt++ {
		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("%s failed: %w", operation, err)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, e.retry.Timeout)
		err := fn(attemptCtx)
		cancel()

		if err == nil {
			if attempt > 0 {
				fmt.Fprintf(os.Stderr, "extraction %s succeeded after %d retries\n", operation, attempt)
			}
			return nil
		}
		lastErr = err

		if !isRetriableError(err) {
			return err
		}
		if attempt == e.retry.MaxRetries {
			break
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s failed: context canceled: %w", operation, ctx.Err())
		}

		fmt.Fprintf(os.Stderr, "extraction %s failed (attempt %d/%d), retrying in %v: %v\n",
			operation, attempt+1, e.retry.MaxRetries+1, backoff, err)

		select {
		case <-time.After(backoff):
			backoff = time.Duration(float64(backoff) * e.retry.BackoffMultiplier)
			if backoff > e.retry.MaxBackoff {
				backoff = e.retry.MaxBackoff
			}
		case <-ctx.Done():
			return fmt.Errorf("%s failed: context canceled during backoff: %w", operation, ctx.Err())
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operation, e.retry.MaxRetries+1, lastErr)
}

// isRetriableError determines if an error is transient. Rate limits,
// server errors, and network failures are retriable; other client errors
// indicate requests that will not succeed on retry.
func isRetriableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "429") || strings.Contains(errStr, "rate limit") {
		return true
	}
	if strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "504") ||
		strings.Contains(errStr, "internal server error") ||
		strings.Contains(errStr, "bad gateway") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "gateway timeout") {
		return true
	}
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "network") {
		return true
	}
	return false
}
