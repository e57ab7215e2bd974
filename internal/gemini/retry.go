package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// RetryConfig configures the retry behavior for Gemini API calls.
type RetryConfig struct {
	MaxAttempts     int           // Total attempts including the first
	InitialInterval time.Duration // Initial backoff interval
	MaxInterval     time.Duration // Maximum backoff interval
}

// DefaultRetryConfig returns sensible defaults for LLM API calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// retryablePatterns groups error substrings by category.
// Matched case-insensitively against err.Error().
//
// NOTE: This uses string matching because the Gemini SDK does not expose
// typed/sentinel errors for transient failures. Re-evaluate if the SDK adds
// structured error types in a future version.
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "resource_exhausted", "429"}, // rate limiting
	{"500", "502", "503", "504", "unavailable", "overloaded"},     // transient server errors
	{"connection reset", "timeout", "temporary"},                  // network errors
}

// retryableError reports whether err is transient and should trigger a retry.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	for _, group := range retryablePatterns {
		if containsAny(errStr, group...) {
			return true
		}
	}
	return false
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}

// withRetry runs fn with the per-call timeout, rate limiting each attempt
// and backing off exponentially on retryable errors.
func (c *Client) withRetry(ctx context.Context, op string, timeout time.Duration, fn func(context.Context) error) error {
	var lastErr error
	delay := c.cfg.Retry.InitialInterval
	start := time.Now()

	for attempt := 1; attempt <= c.cfg.Retry.MaxAttempts; attempt++ {
		// Rate limit each attempt, retries included.
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limit wait: %w", err)
			}
		}

		err := func() error {
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return fn(callCtx)
		}()
		if err == nil {
			c.logger.Debug("gemini call succeeded",
				"op", op,
				"attempts", attempt,
				"elapsed", time.Since(start),
			)
			return nil
		}

		lastErr = err

		// Non-retryable error, fail immediately.
		if !retryableError(err) {
			return fmt.Errorf("%s: %w", op, err)
		}

		// Last attempt, don't sleep.
		if attempt == c.cfg.Retry.MaxAttempts {
			break
		}

		c.logger.Debug("retrying after error",
			"op", op,
			"attempt", attempt,
			"delay", delay,
			"elapsed", time.Since(start),
			"error", err,
		)

		select {
		case <-ctx.Done():
			return fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, c.cfg.Retry.MaxInterval)
		}
	}

	return fmt.Errorf("%s after %d attempts (elapsed: %v): %w",
		op, c.cfg.Retry.MaxAttempts, time.Since(start), lastErr)
}
