// Package completion decorates a completion provider with retry.
package completion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vimo-cloud/ragstore/internal/domain"
)

const (
	// DefaultRetryAttempts is how many times a failed stream open is
	// retried.
	DefaultRetryAttempts = 3
	// DefaultRetryBaseDelay is the first backoff interval; it doubles per
	// attempt.
	DefaultRetryBaseDelay = 200 * time.Millisecond
)

// RetryCompleter retries failed stream opens with exponential backoff.
// Only the open is retried: once deltas have been handed to the caller a
// replay could duplicate output, so mid-stream errors propagate as-is.
// Context cancellation stops the retry loop immediately.
type RetryCompleter struct {
	inner     domain.Completer
	attempts  int
	baseDelay time.Duration
	logger    *zap.Logger
}

// NewRetryCompleter wraps a completer with retry. attempts <= 0 falls back
// to the default.
func NewRetryCompleter(inner domain.Completer, attempts int, baseDelay time.Duration, logger *zap.Logger) *RetryCompleter {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultRetryBaseDelay
	}
	return &RetryCompleter{inner: inner, attempts: attempts, baseDelay: baseDelay, logger: logger}
}

// StreamCompletion retries the inner open until it succeeds or attempts are
// exhausted.
func (r *RetryCompleter) StreamCompletion(
	ctx context.Context, model string, messages []domain.Message,
) (domain.CompletionStream, error) {
	var lastErr error
	for attempt := 0; attempt <= r.attempts; attempt++ {
		if attempt > 0 {
			if err := r.wait(ctx, attempt); err != nil {
				return nil, err
			}
			r.logger.Warn("Retrying completion request",
				zap.Int("attempt", attempt),
				zap.String("model", model),
				zap.Error(lastErr),
			)
		}

		stream, err := r.inner.StreamCompletion(ctx, model, messages)
		if err == nil {
			return stream, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("open completion stream after %d retries: %w", r.attempts, lastErr)
}

// wait sleeps for the backoff interval of the given attempt.
func (r *RetryCompleter) wait(ctx context.Context, attempt int) error {
	delay := r.baseDelay << (attempt - 1)
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
