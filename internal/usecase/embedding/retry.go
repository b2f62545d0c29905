package embedding

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vimo-cloud/ragstore/internal/domain"
)

const (
	// DefaultRetryAttempts is how many times a failed call is retried.
	DefaultRetryAttempts = 3
	// DefaultRetryBaseDelay is the first backoff interval; it doubles per
	// attempt.
	DefaultRetryBaseDelay = 200 * time.Millisecond
)

// RetryEmbedder retries failed embedding calls with exponential backoff.
// Context cancellation stops the retry loop immediately.
type RetryEmbedder struct {
	inner     domain.Embedder
	attempts  int
	baseDelay time.Duration
	logger    *zap.Logger
}

// NewRetryEmbedder wraps an embedder with retry. attempts <= 0 falls back to
// the default.
func NewRetryEmbedder(inner domain.Embedder, attempts int, baseDelay time.Duration, logger *zap.Logger) *RetryEmbedder {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultRetryBaseDelay
	}
	return &RetryEmbedder{inner: inner, attempts: attempts, baseDelay: baseDelay, logger: logger}
}

// Embed retries the inner call until it succeeds or attempts are exhausted.
func (r *RetryEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	var lastErr error
	for attempt := 0; attempt <= r.attempts; attempt++ {
		if attempt > 0 {
			if err := r.wait(ctx, attempt); err != nil {
				return domain.EmbeddingResult{}, err
			}
			r.logger.Warn("Retrying embedding request",
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
		}

		result, err := r.inner.Embed(ctx, text)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return domain.EmbeddingResult{}, fmt.Errorf("embed after %d retries: %w", r.attempts, lastErr)
}

// BatchEmbed retries the whole batch; partial results are never kept.
func (r *RetryEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var lastErr error
	for attempt := 0; attempt <= r.attempts; attempt++ {
		if attempt > 0 {
			if err := r.wait(ctx, attempt); err != nil {
				return domain.BatchEmbeddingResult{}, err
			}
			r.logger.Warn("Retrying batch embedding request",
				zap.Int("attempt", attempt),
				zap.Int("batch_size", len(texts)),
				zap.Error(lastErr),
			)
		}

		result, err := r.batchInner(ctx, texts)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return domain.BatchEmbeddingResult{}, fmt.Errorf("batch embed after %d retries: %w", r.attempts, lastErr)
}

func (r *RetryEmbedder) batchInner(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if be, ok := r.inner.(domain.BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts)
	}
	return domain.BatchFallback(ctx, r.inner, texts)
}

// wait sleeps for the backoff interval of the given attempt.
func (r *RetryEmbedder) wait(ctx context.Context, attempt int) error {
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

// HealthCheck delegates to the inner embedder when it supports probing.
func (r *RetryEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := r.inner.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("inner health check: %w", err)
		}
	}
	return nil
}
