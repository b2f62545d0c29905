package completion

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vimo-cloud/ragstore/internal/domain"
)

// fakeStream satisfies domain.CompletionStream without producing output.
type fakeStream struct{}

func (fakeStream) Recv() (string, error) { return "", io.EOF }
func (fakeStream) Close() error          { return nil }

// fakeCompleter counts open attempts and fails a configurable number of
// times before succeeding.
type fakeCompleter struct {
	openCalls int
	openFn    func(ctx context.Context, model string, messages []domain.Message) (domain.CompletionStream, error)
}

func (f *fakeCompleter) StreamCompletion(
	ctx context.Context, model string, messages []domain.Message,
) (domain.CompletionStream, error) {
	f.openCalls++
	if f.openFn != nil {
		return f.openFn(ctx, model, messages)
	}
	return fakeStream{}, nil
}

func TestRetryStream_SucceedsAfterFailures(t *testing.T) {
	inner := &fakeCompleter{}
	failures := 2
	inner.openFn = func(context.Context, string, []domain.Message) (domain.CompletionStream, error) {
		if failures > 0 {
			failures--
			return nil, errors.New("transient")
		}
		return fakeStream{}, nil
	}

	c := NewRetryCompleter(inner, 3, time.Millisecond, zap.NewNop())
	stream, err := c.StreamCompletion(context.Background(), "gpt-4o-mini", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stream == nil {
		t.Fatal("expected a stream")
	}
	if inner.openCalls != 3 {
		t.Errorf("inner called %d times, want 3", inner.openCalls)
	}
}

func TestRetryStream_GivesUpAfterAttempts(t *testing.T) {
	inner := &fakeCompleter{
		openFn: func(context.Context, string, []domain.Message) (domain.CompletionStream, error) {
			return nil, domain.ErrCompletionFailed
		},
	}

	c := NewRetryCompleter(inner, 2, time.Millisecond, zap.NewNop())
	_, err := c.StreamCompletion(context.Background(), "gpt-4o-mini", nil)
	if !errors.Is(err, domain.ErrCompletionFailed) {
		t.Fatalf("expected ErrCompletionFailed, got %v", err)
	}
	if inner.openCalls != 3 {
		t.Errorf("inner called %d times, want initial + 2 retries", inner.openCalls)
	}
}

func TestRetryStream_StopsOnCancel(t *testing.T) {
	inner := &fakeCompleter{
		openFn: func(context.Context, string, []domain.Message) (domain.CompletionStream, error) {
			return nil, errors.New("transient")
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewRetryCompleter(inner, 5, time.Minute, zap.NewNop())
	_, err := c.StreamCompletion(ctx, "gpt-4o-mini", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.openCalls != 1 {
		t.Errorf("inner called %d times, want 1 before the cancelled wait", inner.openCalls)
	}
}

func TestNewRetryCompleter_Defaults(t *testing.T) {
	c := NewRetryCompleter(&fakeCompleter{}, 0, 0, zap.NewNop())
	if c.attempts != DefaultRetryAttempts || c.baseDelay != DefaultRetryBaseDelay {
		t.Errorf("defaults not applied: attempts=%d delay=%v", c.attempts, c.baseDelay)
	}
}
