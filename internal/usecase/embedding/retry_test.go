package embedding

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vimo-cloud/ragstore/internal/domain"
)

func TestRetryEmbed_SucceedsAfterFailures(t *testing.T) {
	inner := &fakeEmbedder{
		embedFn: func(context.Context, string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{Embedding: []float32{1}}, nil
		},
	}
	failures := 2
	base := inner.embedFn
	inner.embedFn = func(ctx context.Context, text string) (domain.EmbeddingResult, error) {
		if failures > 0 {
			failures--
			return domain.EmbeddingResult{}, errors.New("transient")
		}
		return base(ctx, text)
	}

	emb := NewRetryEmbedder(inner, 3, time.Millisecond, zap.NewNop())
	res, err := emb.Embed(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embedding) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if inner.embedCalls != 3 {
		t.Errorf("inner called %d times, want 3", inner.embedCalls)
	}
}

func TestRetryEmbed_GivesUpAfterAttempts(t *testing.T) {
	inner := &fakeEmbedder{
		embedFn: func(context.Context, string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{}, domain.ErrEmbeddingFailed
		},
	}

	emb := NewRetryEmbedder(inner, 2, time.Millisecond, zap.NewNop())
	_, err := emb.Embed(context.Background(), "q")
	if !errors.Is(err, domain.ErrEmbeddingFailed) {
		t.Fatalf("expected ErrEmbeddingFailed, got %v", err)
	}
	if inner.embedCalls != 3 {
		t.Errorf("inner called %d times, want initial + 2 retries", inner.embedCalls)
	}
}

func TestRetryEmbed_StopsOnCancel(t *testing.T) {
	inner := &fakeEmbedder{
		embedFn: func(context.Context, string) (domain.EmbeddingResult, error) {
			return domain.EmbeddingResult{}, errors.New("transient")
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	emb := NewRetryEmbedder(inner, 5, time.Minute, zap.NewNop())
	_, err := emb.Embed(ctx, "q")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.embedCalls != 1 {
		t.Errorf("inner called %d times, want 1 before the cancelled wait", inner.embedCalls)
	}
}

func TestRetryBatchEmbed_RetriesWholeBatch(t *testing.T) {
	inner := &fakeBatchEmbedder{}
	calls := 0
	inner.batchFn = func(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
		calls++
		if calls == 1 {
			return domain.BatchEmbeddingResult{}, errors.New("transient")
		}
		embeddings := make([][]float32, len(texts))
		for i := range embeddings {
			embeddings[i] = []float32{0.1}
		}
		return domain.BatchEmbeddingResult{Embeddings: embeddings}, nil
	}

	emb := NewRetryEmbedder(inner, 2, time.Millisecond, zap.NewNop())
	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 2 || calls != 2 {
		t.Errorf("unexpected retry behaviour: embeddings=%d calls=%d", len(res.Embeddings), calls)
	}
}

func TestNewRetryEmbedder_Defaults(t *testing.T) {
	emb := NewRetryEmbedder(&fakeEmbedder{}, 0, 0, zap.NewNop())
	if emb.attempts != DefaultRetryAttempts || emb.baseDelay != DefaultRetryBaseDelay {
		t.Errorf("defaults not applied: attempts=%d delay=%v", emb.attempts, emb.baseDelay)
	}
}
