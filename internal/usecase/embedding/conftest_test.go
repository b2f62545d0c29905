package embedding

import (
	"context"

	"github.com/vimo-cloud/ragstore/internal/domain"
)

// fakeEmbedder implements domain.Embedder with optional batch support.
type fakeEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)

	embedCalls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	f.embedCalls++
	if f.embedFn != nil {
		return f.embedFn(ctx, text)
	}
	return domain.EmbeddingResult{Embedding: []float32{0.1}, TotalTokens: 1}, nil
}

// fakeBatchEmbedder also implements domain.BatchEmbedder and records batch
// sizes per call.
type fakeBatchEmbedder struct {
	fakeEmbedder

	batchFn    func(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
	batchSizes []int
}

func (f *fakeBatchEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	f.batchSizes = append(f.batchSizes, len(texts))
	if f.batchFn != nil {
		return f.batchFn(ctx, texts)
	}
	embeddings := make([][]float32, len(texts))
	for i := range embeddings {
		embeddings[i] = []float32{0.1}
	}
	return domain.BatchEmbeddingResult{Embeddings: embeddings, TotalTokens: len(texts)}, nil
}
