package domain

import "errors"

var (
	// ErrCollectionNotFound signals an operation on a collection that was never created.
	ErrCollectionNotFound = errors.New("collection not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrDimensionMismatch signals an embedding whose length differs from the collection dimension.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrDuplicateID signals an insert with an id that already exists in the collection.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrPointNotFound signals a missing point.
	ErrPointNotFound = errors.New("point not found")
	// ErrInvalidFilter signals a malformed filter expression.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrEmbeddingFailed signals a terminal embedding provider failure (after retries).
	ErrEmbeddingFailed = errors.New("embedding failed")
	// ErrCompletionFailed signals a terminal chat completion failure (after retries).
	ErrCompletionFailed = errors.New("completion failed")
	// ErrRerankFailed signals a re-ranking provider failure. Callers degrade to
	// the pre-rerank ordering instead of failing the request.
	ErrRerankFailed = errors.New("rerank failed")
)
