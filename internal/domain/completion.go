package domain

import "context"

// CompletionStream yields answer fragments as the model produces them.
// Recv returns io.EOF after the final fragment.
type CompletionStream interface {
	Recv() (string, error)
	Close() error
}

// Completer opens a streaming chat completion over a message list.
type Completer interface {
	StreamCompletion(ctx context.Context, model string, messages []Message) (CompletionStream, error)
}
