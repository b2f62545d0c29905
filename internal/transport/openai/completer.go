package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/vimo-cloud/ragstore/internal/domain"
)

// Low temperature keeps answers anchored to the retrieved context.
const completionTemperature = 0.2

// Completer streams chat completions from the OpenAI-compatible API.
type Completer struct {
	client *openai.Client
	logger *zap.Logger
}

// NewCompleter creates a streaming completion provider.
func NewCompleter(cfg *Config) *Completer {
	return &Completer{
		client: openai.NewClientWithConfig(clientConfig(cfg)),
		logger: cfg.Logger,
	}
}

// StreamCompletion implements domain.Completer.
func (c *Completer) StreamCompletion(
	ctx context.Context, model string, messages []domain.Message,
) (domain.CompletionStream, error) {
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toChatMessages(messages),
		Stream:      true,
		Temperature: completionTemperature,
	}

	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, parseAPIError("completion", err, domain.ErrCompletionFailed)
	}
	return &completionStream{inner: stream}, nil
}

func toChatMessages(messages []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}
	return out
}

// completionStream adapts the go-openai stream to domain.CompletionStream.
type completionStream struct {
	inner *openai.ChatCompletionStream
}

// Recv returns the next content delta. Chunks without choices (e.g. the
// final usage frame) are skipped.
func (s *completionStream) Recv() (string, error) {
	for {
		resp, err := s.inner.Recv()
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
		if err != nil {
			return "", fmt.Errorf("completion stream: %v: %w", err, domain.ErrCompletionFailed)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		return resp.Choices[0].Delta.Content, nil
	}
}

func (s *completionStream) Close() error {
	if err := s.inner.Close(); err != nil {
		return fmt.Errorf("close completion stream: %w", err)
	}
	return nil
}
