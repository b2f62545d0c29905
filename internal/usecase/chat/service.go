// Package chat answers user queries with retrieval-augmented streaming
// completions and maintains per-session conversation history.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vimo-cloud/ragstore/internal/domain"
)

const (
	// DefaultDocumentCollection holds ingested document chunks.
	DefaultDocumentCollection = "documents"
	// DefaultChatCollection holds conversation turns.
	DefaultChatCollection = "chat_history"

	defaultTopK      = 5
	defaultThreshold = 0.5
)

const (
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"
)

// Request is one chat turn to answer.
type Request struct {
	Query     string
	SessionID string
	Language  string
	Model     string
}

// Service streams grounded answers and persists completed turns.
type Service struct {
	retrieval   Retriever
	points      PointStore
	collections CollectionProvisioner
	completer   domain.Completer
	embed       domain.Embedder
	trimmer     HistoryTrimmer
	logger      *zap.Logger

	docCollection  string
	chatCollection string
	dimension      int
	model          string
	topK           int
	threshold      float64
}

// New creates a chat service with the given defaults for model and embedding
// dimension.
func New(
	retrieval Retriever,
	points PointStore,
	collections CollectionProvisioner,
	completer domain.Completer,
	embed domain.Embedder,
	trimmer HistoryTrimmer,
	dimension int,
	model string,
	logger *zap.Logger,
) *Service {
	return &Service{
		retrieval:      retrieval,
		points:         points,
		collections:    collections,
		completer:      completer,
		embed:          embed,
		trimmer:        trimmer,
		logger:         logger,
		docCollection:  DefaultDocumentCollection,
		chatCollection: DefaultChatCollection,
		dimension:      dimension,
		model:          model,
		topK:           defaultTopK,
		threshold:      defaultThreshold,
	}
}

// WithCollections overrides the document and chat collection names.
func (s *Service) WithCollections(documents, chats string) *Service {
	if documents != "" {
		s.docCollection = documents
	}
	if chats != "" {
		s.chatCollection = chats
	}
	return s
}

// WithRetrievalParams overrides the context search depth and threshold.
func (s *Service) WithRetrievalParams(topK int, threshold float64) *Service {
	if topK > 0 {
		s.topK = topK
	}
	if threshold >= 0 {
		s.threshold = threshold
	}
	return s
}

// Answer streams a grounded answer for the query, calling emit once per
// fragment, and returns the full answer text. The user and assistant turns
// are persisted only after the stream completes, so a cancelled or failed
// stream leaves the session history untouched.
func (s *Service) Answer(ctx context.Context, req Request, emit func(delta string) error) (string, error) {
	messages, err := s.buildMessages(ctx, req)
	if err != nil {
		return "", err
	}

	model := req.Model
	if model == "" {
		model = s.model
	}

	stream, err := s.completer.StreamCompletion(ctx, model, messages)
	if err != nil {
		return "", fmt.Errorf("open completion stream: %w", err)
	}
	defer func() { _ = stream.Close() }()

	var answer strings.Builder
	for {
		delta, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return answer.String(), fmt.Errorf("read completion stream: %w", err)
		}
		if delta == "" {
			continue
		}
		answer.WriteString(delta)
		if err := emit(delta); err != nil {
			return answer.String(), fmt.Errorf("emit fragment: %w", err)
		}
	}

	if err := s.persistTurns(ctx, req.SessionID, req.Query, answer.String()); err != nil {
		return answer.String(), err
	}
	return answer.String(), nil
}

// buildMessages assembles the system prompt, session history, and the
// templated user message with retrieved context, then trims the whole
// conversation to the language budget. Trimming sees the full conversation
// so the prompt and the templated question count against the budget; only
// history between them is droppable.
func (s *Service) buildMessages(ctx context.Context, req Request) ([]domain.Message, error) {
	records, err := s.retrieval.Search(ctx, s.docCollection, req.Query, s.topK, s.threshold, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieve context: %w", err)
	}
	contents := make([]string, 0, len(records))
	for _, r := range records {
		contents = append(contents, r.Content)
	}

	history, err := s.retrieval.History(ctx, s.chatCollection, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	messages := make([]domain.Message, 0, len(history)+2)
	messages = append(messages, domain.Message{Role: roleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, domain.Message{
		Role:    roleUser,
		Content: fmt.Sprintf(userMessageTemplate, strings.Join(contents, "\n"), req.Query),
	})

	messages, err = s.trimmer.Trim(messages, req.Language)
	if err != nil {
		return nil, fmt.Errorf("trim conversation: %w", err)
	}
	return messages, nil
}

// persistTurns stores the user question and the full assistant answer as two
// embedded points in the chat collection.
func (s *Service) persistTurns(ctx context.Context, sessionID, query, answer string) error {
	if _, err := s.collections.GetOrCreate(ctx, s.chatCollection, s.dimension); err != nil {
		return fmt.Errorf("provision chat collection: %w", err)
	}
	if err := s.saveTurn(ctx, sessionID, roleUser, query); err != nil {
		return err
	}
	return s.saveTurn(ctx, sessionID, roleAssistant, answer)
}

func (s *Service) saveTurn(ctx context.Context, sessionID, role, content string) error {
	emb, err := s.embed.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed %s turn: %w", role, err)
	}

	point := domain.Point{
		ID:        uuid.NewString(),
		Embedding: emb.Embedding,
		Payload: map[string]any{
			"session_id": sessionID,
			"role":       role,
			"content":    content,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := s.points.Upsert(ctx, s.chatCollection, point); err != nil {
		return fmt.Errorf("store %s turn: %w", role, err)
	}
	return nil
}

// ClearSessions deletes one session's turns, or every turn when sessionID is
// empty. It returns the number of deleted points.
func (s *Service) ClearSessions(ctx context.Context, sessionID string) (int, error) {
	if sessionID == "" {
		n, err := s.points.DeleteAll(ctx, s.chatCollection)
		if err != nil {
			return 0, fmt.Errorf("clear sessions: %w", err)
		}
		return n, nil
	}

	points, err := s.points.QueryAll(ctx, s.chatCollection)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	deleted := 0
	for _, p := range points {
		if p.PayloadString("session_id") != sessionID {
			continue
		}
		if err := s.points.Delete(ctx, s.chatCollection, p.ID); err != nil {
			return deleted, fmt.Errorf("delete turn %s: %w", p.ID, err)
		}
		deleted++
	}

	s.logger.Info("Session cleared",
		zap.String("session_id", sessionID),
		zap.Int("deleted", deleted),
	)
	return deleted, nil
}
