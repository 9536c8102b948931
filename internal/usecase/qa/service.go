// Package qa answers questions against the user's uploaded document using
// retrieval-augmented generation: the top segments by cosine similarity are
// stuffed into a prompt and the model's reply is post-processed into a
// single answer.
package qa

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/index"
)

const promptTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

%s

Question: %s
Helpful Answer:`

// Service implements question answering over the session cache.
type Service struct {
	cache     Cache
	embedder  domain.Embedder
	completer Completer
	topK      int
	logger    *zap.Logger
}

// New creates a QA service. topK <= 0 uses the index default.
func New(cache Cache, embedder domain.Embedder, completer Completer, topK int, logger *zap.Logger) *Service {
	if topK <= 0 {
		topK = index.DefaultTopK
	}
	return &Service{
		cache:     cache,
		embedder:  embedder,
		completer: completer,
		topK:      topK,
		logger:    logger,
	}
}

// Answer returns the answer to question for the user's current document.
func (s *Service) Answer(ctx context.Context, userID, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", domain.ErrInvalidQuestion
	}

	ix, err := s.retriever(ctx, userID)
	if err != nil {
		return "", err
	}

	contexts, err := ix.Search(ctx, s.embedder, question, s.topK)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}

	prompt := fmt.Sprintf(promptTemplate, strings.Join(contexts, "\n\n"), question)

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("complete answer: %w", err)
	}

	answer := ExtractAnswer(raw)
	s.logger.Debug("Question answered",
		zap.String("user_id", userID),
		zap.Int("context_segments", len(contexts)),
	)
	return answer, nil
}

// retriever returns the cached index for the user's current session. The
// segments entry is the session's source of truth: when it is absent there is
// no session, even if a retriever entry survived (the rebuild below re-caches
// the index with a fresh TTL, so the two entries can expire out of step).
// When only the index entry expired it is rebuilt from the segments.
func (s *Service) retriever(ctx context.Context, userID string) (*index.Index, error) {
	segments, ok, err := s.cache.GetSegments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get segments: %w", err)
	}
	if !ok {
		return nil, domain.ErrNoDocument
	}

	ix, ok, err := s.cache.GetIndex(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get retriever: %w", err)
	}
	if ok {
		return ix, nil
	}

	ix, err = index.Build(ctx, s.embedder, segments, s.logger)
	if err != nil {
		return nil, fmt.Errorf("rebuild retriever: %w", err)
	}
	if err := s.cache.PutIndex(ctx, userID, ix); err != nil {
		s.logger.Warn("Failed to cache rebuilt retriever",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
	return ix, nil
}
