// Package questions suggests starter questions for the user's uploaded
// document. The model sees the full document text and is asked for one
// question per line; the first few lines become the suggestions.
package questions

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// DefaultCount is the number of suggestions returned when the caller does
// not override it.
const DefaultCount = 3

const promptTemplate = `You generate study questions from documents. Given the document below, write questions that can be answered from the document alone. Write one question per line with no numbering and no extra commentary.

Document:
%s

Questions:`

// Service implements question suggestion over the session cache.
type Service struct {
	cache     Cache
	completer Completer
	logger    *zap.Logger
}

// New creates a questions service.
func New(cache Cache, completer Completer, logger *zap.Logger) *Service {
	return &Service{cache: cache, completer: completer, logger: logger}
}

// Generate returns up to n suggested questions for the user's document.
// n <= 0 falls back to DefaultCount. A model that produces nothing yields an
// empty slice, not an error.
func (s *Service) Generate(ctx context.Context, userID string, n int) ([]string, error) {
	if n <= 0 {
		n = DefaultCount
	}

	segments, ok, err := s.cache.GetSegments(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get segments: %w", err)
	}
	if !ok {
		return nil, domain.ErrNoDocument
	}

	prompt := fmt.Sprintf(promptTemplate, strings.Join(segments, " "))

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	suggestions := make([]string, 0, n)
	for _, line := range strings.Split(raw, "\n") {
		if len(suggestions) == n {
			break
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			suggestions = append(suggestions, trimmed)
		}
	}

	s.logger.Debug("Questions generated",
		zap.String("user_id", userID),
		zap.Int("count", len(suggestions)),
	)
	return suggestions, nil
}
