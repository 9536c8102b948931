// Package session owns the per-user document lifecycle: upload replaces the
// previous document end to end, flush tears the session down. All state
// transitions for one user are serialized so a concurrent upload and flush
// cannot interleave.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/index"
)

var allowedExtensions = map[string]bool{
	".txt": true,
	".pdf": true,
}

// Service implements the upload and flush operations.
type Service struct {
	cache    Cache
	files    Files
	extract  Extractor
	splitter Splitter
	embedder domain.Embedder
	key      []byte
	locks    *keyMutex
	logger   *zap.Logger
}

// New creates a session service. key is the symmetric key used for artifacts
// at rest.
func New(
	cache Cache,
	files Files,
	extract Extractor,
	splitter Splitter,
	embedder domain.Embedder,
	key []byte,
	logger *zap.Logger,
) *Service {
	return &Service{
		cache:    cache,
		files:    files,
		extract:  extract,
		splitter: splitter,
		embedder: embedder,
		key:      key,
		locks:    newKeyMutex(),
		logger:   logger,
	}
}

// Upload replaces the user's session with a new document: prior cache entries
// and encrypted artifacts are dropped first, then the new document is stored,
// extracted, split and indexed. Returns the cached segments.
func (s *Service) Upload(ctx context.Context, userID, filename string, raw []byte) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %s", domain.ErrFileTypeNotAllowed, ext)
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	if err := s.beginUpload(ctx, userID); err != nil {
		return nil, err
	}

	path, err := s.files.Store(userID, raw, filename, s.key)
	if err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	text := s.extract.Extract(ctx, path, s.key)
	if text == "" {
		return nil, domain.ErrExtractionEmpty
	}

	segments := s.splitter.Split(text)
	if len(segments) == 0 {
		return nil, domain.ErrChunkingFailed
	}

	if err := s.cache.PutSegments(ctx, userID, segments); err != nil {
		return nil, fmt.Errorf("cache segments: %w", err)
	}

	ix, err := index.Build(ctx, s.embedder, segments, s.logger)
	if err != nil {
		return nil, fmt.Errorf("build retriever: %w", err)
	}
	if err := s.cache.PutIndex(ctx, userID, ix); err != nil {
		return nil, fmt.Errorf("cache retriever: %w", err)
	}

	s.logger.Info("Document uploaded",
		zap.String("user_id", userID),
		zap.Int("segments", len(segments)),
		zap.Int("indexed", ix.Len()),
	)
	return segments, nil
}

// beginUpload clears the previous session so a failed upload cannot leave
// stale answers behind.
func (s *Service) beginUpload(ctx context.Context, userID string) error {
	if err := s.cache.Evict(ctx, userID); err != nil {
		return fmt.Errorf("evict session: %w", err)
	}
	if err := s.files.ClearEncrypted(userID); err != nil {
		return fmt.Errorf("clear encrypted artifacts: %w", err)
	}
	return nil
}

// Flush removes the user's artifacts and cached session state. Flushing a
// user with no session is a no-op.
func (s *Service) Flush(ctx context.Context, userID string) error {
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	if err := s.files.DeleteAll(userID); err != nil {
		return fmt.Errorf("delete artifacts: %w", err)
	}
	if err := s.cache.Evict(ctx, userID); err != nil {
		return fmt.Errorf("evict session: %w", err)
	}

	s.logger.Info("Session flushed", zap.String("user_id", userID))
	return nil
}
