package session

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/index"
)

// Cache stores per-user session state with a TTL.
type Cache interface {
	PutSegments(ctx context.Context, userID string, segments []string) error
	PutIndex(ctx context.Context, userID string, ix *index.Index) error
	Evict(ctx context.Context, userID string) error
}

// Files manages the user's encrypted artifacts on disk.
type Files interface {
	Store(userID string, raw []byte, filename string, key []byte) (string, error)
	ClearEncrypted(userID string) error
	DeleteAll(userID string) error
}

// Extractor recovers plain text from an encrypted artifact. An empty result
// means nothing usable was extracted.
type Extractor interface {
	Extract(ctx context.Context, encryptedPath string, key []byte) string
}

// Splitter divides text into overlapping segments.
type Splitter interface {
	Split(text string) []string
}
