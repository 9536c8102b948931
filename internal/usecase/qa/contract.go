package qa

import (
	"context"

	"github.com/kailas-cloud/docqa/internal/index"
)

// Cache reads the user's session state and can restore a missing retriever.
type Cache interface {
	GetSegments(ctx context.Context, userID string) (segments []string, ok bool, err error)
	GetIndex(ctx context.Context, userID string) (ix *index.Index, ok bool, err error)
	PutIndex(ctx context.Context, userID string, ix *index.Index) error
}

// Completer generates text from a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
