package questions

import "context"

// Cache reads the user's cached document segments.
type Cache interface {
	GetSegments(ctx context.Context, userID string) (segments []string, ok bool, err error)
}

// Completer generates text from a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
