// Package session persists per-user session state in the key-value store:
// the document segments and the serialized retriever index. Every entry is
// written with the session TTL so idle sessions expire on their own.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/docqa/internal/db"
	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/index"
)

// store is the consumer interface for the session cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Repo implements usecase session caching over the key-value store.
type Repo struct {
	store store
	ttl   time.Duration
}

// New creates a session repository. Entries live for ttl after each write.
func New(s store, ttl time.Duration) *Repo {
	return &Repo{store: s, ttl: ttl}
}

// PutSegments stores the user's document segments.
func (r *Repo) PutSegments(ctx context.Context, userID string, segments []string) error {
	data, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, segmentsKey(userID), data, r.ttl); err != nil {
		return fmt.Errorf("set %s: %w", segmentsKey(userID), err)
	}
	return nil
}

// GetSegments returns the user's segments. ok is false when the session has
// no cached segments (never uploaded or TTL expired).
func (r *Repo) GetSegments(ctx context.Context, userID string) ([]string, bool, error) {
	raw, err := r.store.Get(ctx, segmentsKey(userID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s: %w", segmentsKey(userID), err)
	}

	var segments []string
	if err := json.Unmarshal(raw, &segments); err != nil {
		return nil, false, fmt.Errorf("unmarshal segments: %w", err)
	}
	return segments, true, nil
}

// PutIndex stores the user's retriever index.
func (r *Repo) PutIndex(ctx context.Context, userID string, ix *index.Index) error {
	data, err := json.Marshal(ix)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := r.store.SetWithTTL(ctx, indexKey(userID), data, r.ttl); err != nil {
		return fmt.Errorf("set %s: %w", indexKey(userID), err)
	}
	return nil
}

// GetIndex returns the user's retriever index. ok is false on a cache miss.
func (r *Repo) GetIndex(ctx context.Context, userID string) (*index.Index, bool, error) {
	raw, err := r.store.Get(ctx, indexKey(userID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s: %w", indexKey(userID), err)
	}

	var ix index.Index
	if err := json.Unmarshal(raw, &ix); err != nil {
		return nil, false, fmt.Errorf("unmarshal index: %w", err)
	}
	return &ix, true, nil
}

// Evict drops both session entries for the user. Missing keys are not an error.
func (r *Repo) Evict(ctx context.Context, userID string) error {
	if err := r.store.Del(ctx, segmentsKey(userID)); err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		return fmt.Errorf("del %s: %w", segmentsKey(userID), err)
	}
	if err := r.store.Del(ctx, indexKey(userID)); err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		return fmt.Errorf("del %s: %w", indexKey(userID), err)
	}
	return nil
}

func segmentsKey(userID string) string {
	return domain.KeyPrefix + "splits_" + userID
}

func indexKey(userID string) string {
	return domain.KeyPrefix + "retriever_" + userID
}
