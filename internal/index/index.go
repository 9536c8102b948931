// Package index builds and queries the per-session semantic retriever:
// a brute-force cosine similarity index over segment embeddings.
//
// The index is intentionally a plain serializable value. It is rebuilt from
// scratch on every upload and travels through the session cache as JSON, so
// it carries no connection state and no background structure.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// DefaultTopK is the retrieval depth used when the caller does not override it.
const DefaultTopK = 5

// Index holds unit-normalized segment embeddings alongside their segments.
// Vectors[i] corresponds to Segments[i].
type Index struct {
	Dim      int         `json:"dim"`
	Vectors  [][]float32 `json:"vectors"`
	Segments []string    `json:"segments"`
}

// Build embeds every segment and assembles the index. Returns an error
// wrapping domain.ErrIndexBuild when segments are empty or every embedding
// fails; a partial embedding failure drops only the affected segment.
func Build(
	ctx context.Context,
	embedder domain.Embedder,
	segments []string,
	logger *zap.Logger,
) (*Index, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no segments", domain.ErrIndexBuild)
	}

	ix := &Index{
		Vectors:  make([][]float32, 0, len(segments)),
		Segments: make([]string, 0, len(segments)),
	}

	var failed int
	for i, seg := range segments {
		res, err := embedder.Embed(ctx, seg)
		if err != nil {
			failed++
			logger.Warn("Failed to embed segment",
				zap.Int("segment", i),
				zap.Error(err),
			)
			continue
		}
		vec := normalize(res.Embedding)
		if ix.Dim == 0 {
			ix.Dim = len(vec)
		}
		if len(vec) != ix.Dim {
			failed++
			logger.Warn("Embedding dimension mismatch, dropping segment",
				zap.Int("segment", i),
				zap.Int("got", len(vec)),
				zap.Int("want", ix.Dim),
			)
			continue
		}
		ix.Vectors = append(ix.Vectors, vec)
		ix.Segments = append(ix.Segments, seg)
	}

	if len(ix.Vectors) == 0 {
		return nil, fmt.Errorf("%w: all %d segment embeddings failed", domain.ErrIndexBuild, failed)
	}
	if failed > 0 {
		logger.Warn("Index built with partial failures",
			zap.Int("indexed", len(ix.Vectors)),
			zap.Int("failed", failed),
		)
	}
	return ix, nil
}

// Search embeds the query and returns up to k segments ordered by descending
// cosine similarity. k <= 0 falls back to DefaultTopK.
func (ix *Index) Search(
	ctx context.Context,
	embedder domain.Embedder,
	query string,
	k int,
) ([]string, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	res, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	q := normalize(res.Embedding)

	type scored struct {
		idx   int
		score float32
	}
	scores := make([]scored, len(ix.Vectors))
	for i, v := range ix.Vectors {
		scores[i] = scored{idx: i, score: dot(v, q)}
	}
	// Stable ordering on ties keeps retrieval deterministic.
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].score > scores[b].score
	})

	if k > len(scores) {
		k = len(scores)
	}
	out := make([]string, k)
	for i := 0; i < k; i++ {
		out[i] = ix.Segments[scores[i].idx]
	}
	return out, nil
}

// Len reports the number of indexed segments.
func (ix *Index) Len() int { return len(ix.Segments) }

func dot(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// normalize returns v scaled to unit length so dot products are cosine
// similarities. Zero vectors are returned unchanged.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}
