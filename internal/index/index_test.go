package index

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// vecEmbedder maps exact texts to fixed vectors.
type vecEmbedder struct {
	vectors map[string][]float32
	err     error
	errOn   map[string]bool
}

func (m *vecEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	if m.errOn[text] {
		return domain.EmbeddingResult{}, errors.New("embed failed")
	}
	v, ok := m.vectors[text]
	if !ok {
		return domain.EmbeddingResult{}, errors.New("unknown text")
	}
	return domain.EmbeddingResult{Embedding: v}, nil
}

func TestBuild_EmptySegments(t *testing.T) {
	_, err := Build(context.Background(), &vecEmbedder{}, nil, zap.NewNop())
	if !errors.Is(err, domain.ErrIndexBuild) {
		t.Fatalf("expected ErrIndexBuild, got %v", err)
	}
}

func TestBuild_AllEmbeddingsFail(t *testing.T) {
	emb := &vecEmbedder{err: errors.New("provider down")}
	_, err := Build(context.Background(), emb, []string{"a", "b"}, zap.NewNop())
	if !errors.Is(err, domain.ErrIndexBuild) {
		t.Fatalf("expected ErrIndexBuild, got %v", err)
	}
}

func TestBuild_PartialFailureDropsSegment(t *testing.T) {
	emb := &vecEmbedder{
		vectors: map[string][]float32{
			"good one": {1, 0},
			"good two": {0, 1},
		},
		errOn: map[string]bool{"bad": true},
	}

	ix, err := Build(context.Background(), emb, []string{"good one", "bad", "good two"}, zap.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if ix.Len() != 2 {
		t.Fatalf("expected 2 indexed segments, got %d", ix.Len())
	}
	if !reflect.DeepEqual(ix.Segments, []string{"good one", "good two"}) {
		t.Errorf("unexpected segments: %v", ix.Segments)
	}
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	emb := &vecEmbedder{
		vectors: map[string][]float32{
			"cats are mammals": {1, 0, 0},
			"dogs are mammals": {0.9, 0.1, 0},
			"tax law overview": {0, 0, 1},
			"about cats?":      {1, 0.05, 0},
		},
	}

	segments := []string{"tax law overview", "dogs are mammals", "cats are mammals"}
	ix, err := Build(context.Background(), emb, segments, zap.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	got, err := ix.Search(context.Background(), emb, "about cats?", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := []string{"cats are mammals", "dogs are mammals"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSearch_DefaultTopK(t *testing.T) {
	vectors := map[string][]float32{"q": {1, 0}}
	segments := make([]string, 8)
	for i := range segments {
		seg := string(rune('a' + i))
		segments[i] = seg
		vectors[seg] = []float32{1, float32(i) * 0.01}
	}
	emb := &vecEmbedder{vectors: vectors}

	ix, err := Build(context.Background(), emb, segments, zap.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	got, err := ix.Search(context.Background(), emb, "q", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != DefaultTopK {
		t.Errorf("expected %d results, got %d", DefaultTopK, len(got))
	}
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	emb := &vecEmbedder{vectors: map[string][]float32{
		"only": {1, 0},
		"q":    {1, 0},
	}}
	ix, err := Build(context.Background(), emb, []string{"only"}, zap.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	got, err := ix.Search(context.Background(), emb, "q", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected 1 result, got %d", len(got))
	}
}

func TestSearch_QueryEmbeddingError(t *testing.T) {
	emb := &vecEmbedder{vectors: map[string][]float32{"s": {1}}}
	ix, err := Build(context.Background(), emb, []string{"s"}, zap.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	emb.err = errors.New("provider down")
	if _, err := ix.Search(context.Background(), emb, "q", 1); err == nil {
		t.Fatal("expected error from query embedding")
	}
}

func TestIndex_JSONRoundTrip(t *testing.T) {
	emb := &vecEmbedder{vectors: map[string][]float32{
		"one": {3, 4},
		"two": {0, 1},
		"q":   {0, 1},
	}}
	ix, err := Build(context.Background(), emb, []string{"one", "two"}, zap.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	data, err := json.Marshal(ix)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var restored Index
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got, err := restored.Search(context.Background(), emb, "q", 1)
	if err != nil {
		t.Fatalf("Search after round trip: %v", err)
	}
	if got[0] != "two" {
		t.Errorf("got %q, want %q", got[0], "two")
	}
}

func TestNormalize(t *testing.T) {
	v := normalize([]float32{3, 4})
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("unexpected normalized vector: %v", v)
	}

	zero := normalize([]float32{0, 0})
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("zero vector changed: %v", zero)
	}
}
