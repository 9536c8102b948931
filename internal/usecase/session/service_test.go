package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/index"
)

// --- Mocks ---

type mockCache struct {
	putSegmentsFn func(ctx context.Context, userID string, segments []string) error
	putIndexFn    func(ctx context.Context, userID string, ix *index.Index) error
	evictFn       func(ctx context.Context, userID string) error

	evictCalls     int
	cachedSegments []string
	cachedIndex    *index.Index
}

func (m *mockCache) PutSegments(ctx context.Context, userID string, segments []string) error {
	if m.putSegmentsFn != nil {
		return m.putSegmentsFn(ctx, userID, segments)
	}
	m.cachedSegments = segments
	return nil
}

func (m *mockCache) PutIndex(ctx context.Context, userID string, ix *index.Index) error {
	if m.putIndexFn != nil {
		return m.putIndexFn(ctx, userID, ix)
	}
	m.cachedIndex = ix
	return nil
}

func (m *mockCache) Evict(ctx context.Context, userID string) error {
	m.evictCalls++
	if m.evictFn != nil {
		return m.evictFn(ctx, userID)
	}
	m.cachedSegments = nil
	m.cachedIndex = nil
	return nil
}

type mockFiles struct {
	storeFn func(userID string, raw []byte, filename string, key []byte) (string, error)

	clearCalls  int
	deleteCalls int
	storedPath  string
}

func (m *mockFiles) Store(userID string, raw []byte, filename string, key []byte) (string, error) {
	if m.storeFn != nil {
		return m.storeFn(userID, raw, filename, key)
	}
	m.storedPath = "upload/" + userID + "/" + filename + ".enc"
	return m.storedPath, nil
}

func (m *mockFiles) ClearEncrypted(_ string) error {
	m.clearCalls++
	return nil
}

func (m *mockFiles) DeleteAll(_ string) error {
	m.deleteCalls++
	return nil
}

type mockExtractor struct {
	text string
}

func (m *mockExtractor) Extract(_ context.Context, _ string, _ []byte) string {
	return m.text
}

type mockSplitter struct {
	segments []string
}

func (m *mockSplitter) Split(_ string) []string {
	return m.segments
}

type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	vec := []float32{float32(len(text)), 1, 0}
	return domain.EmbeddingResult{Embedding: vec, TotalTokens: 1}, nil
}

type deps struct {
	cache    *mockCache
	files    *mockFiles
	extract  *mockExtractor
	splitter *mockSplitter
	embedder *mockEmbedder
}

func newTestService(t *testing.T) (*Service, *deps) {
	t.Helper()
	d := &deps{
		cache:    &mockCache{},
		files:    &mockFiles{},
		extract:  &mockExtractor{text: "some document text"},
		splitter: &mockSplitter{segments: []string{"seg one", "seg two"}},
		embedder: &mockEmbedder{},
	}
	svc := New(d.cache, d.files, d.extract, d.splitter, d.embedder, []byte("0123456789abcdef0123456789abcdef"), zap.NewNop())
	return svc, d
}

// --- Tests ---

func TestUpload_HappyPath(t *testing.T) {
	svc, d := newTestService(t)

	segments, err := svc.Upload(context.Background(), "alice", "doc.txt", []byte("content"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(segments) != 2 || segments[0] != "seg one" {
		t.Errorf("unexpected segments: %v", segments)
	}

	if d.cache.evictCalls != 1 {
		t.Errorf("expected 1 evict before upload, got %d", d.cache.evictCalls)
	}
	if d.files.clearCalls != 1 {
		t.Errorf("expected encrypted artifacts cleared once, got %d", d.files.clearCalls)
	}
	if len(d.cache.cachedSegments) != 2 {
		t.Errorf("segments not cached: %v", d.cache.cachedSegments)
	}
	if d.cache.cachedIndex == nil || d.cache.cachedIndex.Len() != 2 {
		t.Errorf("index not cached: %+v", d.cache.cachedIndex)
	}
}

func TestUpload_RejectsUnsupportedExtension(t *testing.T) {
	svc, d := newTestService(t)

	for _, name := range []string{"doc.exe", "doc.docx", "doc", "doc.txt.zip"} {
		_, err := svc.Upload(context.Background(), "alice", name, []byte("x"))
		if !errors.Is(err, domain.ErrFileTypeNotAllowed) {
			t.Errorf("%s: expected ErrFileTypeNotAllowed, got %v", name, err)
		}
	}
	if d.cache.evictCalls != 0 {
		t.Errorf("rejected upload must not touch the session, got %d evicts", d.cache.evictCalls)
	}
}

func TestUpload_ExtensionCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Upload(context.Background(), "alice", "DOC.PDF", []byte("%PDF fake")); err != nil {
		if errors.Is(err, domain.ErrFileTypeNotAllowed) {
			t.Fatalf("uppercase extension must be accepted, got %v", err)
		}
	}
}

func TestUpload_EmptyExtraction(t *testing.T) {
	svc, d := newTestService(t)
	d.extract.text = ""

	_, err := svc.Upload(context.Background(), "alice", "doc.txt", []byte("x"))
	if !errors.Is(err, domain.ErrExtractionEmpty) {
		t.Fatalf("expected ErrExtractionEmpty, got %v", err)
	}
	// Prior session is gone even when the new upload fails.
	if d.cache.evictCalls != 1 {
		t.Errorf("expected evict despite failed extraction, got %d", d.cache.evictCalls)
	}
}

func TestUpload_EmptySplit(t *testing.T) {
	svc, d := newTestService(t)
	d.splitter.segments = nil

	_, err := svc.Upload(context.Background(), "alice", "doc.txt", []byte("x"))
	if !errors.Is(err, domain.ErrChunkingFailed) {
		t.Fatalf("expected ErrChunkingFailed, got %v", err)
	}
}

func TestUpload_IndexBuildFailure(t *testing.T) {
	svc, d := newTestService(t)
	d.embedder.err = errors.New("provider down")

	_, err := svc.Upload(context.Background(), "alice", "doc.txt", []byte("x"))
	if !errors.Is(err, domain.ErrIndexBuild) {
		t.Fatalf("expected ErrIndexBuild, got %v", err)
	}
	// Segments were cached before the index failed; the next upload or the
	// TTL takes care of them.
	if d.cache.cachedSegments == nil {
		t.Error("expected segments cached before index failure")
	}
}

func TestUpload_Supersedes(t *testing.T) {
	svc, d := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, "alice", "first.txt", []byte("a")); err != nil {
		t.Fatalf("first upload: %v", err)
	}

	d.splitter.segments = []string{"new segment"}
	segments, err := svc.Upload(ctx, "alice", "second.txt", []byte("b"))
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	if d.cache.evictCalls != 2 {
		t.Errorf("expected evict per upload, got %d", d.cache.evictCalls)
	}
	if len(segments) != 1 || segments[0] != "new segment" {
		t.Errorf("second upload did not supersede: %v", segments)
	}
	if len(d.cache.cachedSegments) != 1 {
		t.Errorf("stale segments in cache: %v", d.cache.cachedSegments)
	}
}

func TestFlush(t *testing.T) {
	svc, d := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, "alice", "doc.txt", []byte("x")); err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := svc.Flush(ctx, "alice"); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if d.files.deleteCalls != 1 {
		t.Errorf("expected artifacts deleted, got %d calls", d.files.deleteCalls)
	}
	if d.cache.cachedSegments != nil || d.cache.cachedIndex != nil {
		t.Error("expected cache evicted after flush")
	}

	// Flush with nothing to remove still succeeds.
	if err := svc.Flush(ctx, "alice"); err != nil {
		t.Fatalf("repeated Flush: %v", err)
	}
}

func TestFlush_Concurrent(t *testing.T) {
	svc, d := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, "alice", "doc.txt", []byte("x")); err != nil {
		t.Fatalf("upload: %v", err)
	}

	// Two flushes racing on the same user are serialized by the per-key
	// lock; both must succeed.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = svc.Flush(ctx, "alice")
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("flush %d: %v", i, err)
		}
	}
	if d.files.deleteCalls != 2 {
		t.Errorf("expected both flushes to delete artifacts, got %d calls", d.files.deleteCalls)
	}
	if d.cache.cachedSegments != nil || d.cache.cachedIndex != nil {
		t.Error("expected cache evicted after concurrent flushes")
	}
}

func TestUpload_StoreError(t *testing.T) {
	svc, d := newTestService(t)
	d.files.storeFn = func(_ string, _ []byte, _ string, _ []byte) (string, error) {
		return "", errors.New("disk full")
	}

	_, err := svc.Upload(context.Background(), "alice", "doc.txt", []byte("x"))
	if err == nil || !strings.Contains(err.Error(), "store document") {
		t.Fatalf("expected store error, got %v", err)
	}
}
