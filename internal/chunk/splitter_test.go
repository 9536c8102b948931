package chunk

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func mustSplitter(t *testing.T, size, overlap int) *Splitter {
	t.Helper()
	s, err := NewSplitter(size, overlap)
	if err != nil {
		t.Fatalf("NewSplitter(%d, %d): %v", size, overlap, err)
	}
	return s
}

func TestNewSplitter_Validation(t *testing.T) {
	cases := []struct {
		size, overlap int
		wantErr       bool
	}{
		{1000, 0, false},
		{100, 99, false},
		{0, 0, true},
		{-5, 0, true},
		{100, 100, true},
		{100, -1, true},
	}
	for _, tc := range cases {
		_, err := NewSplitter(tc.size, tc.overlap)
		if (err != nil) != tc.wantErr {
			t.Errorf("NewSplitter(%d, %d) err=%v, wantErr=%v", tc.size, tc.overlap, err, tc.wantErr)
		}
	}
}

func TestSplit_EmptyAndWhitespace(t *testing.T) {
	s := mustSplitter(t, 100, 0)

	for _, text := range []string{"", "   ", "\n\n\t  \n"} {
		if got := s.Split(text); got != nil {
			t.Errorf("Split(%q) = %v, want nil", text, got)
		}
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s := mustSplitter(t, 1000, 0)

	got := s.Split("a short document")
	if len(got) != 1 || got[0] != "a short document" {
		t.Fatalf("got %v", got)
	}
}

func TestSplit_RespectsChunkSize(t *testing.T) {
	s := mustSplitter(t, 50, 10)

	text := strings.Repeat("lorem ipsum dolor sit amet consectetur ", 40)
	for _, c := range s.Split(text) {
		if n := utf8.RuneCountInString(c); n > 50 {
			t.Errorf("chunk exceeds size: %d runes: %q", n, c)
		}
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	s := mustSplitter(t, 25, 0)

	text := "first paragraph here.\n\nsecond paragraph here.\n\nthird one."
	got := s.Split(text)

	want := []string{"first paragraph here.", "second paragraph here.", "third one."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSplit_FallsBackToWords(t *testing.T) {
	s := mustSplitter(t, 20, 0)

	// Single long line with no paragraph breaks forces word-level splitting.
	text := "one two three four five six seven eight nine ten"
	got := s.Split(text)

	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %v", got)
	}
	for _, c := range got {
		if utf8.RuneCountInString(c) > 20 {
			t.Errorf("chunk exceeds size: %q", c)
		}
	}
	if joined := strings.Join(got, " "); !strings.Contains(joined, "seven eight") {
		t.Errorf("content lost across chunks: %q", joined)
	}
}

func TestSplit_RuneFallbackForUnbrokenText(t *testing.T) {
	s := mustSplitter(t, 10, 0)

	text := strings.Repeat("x", 35)
	got := s.Split(text)

	want := []string{
		strings.Repeat("x", 10),
		strings.Repeat("x", 10),
		strings.Repeat("x", 10),
		strings.Repeat("x", 5),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSplit_OverlapCarriesBoundaryText(t *testing.T) {
	s := mustSplitter(t, 20, 8)

	text := "alpha beta gamma delta epsilon zeta eta theta"
	got := s.Split(text)

	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %v", got)
	}
	// Each consecutive pair shares at least one word of boundary text.
	for i := 1; i < len(got); i++ {
		prevWords := strings.Fields(got[i-1])
		tail := prevWords[len(prevWords)-1]
		if !strings.Contains(got[i], tail) {
			t.Errorf("chunk %d does not overlap with its predecessor: %q -> %q", i, got[i-1], got[i])
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	s := mustSplitter(t, 64, 16)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog.\n\n", 30)
	first := s.Split(text)
	for i := 0; i < 5; i++ {
		if got := s.Split(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("non-deterministic output on run %d", i)
		}
	}
}

func TestSplit_OrderPreserved(t *testing.T) {
	s := mustSplitter(t, 30, 0)

	text := "aaa one.\n\nbbb two.\n\nccc three.\n\nddd four."
	got := s.Split(text)

	markers := []string{"aaa", "bbb", "ccc", "ddd"}
	last := -1
	joined := strings.Join(got, "\x00")
	for _, m := range markers {
		idx := strings.Index(joined, m)
		if idx < last {
			t.Fatalf("segment order not preserved: %v", got)
		}
		last = idx
	}
}
