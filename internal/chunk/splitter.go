// Package chunk splits extracted document text into ordered, bounded
// segments for retrieval.
package chunk

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// separators are tried in order: paragraph, line, word, then raw runes.
var separators = []string{"\n\n", "\n", " ", ""}

// Splitter performs recursive character splitting: it prefers larger
// semantic boundaries and falls back to smaller ones only when a part
// still exceeds the chunk size. Sizes are in runes.
type Splitter struct {
	chunkSize int
	overlap   int
}

// NewSplitter creates a splitter. chunkSize must be positive and overlap
// must satisfy 0 <= overlap < chunkSize.
func NewSplitter(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("overlap must be in [0, %d), got %d", chunkSize, overlap)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split returns the ordered segment sequence for text. Empty or
// whitespace-only text yields nil; the caller decides whether that is an
// error for its input.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	raw := s.split(text, separators)

	out := make([]string, 0, len(raw))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// split recursively breaks text on the first applicable separator and merges
// the resulting parts back into chunks up to chunkSize.
func (s *Splitter) split(text string, seps []string) []string {
	sep, rest := pickSeparator(text, seps)

	var parts []string
	if sep == "" {
		parts = runeSlices(text, s.chunkSize)
	} else {
		parts = strings.Split(text, sep)
	}

	var final []string
	var fitting []string
	for _, p := range parts {
		if p == "" {
			continue
		}
		if utf8.RuneCountInString(p) <= s.chunkSize {
			fitting = append(fitting, p)
			continue
		}
		// Oversized part: flush what fits, then descend a level.
		if len(fitting) > 0 {
			final = append(final, s.merge(fitting, sep)...)
			fitting = nil
		}
		final = append(final, s.split(p, rest)...)
	}
	if len(fitting) > 0 {
		final = append(final, s.merge(fitting, sep)...)
	}
	return final
}

// merge greedily joins parts with sep into chunks of at most chunkSize runes,
// carrying overlap runes of trailing parts into the next chunk.
func (s *Splitter) merge(parts []string, sep string) []string {
	sepLen := utf8.RuneCountInString(sep)

	var chunks []string
	var buf []string
	total := 0

	for _, p := range parts {
		pLen := utf8.RuneCountInString(p)
		if len(buf) > 0 && total+sepLen+pLen > s.chunkSize {
			chunks = append(chunks, strings.Join(buf, sep))
			// Drop from the front until the retained tail fits the overlap
			// budget and leaves room for the incoming part.
			for len(buf) > 0 &&
				(total > s.overlap || total+sepLen+pLen > s.chunkSize) {
				total -= utf8.RuneCountInString(buf[0])
				if len(buf) > 1 {
					total -= sepLen
				}
				buf = buf[1:]
			}
		}
		if len(buf) > 0 {
			total += sepLen
		}
		buf = append(buf, p)
		total += pLen
	}

	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, sep))
	}
	return chunks
}

// pickSeparator returns the first separator present in text and the
// remaining lower-priority separators.
func pickSeparator(text string, seps []string) (string, []string) {
	for i, s := range seps {
		if s == "" {
			return "", nil
		}
		if strings.Contains(text, s) {
			return s, seps[i+1:]
		}
	}
	return "", nil
}

// runeSlices hard-slices text into windows of at most size runes.
func runeSlices(text string, size int) []string {
	r := []rune(text)
	out := make([]string, 0, (len(r)+size-1)/size)
	for i := 0; i < len(r); i += size {
		end := i + size
		if end > len(r) {
			end = len(r)
		}
		out = append(out, string(r[i:end]))
	}
	return out
}
