// Package chunking splits knowledge-base text into overlapping passages
// sized for embedding.
package chunking

import "strings"

type Splitter struct {
	size    int
	overlap int
}

// NewSplitter sizes chunks in runes, not bytes; Hangul is three bytes per
// syllable and byte-sized windows would cut glyphs apart.
func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Splitter{size: size, overlap: overlap}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= s.size {
		return []string{string(runes)}
	}

	stride := s.size - s.overlap
	var chunks []string
	for start := 0; start < len(runes); start += stride {
		end := start + s.size
		if end >= len(runes) {
			chunk := strings.TrimSpace(string(runes[start:]))
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		end = breakAt(runes, start, end)
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		stride = end - start - s.overlap
		if stride < 1 {
			stride = 1
		}
	}
	return chunks
}

// breakAt walks back from the window end to the nearest sentence or line
// boundary, as long as that keeps at least half the window.
func breakAt(runes []rune, start, end int) int {
	minEnd := start + (end-start)/2
	for i := end - 1; i > minEnd; i-- {
		switch runes[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}
	for i := end - 1; i > minEnd; i-- {
		if runes[i] == ' ' {
			return i + 1
		}
	}
	return end
}
