package chunking

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(500, 100)
	got := s.Split("짧은 안내문입니다.")
	if len(got) != 1 {
		t.Fatalf("%d chunks, want 1", len(got))
	}
	if got[0] != "짧은 안내문입니다." {
		t.Errorf("chunk = %q", got[0])
	}
}

func TestSplitEmptyText(t *testing.T) {
	s := NewSplitter(500, 100)
	if got := s.Split("   \n  "); got != nil {
		t.Errorf("blank text produced chunks: %v", got)
	}
}

func TestSplitRespectsSizeAndCoversText(t *testing.T) {
	s := NewSplitter(50, 10)

	sentence := "건강보험료는 매달 십일까지 납부해야 합니다. "
	text := strings.Repeat(sentence, 20)
	chunks := s.Split(text)

	if len(chunks) < 2 {
		t.Fatalf("%d chunks for a long text, want several", len(chunks))
	}
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n > 50 {
			t.Errorf("chunk %d is %d runes, max 50", i, n)
		}
		if chunk == "" {
			t.Errorf("chunk %d empty", i)
		}
	}
	// the final sentence must appear in the last chunk
	if !strings.Contains(chunks[len(chunks)-1], "합니다.") {
		t.Errorf("tail lost: %q", chunks[len(chunks)-1])
	}
}

func TestSplitPrefersSentenceBoundaries(t *testing.T) {
	s := NewSplitter(40, 5)

	text := "첫 번째 문장입니다. 두 번째 문장은 조금 더 길게 이어집니다. 세 번째 문장도 있습니다."
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("%d chunks, want a split", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], ".") {
		t.Errorf("first chunk does not end at a sentence boundary: %q", chunks[0])
	}
}

func TestNewSplitterNormalizesBadArguments(t *testing.T) {
	s := NewSplitter(-1, 999)
	chunks := s.Split(strings.Repeat("가", 1200))
	if len(chunks) < 2 {
		t.Fatalf("%d chunks, want defaulted size to split 1200 runes", len(chunks))
	}
}
