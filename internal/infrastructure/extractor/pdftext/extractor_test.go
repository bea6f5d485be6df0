package pdftext

import (
	"strings"
	"testing"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

func TestExtractTextRejectsNonPDF(t *testing.T) {
	e := NewExtractor(0)
	_, err := e.ExtractText(strings.NewReader("이것은 PDF가 아닙니다"))
	if err == nil {
		t.Fatal("non-PDF accepted")
	}
	if !domain.IsKind(err, domain.ErrUnreadableInput) {
		t.Errorf("error = %v, want ErrUnreadableInput kind", err)
	}
}

func TestExtractTextEnforcesSizeLimit(t *testing.T) {
	e := NewExtractor(16)
	_, err := e.ExtractText(strings.NewReader(strings.Repeat("x", 64)))
	if err == nil {
		t.Fatal("oversized upload accepted")
	}
	if !domain.IsKind(err, domain.ErrUnreadableInput) {
		t.Errorf("error = %v, want ErrUnreadableInput kind", err)
	}
}
