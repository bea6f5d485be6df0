// Package pdftext pulls the text layer out of uploaded PDF notices.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/iamdbstjd/DC-TermProject3/internal/core/domain"
)

type Extractor struct {
	maxBytes int64
}

func NewExtractor(maxBytes int64) *Extractor {
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	return &Extractor{maxBytes: maxBytes}
}

// ExtractText reads the PDF text layer. Scanned documents without one come
// back as domain.ErrUnreadableInput; there is no OCR path.
func (e *Extractor) ExtractText(r io.Reader) (string, error) {
	const operation = "pdftext.extract"

	data, err := io.ReadAll(io.LimitReader(r, e.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%s: read upload: %w", operation, err)
	}
	if int64(len(data)) > e.maxBytes {
		return "", domain.WrapError(domain.ErrUnreadableInput, operation, fmt.Errorf("pdf exceeds %d bytes", e.maxBytes))
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.WrapError(domain.ErrUnreadableInput, operation, err)
	}

	var sb strings.Builder
	for page := 1; page <= reader.NumPage(); page++ {
		p := reader.Page(page)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", domain.WrapError(domain.ErrUnreadableInput, operation, fmt.Errorf("no text layer"))
	}
	return text, nil
}
