package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"PaperScout/internal/ports"
)

// ErrNoPages is returned for documents without a readable first page.
var ErrNoPages = errors.New("document has no pages")

// Extractor reads the text of a PDF's first page.
type Extractor struct{}

var _ ports.TextExtractor = Extractor{}

// FirstPageLines returns the first page text split into rows, top first.
func (Extractor) FirstPageLines(document []byte) (lines []string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			lines, err = nil, fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	if reader.NumPage() < 1 {
		return nil, ErrNoPages
	}

	page := reader.Page(1)
	if page.V.IsNull() {
		return nil, ErrNoPages
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("read first page: %w", err)
	}

	lines = make([]string, 0, len(rows))
	for _, row := range rows {
		var b strings.Builder
		for _, text := range row.Content {
			b.WriteString(text.S)
		}
		lines = append(lines, b.String())
	}
	return lines, nil
}
