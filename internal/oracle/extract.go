package oracle

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Document is the extracted content of a PDF.
type Document struct {
	Text  string
	Pages int
}

// Extract reads the plain text of every page. A PDF without text returns
// ErrNoText alongside the page count.
func Extract(data []byte) (doc Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidPDF, err)
	}

	doc.Pages = pageCount(data, reader)

	plain, err := reader.GetPlainText()
	if err != nil {
		return doc, fmt.Errorf("%w: extract text: %w", ErrInvalidPDF, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return doc, fmt.Errorf("%w: read text: %w", ErrInvalidPDF, err)
	}

	doc.Text = strings.TrimSpace(buf.String())
	if doc.Text == "" {
		return doc, ErrNoText
	}
	return doc, nil
}

// pageCount prefers pdfcpu, which validates the cross-reference table, and
// falls back to the text reader's page tree.
func pageCount(data []byte, reader *pdf.Reader) int {
	if n, err := api.PageCount(bytes.NewReader(data), nil); err == nil {
		return n
	}
	return reader.NumPage()
}
