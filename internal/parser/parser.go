// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parser extracts raw text from document files and splits it into
// overlapping chunks sized for embedding.
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extractor pulls plain text out of one document file.
type Extractor interface {
	Extract(path string) (string, error)
}

// ForFile selects an extractor by file extension. PDF files get the PDF
// extractor; everything else is read as plain text.
func ForFile(path string) Extractor {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return PDFExtractor{}
	}
	return TextExtractor{}
}

// PDFExtractor extracts text from every page of a PDF document.
type PDFExtractor struct{}

func (PDFExtractor) Extract(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not spoil the document.
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// TextExtractor reads a file verbatim as UTF-8 text.
type TextExtractor struct{}

func (TextExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// Parse extracts the text of the document at path and splits it into
// chunks of at most size characters with overlap characters shared between
// consecutive chunks. An empty document yields no chunks.
func Parse(path string, size, overlap int) ([]string, error) {
	text, err := ForFile(path).Extract(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return Split(text, size, overlap), nil
}
