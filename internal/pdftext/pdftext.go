// Package pdftext recovers the raw text of a certificate document. The
// extractor never sees a PDF: it works on plain text, and this package
// is the seam between the two.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Source yields the raw text of one certificate document.
type Source interface {
	Text() (string, error)
}

// Plain is a Source over text that is already extracted, for callers
// that receive certificate text directly.
type Plain string

func (p Plain) Text() (string, error) { return string(p), nil }

// PDF is a Source over the bytes of a certificate PDF.
type PDF struct {
	data []byte
}

// NewPDF wraps already-loaded PDF bytes.
func NewPDF(data []byte) *PDF {
	return &PDF{data: data}
}

// ReadPDF consumes r fully and wraps the bytes.
func ReadPDF(r io.Reader) (*PDF, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	return &PDF{data: data}, nil
}

// OpenPDF reads the file at path and wraps its bytes.
func OpenPDF(path string) (*PDF, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &PDF{data: data}, nil
}

// Text extracts the document text. Whole-document extraction comes
// first; when it yields nothing (some certificate PDFs carry their text
// only in per-page content streams) it falls back to walking every
// page row by row.
func (p *PDF) Text() (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(p.data), int64(len(p.data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	text, err := plainText(r)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}

	text = pageText(r)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("pdf contains no extractable text")
	}
	return text, nil
}

func plainText(r *pdf.Reader) (string, error) {
	tr, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(tr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func pageText(r *pdf.Reader) string {
	var sb strings.Builder
	for n := 1; n <= r.NumPage(); n++ {
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		for _, row := range rows {
			for _, word := range row.Content {
				sb.WriteString(word.S)
				sb.WriteString(" ")
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
