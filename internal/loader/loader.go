// Package loader converts uploaded files into extracted text segments.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"fund-review-rag/internal/apperrors"
	"fund-review-rag/internal/models"

	docx "github.com/fumiama/go-docx"
	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

type parseFunc func(path, filename string) ([]models.Segment, error)

// Parser dispatch is keyed by normalized extension; there is no
// content-sniffing. Legacy .doc files go through the docx parser.
var parsers = map[string]parseFunc{
	".pdf":  parsePDF,
	".doc":  parseDocx,
	".docx": parseDocx,
	".txt":  parseText,
	".md":   parseText,
}

// Load writes the uploaded bytes to a transient file, extracts text with the
// parser matching the filename extension, and removes the file on every exit
// path. Documents with no extractable text fail with ErrEmptyDocument.
func Load(data []byte, filename string) ([]models.Segment, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	parse, ok := parsers[ext]
	if !ok {
		return nil, &apperrors.UnsupportedFormatError{Ext: ext}
	}

	tmpPath := filepath.Join(os.TempDir(), "upload-"+uuid.NewString()+ext)
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmpPath) }()

	segments, err := parse(tmpPath, filename)
	if err != nil {
		return nil, err
	}
	if !hasText(segments) {
		return nil, apperrors.ErrEmptyDocument
	}
	return segments, nil
}

// parsePDF extracts plain text page by page, one segment per page.
func parsePDF(path, filename string) ([]models.Segment, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var segments []models.Segment
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract pdf page %d: %w", pageNum, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		segments = append(segments, models.Segment{
			Text:   text,
			Page:   pageNum,
			Source: filename,
		})
	}
	return segments, nil
}

// parseDocx extracts paragraph and table text as a single segment.
func parseDocx(path, filename string) ([]models.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat docx: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	var b strings.Builder
	for _, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *docx.Paragraph, *docx.Table:
			b.WriteString(fmt.Sprint(item))
			b.WriteString("\n")
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return nil, nil
	}
	return []models.Segment{{Text: text, Source: filename}}, nil
}

// parseText reads plain text and markdown files as a single segment.
func parseText(path, filename string) ([]models.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open text file: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return nil, nil
	}
	return []models.Segment{{Text: text, Source: filename}}, nil
}

func hasText(segments []models.Segment) bool {
	for _, s := range segments {
		if strings.TrimSpace(s.Text) != "" {
			return true
		}
	}
	return false
}
