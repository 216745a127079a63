// Package pdfparser turns exam PDFs into question drafts. Layout detection is
// heuristic: several block strategies run over the same text and the one that
// recognises the most questions wins.
package pdfparser

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"quizbank/internal/models"

	"github.com/ledongthuc/pdf"
)

// PDFParseResult is what an upload produces. Parse failures land in Errors,
// never in a returned error.
type PDFParseResult struct {
	Questions       []models.Question `json:"questions"`
	Errors          []string          `json:"errors"`
	TotalExtracted  int               `json:"totalExtracted"`
	DuplicatesFound int               `json:"duplicatesFound"`
}

func failed(err error) PDFParseResult {
	return PDFParseResult{Questions: []models.Question{}, Errors: []string{err.Error()}}
}

// ParseFile reads and parses a PDF on disk.
func ParseFile(path string) PDFParseResult {
	f, err := os.Open(path)
	if err != nil {
		return failed(fmt.Errorf("failed to open PDF: %w", err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return failed(fmt.Errorf("failed to stat PDF: %w", err))
	}
	return ParseReader(f, info.Size())
}

// ParseBytes parses an in-memory PDF, as received from an upload.
func ParseBytes(data []byte) PDFParseResult {
	return ParseReader(bytes.NewReader(data), int64(len(data)))
}

func ParseReader(r io.ReaderAt, size int64) PDFParseResult {
	text, err := ExtractText(r, size)
	if err != nil {
		return failed(err)
	}
	questions := ParseText(text)
	return PDFParseResult{
		Questions:      questions,
		Errors:         []string{},
		TotalExtracted: len(questions),
	}
}

// ParseText runs the strategies over already extracted text.
func ParseText(text string) []models.Question {
	name, found := best(Clean(text))
	questions := keepWellFormed(found)
	if name != "" {
		log.Printf("PDF parse: strategy %s found %d blocks, %d usable", name, len(found), len(questions))
	}
	return questions
}

// ExtractText returns the plain text of every page, pages separated by a newline.
func ExtractText(r io.ReaderAt, size int64) (text string, err error) {
	// The PDF reader panics on some malformed files.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("failed to read PDF: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
