package pdfparser

import (
	"regexp"
	"strings"
)

const allowedChars = `\w\s\x{00C0}-\x{024F}\x{1E00}-\x{1EFF}.,;:!?()\[\]{}"'` + "`" + `~@#$%^&*+=<>/\\|\-`

var (
	horizontalSpace = regexp.MustCompile(`[^\S\n]+`)
	pageFooter      = regexp.MustCompile(`(?i)(?:page|trang) \d+`)
	// Check marks and Greek letters survive extraction cleanup so the answer and
	// difficulty heuristics can still see them.
	extractionArtifact = regexp.MustCompile(`[^` + allowedChars + `\x{0370}-\x{03FF}\x{2713}\x{2714}]`)
	outputArtifact     = regexp.MustCompile(`[^` + allowedChars + `]`)
	anySpace           = regexp.MustCompile(`\s+`)
	spaceBeforePunct   = regexp.MustCompile(`\s+([.,;:!?])`)
	doubledPunct       = regexp.MustCompile(`([.,;:!?])\s*[.,;:!?]`)
)

// Clean normalises raw extracted text. Line breaks are kept because the
// strategies use them as block and option boundaries.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = extractionArtifact.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = horizontalSpace.ReplaceAllString(line, " ")
		line = strings.TrimSpace(pageFooter.ReplaceAllString(line, ""))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// cleanOutput flattens question or option text for storage.
func cleanOutput(text string) string {
	text = anySpace.ReplaceAllString(text, " ")
	text = outputArtifact.ReplaceAllString(text, "")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = doubledPunct.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
