package pdfparser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const optionCount = 4

var (
	leadingNumber = regexp.MustCompile(`^\d+[.)]\s*`)
	firstOption   = regexp.MustCompile(`(?:^|\s)[A-D][.)]`)

	// Option marker shapes, tried in order: "A." / "A)", "A ." and "A:" / "A-".
	optionMarkers = []*regexp.Regexp{
		regexp.MustCompile(`(?:^|\s)([A-D])[.)]`),
		regexp.MustCompile(`(?:^|\s)([A-D])\s+[.)]`),
		regexp.MustCompile(`(?:^|\s)([A-D])\s*[:\-]`),
	}
	optionLine   = regexp.MustCompile(`^[A-D](?:[.)]|\s)`)
	optionPrefix = regexp.MustCompile(`^[A-D][.)\s]*`)

	answerLine = regexp.MustCompile(`(?i:đ[aá]p [aá]n|answer|correct|chọn|key)\s*[:\-]?\s*[A-Da-d](?:[^\p{L}\p{N}]|$)`)

	explicitAnswers = []*regexp.Regexp{
		regexp.MustCompile(`(?i:đ[aá]p [aá]n|answer|correct|chọn|key)\s*[:\-]?\s*([A-Da-d])(?:[^\p{L}\p{N}]|$)`),
		regexp.MustCompile(`\*\s*([A-D])\s*\*`),
		regexp.MustCompile(`(?:^|[^\p{L}])([A-D])\s*\((?i:correct)\)`),
		regexp.MustCompile(`(?:^|[^\p{L}])([A-D])\s*[✓✔]`),
		regexp.MustCompile(`(?:^|[^\p{L}])([A-D])\s*\[(?i:correct)\]`),
	}
	emphasisMarks = []string{"**", "*", "___", "CORRECT", "✓", "✔"}
	emphasisStrip = regexp.MustCompile(`\*+|_{3,}|\((?i:correct)\)|\[(?i:correct)\]|CORRECT|[✓✔]`)
)

// candidate is a question as read from one block, before the validation filter.
type candidate struct {
	content string
	options []string
	answer  int
}

// parseBlock reads question text, four options and the answer from one block.
// It returns false when the block does not hold a full question.
func parseBlock(block string) (candidate, bool) {
	block = leadingNumber.ReplaceAllString(strings.TrimSpace(block), "")

	var questionText, optionsText string
	if loc := firstOption.FindStringIndex(block); loc != nil {
		questionText = block[:loc[0]]
		optionsText = block[loc[0]:]
	} else {
		var questionLines, optionLines []string
		for _, line := range strings.Split(block, "\n") {
			line = strings.TrimSpace(line)
			switch {
			case optionLine.MatchString(line):
				optionLines = append(optionLines, line)
			case len(optionLines) == 0 && !answerLine.MatchString(line):
				questionLines = append(questionLines, line)
			}
		}
		questionText = strings.Join(questionLines, " ")
		optionsText = strings.Join(optionLines, "\n")
	}

	questionText = strings.TrimSpace(questionText)
	options := extractOptions(optionsText)
	if questionText == "" || len(options) < optionCount {
		return candidate{}, false
	}

	answer := detectAnswer(block, options)
	for i := range options {
		options[i] = strings.TrimSpace(emphasisStrip.ReplaceAllString(options[i], ""))
	}
	return candidate{content: questionText, options: options, answer: answer}, true
}

// extractOptions returns the texts of options A to D, or fewer when the block
// does not have all four.
func extractOptions(text string) []string {
	for _, marker := range optionMarkers {
		if opts := splitAtMarkers(text, marker); len(opts) == optionCount {
			return opts
		}
	}

	var opts []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !optionLine.MatchString(line) {
			continue
		}
		opts = append(opts, stripAnswerMarker(optionPrefix.ReplaceAllString(line, "")))
		if len(opts) == optionCount {
			break
		}
	}
	return opts
}

// splitAtMarkers finds the markers A, B, C and D in that order and returns
// the text between them.
func splitAtMarkers(text string, marker *regexp.Regexp) []string {
	type hit struct{ start, end int }
	var hits []hit
	want := byte('A')
	for _, m := range marker.FindAllStringSubmatchIndex(text, -1) {
		if text[m[2]] != want {
			continue
		}
		hits = append(hits, hit{start: m[2], end: m[1]})
		want++
		if len(hits) == optionCount {
			break
		}
	}
	if len(hits) < optionCount {
		return nil
	}

	opts := make([]string, optionCount)
	for i, h := range hits {
		end := len(text)
		if i+1 < len(hits) {
			end = hits[i+1].start
		}
		opts[i] = stripAnswerMarker(text[h.end:end])
		if opts[i] == "" {
			return nil
		}
	}
	return opts
}

// stripAnswerMarker cuts a trailing "Đáp án: B" style line off option text.
func stripAnswerMarker(text string) string {
	if loc := answerLine.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	return strings.TrimSpace(text)
}

// detectAnswer tries an explicit key first, then an emphasised option, then a
// noticeably longer option. It falls back to the first option.
func detectAnswer(block string, options []string) int {
	for _, re := range explicitAnswers {
		if m := re.FindStringSubmatch(block); m != nil {
			if idx := int(strings.ToUpper(m[1])[0] - 'A'); idx < len(options) {
				return idx
			}
		}
	}

	for i, opt := range options {
		for _, mark := range emphasisMarks {
			if strings.Contains(opt, mark) {
				return i
			}
		}
	}

	if len(options) == 0 {
		return 0
	}
	total := 0
	for _, opt := range options {
		total += utf8.RuneCountInString(opt)
	}
	avg := float64(total) / float64(len(options))
	for i, opt := range options {
		if float64(utf8.RuneCountInString(opt)) > avg*1.5 {
			return i
		}
	}
	return 0
}
