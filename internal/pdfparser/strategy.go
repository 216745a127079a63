package pdfparser

import (
	"fmt"
	"log"
	"regexp"
	"strings"
)

// strategy splits cleaned text into question candidates in one layout.
type strategy struct {
	name  string
	parse func(text string) []candidate
}

// strategies are ranked from strictest to loosest. When two produce the same
// number of candidates the earlier one wins.
var strategies = []strategy{
	{name: "numbered", parse: parseNumbered},
	{name: "keyword", parse: parseKeyword},
	{name: "vietnamese", parse: parseVietnamese},
	{name: "lines", parse: parseLines},
}

var (
	numberedStart   = regexp.MustCompile(`(?m)^\d+[.)]\s*`)
	keywordStart    = regexp.MustCompile(`(?i:question|câu hỏi)\s*:\s*`)
	vietnameseStart = regexp.MustCompile(`(?mi)^(?:câu|question)\s*\d+\s*[:.]?\s*`)

	questionStartLine = []*regexp.Regexp{
		regexp.MustCompile(`^\d+[.)]\s*\S`),
		regexp.MustCompile(`(?i)^(?:question|câu)\s*\d*\s*[:.]?\s*\S`),
	}
	questionPrefix = regexp.MustCompile(`(?i)^(?:\d+[.)]|(?:question|câu hỏi|câu)\s*\d*\s*[:.]?)\s*`)
)

const minBlockLength = 10

// best runs every strategy and keeps the one with the most candidates.
func best(text string) (string, []candidate) {
	var (
		winner string
		found  []candidate
	)
	for _, s := range strategies {
		got, err := runStrategy(s, text)
		if err != nil {
			log.Printf("Parsing strategy %s failed: %v", s.name, err)
			continue
		}
		if len(got) > len(found) {
			winner, found = s.name, got
		}
	}
	return winner, found
}

func runStrategy(s strategy, text string) (got []candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.parse(text), nil
}

// splitBlocks cuts text at every start match; each block runs to the next start.
func splitBlocks(text string, start *regexp.Regexp) []string {
	locs := start.FindAllStringIndex(text, -1)
	blocks := make([]string, 0, len(locs))
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, strings.TrimSpace(text[loc[1]:end]))
	}
	return blocks
}

func parseBlocks(text string, start *regexp.Regexp) []candidate {
	var out []candidate
	for _, block := range splitBlocks(text, start) {
		if len([]rune(block)) < minBlockLength {
			continue
		}
		if c, ok := parseBlock(block); ok {
			out = append(out, c)
		}
	}
	return out
}

func parseNumbered(text string) []candidate   { return parseBlocks(text, numberedStart) }
func parseKeyword(text string) []candidate    { return parseBlocks(text, keywordStart) }
func parseVietnamese(text string) []candidate { return parseBlocks(text, vietnameseStart) }

// parseLines walks the text line by line, starting a question at every
// numbered or "Câu" line and collecting up to four option lines after it.
func parseLines(text string) []candidate {
	var (
		out     []candidate
		content string
		options []string
		raw     []string
	)
	flush := func() {
		if content == "" || len(options) < optionCount {
			return
		}
		block := strings.Join(raw, "\n")
		out = append(out, candidate{
			content: content,
			options: options,
			answer:  detectAnswer(block, options),
		})
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case isQuestionStart(line):
			flush()
			content = questionPrefix.ReplaceAllString(line, "")
			options = nil
			raw = []string{line}
		case optionLine.MatchString(line):
			raw = append(raw, line)
			if opt := stripAnswerMarker(optionPrefix.ReplaceAllString(line, "")); opt != "" && len(options) < optionCount {
				options = append(options, opt)
			}
		case answerLine.MatchString(line):
			raw = append(raw, line)
		case content != "":
			content += " " + line
			raw = append(raw, line)
		}
	}
	flush()

	for i := range out {
		for j := range out[i].options {
			out[i].options[j] = strings.TrimSpace(emphasisStrip.ReplaceAllString(out[i].options[j], ""))
		}
	}
	return out
}

func isQuestionStart(line string) bool {
	for _, re := range questionStartLine {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
