package pdfparser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"quizbank/internal/models"
)

const (
	minContentLength  = 5
	maxContentLength  = 1000
	maxOptionLength   = 500
	maxCategoryLength = 100
)

// InvalidQuestion pairs a rejected question with every reason it failed.
type InvalidQuestion struct {
	Question models.Question `json:"question"`
	Errors   []string        `json:"errors"`
}

// ValidateQuestions checks parsed questions before they are offered for import.
// The messages are shown to the user as is.
func ValidateQuestions(questions []models.Question) (valid []models.Question, invalid []InvalidQuestion) {
	for _, q := range questions {
		var errs []string

		content := strings.TrimSpace(q.Content)
		if utf8.RuneCountInString(content) < minContentLength {
			errs = append(errs, fmt.Sprintf("Nội dung câu hỏi quá ngắn (tối thiểu %d ký tự)", minContentLength))
		}
		if utf8.RuneCountInString(q.Content) > maxContentLength {
			errs = append(errs, fmt.Sprintf("Nội dung câu hỏi quá dài (tối đa %d ký tự)", maxContentLength))
		}

		if len(q.Options) != optionCount {
			errs = append(errs, "Phải có đúng 4 phương án trả lời")
		} else {
			seen := map[string]bool{}
			duplicate := false
			for i, opt := range q.Options {
				letter := string(rune('A' + i))
				if strings.TrimSpace(opt) == "" {
					errs = append(errs, fmt.Sprintf("Phương án %s không được để trống", letter))
				}
				if utf8.RuneCountInString(opt) > maxOptionLength {
					errs = append(errs, fmt.Sprintf("Phương án %s quá dài (tối đa %d ký tự)", letter, maxOptionLength))
				}
				key := strings.ToLower(strings.TrimSpace(opt))
				if seen[key] {
					duplicate = true
				}
				seen[key] = true
			}
			if duplicate {
				errs = append(errs, "Các phương án trả lời không được trùng lặp")
			}
		}

		if idx := q.CorrectAnswer.Index(); idx < 0 || idx >= optionCount {
			errs = append(errs, "Đáp án đúng phải từ 0-3 (A-D)")
		}

		if utf8.RuneCountInString(q.Category) > maxCategoryLength {
			errs = append(errs, fmt.Sprintf("Tên danh mục quá dài (tối đa %d ký tự)", maxCategoryLength))
		}

		if len(errs) == 0 {
			valid = append(valid, q)
		} else {
			invalid = append(invalid, InvalidQuestion{Question: q, Errors: errs})
		}
	}
	return valid, invalid
}

// keepWellFormed drops candidates that cannot become a four-option question
// and flattens the text of the rest.
func keepWellFormed(found []candidate) []models.Question {
	questions := []models.Question{}
	for _, c := range found {
		if utf8.RuneCountInString(strings.TrimSpace(c.content)) < minContentLength {
			continue
		}
		if len(c.options) != optionCount || c.answer < 0 || c.answer >= optionCount {
			continue
		}
		options := make([]string, optionCount)
		ok := true
		for i, opt := range c.options {
			options[i] = cleanOutput(opt)
			if options[i] == "" {
				ok = false
			}
		}
		if !ok {
			continue
		}
		questions = append(questions, models.Question{
			Content:       cleanOutput(c.content),
			Options:       options,
			CorrectAnswer: models.Single(c.answer),
			Category:      DetectCategory(c.content),
			Difficulty:    DetectDifficulty(c.content, c.options),
		})
	}
	return questions
}
