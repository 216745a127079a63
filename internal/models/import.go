package models

import (
	"fmt"
	"slices"
)

// ImportItem is one row of the JSON export produced by the external question tool.
// Answers are given by option text rather than by index.
type ImportItem struct {
	Question       *string  `json:"question"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correct_answers"`
	Category       string   `json:"category"`
	Difficulty     string   `json:"difficulty"`
}

type ImportReport struct {
	AddedCount int      `json:"addedCount"`
	Errors     []string `json:"errors"`
}

type BulkInsertResult struct {
	InsertedCount int      `json:"insertedCount"`
	InsertedIDs   []string `json:"insertedIds"`
}

type DuplicateCandidate struct {
	Content string `json:"content"`
}

type Duplicate struct {
	Content    string `json:"content"`
	ExistingID string `json:"existingId"`
}

// ToQuestion converts one export row. The second result is the Vietnamese error
// line for the row (1-based) when it cannot be imported.
func (item ImportItem) ToQuestion(row int) (Question, string) {
	if item.Question == nil || item.Options == nil || item.CorrectAnswers == nil {
		return Question{}, fmt.Sprintf("Câu %d không hợp lệ", row)
	}

	var correct []int
	for idx, opt := range item.Options {
		if slices.Contains(item.CorrectAnswers, opt) {
			correct = append(correct, idx)
		}
	}
	if len(correct) == 0 {
		return Question{}, fmt.Sprintf("Câu %d không tìm thấy đáp án đúng", row)
	}

	difficulty := item.Difficulty
	if difficulty == "" {
		difficulty = DifficultyMedium
	}
	q := Question{
		Content:    *item.Question,
		Options:    item.Options,
		Category:   item.Category,
		Difficulty: difficulty,
	}
	if len(correct) == 1 {
		q.CorrectAnswer = Single(correct[0])
	} else {
		q.CorrectAnswer = Multiple(correct...)
	}
	if err := q.Validate(); err != nil {
		return Question{}, fmt.Sprintf("Câu %d không hợp lệ: %s", row, err)
	}
	return q, ""
}
