package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"

	// UncategorizedLabel is used when counting questions without a category.
	UncategorizedLabel = "Chưa phân loại"
)

type Question struct {
	ID            string    `bson:"_id,omitempty" json:"_id,omitempty"`
	Content       string    `bson:"content" json:"content"`
	Options       []string  `bson:"options" json:"options"`
	CorrectAnswer Answer    `bson:"correctAnswer" json:"correctAnswer"`
	Category      string    `bson:"category,omitempty" json:"category,omitempty"`
	Difficulty    string    `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// QuestionUpdate carries the fields a PUT may change. Nil means "leave as is".
type QuestionUpdate struct {
	Content       *string   `json:"content"`
	Options       *[]string `json:"options"`
	CorrectAnswer *Answer   `json:"correctAnswer"`
	Category      *string   `json:"category"`
	Difficulty    *string   `json:"difficulty"`
}

func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Validate enforces the stored-question invariants.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Content) == "" {
		return fmt.Errorf("content is required")
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("options must not be empty")
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("option %d is empty", i)
		}
	}
	if err := q.CorrectAnswer.Validate(len(q.Options)); err != nil {
		return err
	}
	if q.Difficulty != "" && !ValidDifficulty(q.Difficulty) {
		return fmt.Errorf("difficulty must be one of easy, medium, hard")
	}
	return nil
}

// Apply merges an update into a copy of the question.
func (q Question) Apply(u QuestionUpdate) Question {
	if u.Content != nil {
		q.Content = *u.Content
	}
	if u.Options != nil {
		q.Options = append([]string(nil), (*u.Options)...)
	}
	if u.CorrectAnswer != nil {
		q.CorrectAnswer = *u.CorrectAnswer
	}
	if u.Category != nil {
		q.Category = *u.Category
	}
	if u.Difficulty != nil {
		q.Difficulty = *u.Difficulty
	}
	return q
}

// IsCorrect reports whether the given user answer is right for this question.
func (q *Question) IsCorrect(user Answer) bool {
	return q.CorrectAnswer.Matches(user)
}

// Stamp sets creation and update times for a new document.
func (q *Question) Stamp(now time.Time) {
	q.CreatedAt = now
	q.UpdatedAt = now
}
