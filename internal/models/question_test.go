package models

import (
	"testing"
)

func TestQuestionValidate(t *testing.T) {
	base := Question{
		Content:       "Thủ đô của Việt Nam là gì?",
		Options:       []string{"Hồ Chí Minh", "Hà Nội", "Đà Nẵng", "Huế"},
		CorrectAnswer: Single(1),
	}

	testCases := []struct {
		name    string
		mutate  func(q *Question)
		wantErr bool
	}{
		{"valid single", func(q *Question) {}, false},
		{"valid multiple", func(q *Question) { q.CorrectAnswer = Multiple(0, 3) }, false},
		{"blank content", func(q *Question) { q.Content = "   " }, true},
		{"no options", func(q *Question) { q.Options = nil }, true},
		{"empty option", func(q *Question) { q.Options[2] = "" }, true},
		{"answer out of range", func(q *Question) { q.CorrectAnswer = Single(4) }, true},
		{"missing answer", func(q *Question) { q.CorrectAnswer = Unanswered() }, true},
		{"bad difficulty", func(q *Question) { q.Difficulty = "extreme" }, true},
		{"good difficulty", func(q *Question) { q.Difficulty = DifficultyHard }, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q := base
			q.Options = append([]string(nil), base.Options...)
			tc.mutate(&q)
			err := q.Validate()
			if tc.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestQuestionApply(t *testing.T) {
	q := Question{
		Content:       "old",
		Options:       []string{"a", "b"},
		CorrectAnswer: Single(0),
		Category:      "Địa lý",
	}
	content := "new"
	answer := Single(1)

	updated := q.Apply(QuestionUpdate{Content: &content, CorrectAnswer: &answer})

	if updated.Content != "new" || updated.CorrectAnswer.Index() != 1 {
		t.Errorf("Update not applied: %+v", updated)
	}
	if updated.Category != "Địa lý" {
		t.Errorf("Expected untouched category to survive, got %q", updated.Category)
	}
	if q.Content != "old" {
		t.Error("Apply must not modify the original question")
	}
}

func TestQuizResultTally(t *testing.T) {
	questions := []Question{
		{Options: []string{"a", "b"}, CorrectAnswer: Single(0)},
		{Options: []string{"a", "b"}, CorrectAnswer: Single(1)},
		{Options: []string{"a", "b", "c"}, CorrectAnswer: Multiple(0, 2)},
		{Options: []string{"a", "b"}, CorrectAnswer: Single(1)},
	}
	result := QuizResult{
		Questions:   questions,
		UserAnswers: []Answer{Single(0), Single(0), Multiple(2, 0), Unanswered()},
		Mode:        ModeStudy,
	}

	tally := result.Tally()
	if tally.Correct != 2 || tally.Incorrect != 1 || tally.Unanswered != 1 {
		t.Errorf("Unexpected tally: %+v", tally)
	}

	wrong := result.IncorrectQuestions()
	if len(wrong) != 1 || !wrong[0].CorrectAnswer.Equal(Single(1)) {
		t.Errorf("Expected only the second question as incorrect, got %+v", wrong)
	}
}

func TestQuizResultValidate(t *testing.T) {
	r := QuizResult{
		Questions:   []Question{{}, {}},
		UserAnswers: []Answer{Single(0)},
		Mode:        ModePractice,
	}
	if err := r.Validate(); err == nil {
		t.Error("Expected mismatched answer count to be rejected")
	}

	r.UserAnswers = append(r.UserAnswers, Unanswered())
	if err := r.Validate(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	r.Mode = "exam"
	if err := r.Validate(); err == nil {
		t.Error("Expected unknown mode to be rejected")
	}
}
