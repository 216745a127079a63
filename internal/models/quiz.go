package models

import (
	"fmt"
	"time"
)

const (
	ModeStudy    = "study"
	ModePractice = "practice"

	WrongAnswersSetID   = "wrong-answers-set"
	WrongAnswersSetName = "Câu sai cần ôn lại"

	// PracticeSetID is the set id recorded for practice attempts, which are not tied to a study set.
	PracticeSetID = "practice"
)

type QuizSet struct {
	ID        string     `json:"_id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// ExamConfig describes a practice test request. It is never stored.
type ExamConfig struct {
	NumberOfQuestions int    `json:"numberOfQuestions"`
	TimeLimit         int    `json:"timeLimit"` // minutes, 0 for untimed
	Randomize         bool   `json:"randomize"`
	Category          string `json:"category,omitempty"`
}

func (c ExamConfig) Duration() time.Duration {
	return time.Duration(c.TimeLimit) * time.Minute
}

type QuizResult struct {
	ID             string     `bson:"_id,omitempty" json:"_id,omitempty"`
	QuizSetID      string     `bson:"quizSetId" json:"quizSetId"`
	Questions      []Question `bson:"questions" json:"questions"`
	UserAnswers    []Answer   `bson:"userAnswers" json:"userAnswers"`
	Score          float64    `bson:"score" json:"score"`
	TotalQuestions int        `bson:"totalQuestions" json:"totalQuestions"`
	TimeSpent      int        `bson:"timeSpent" json:"timeSpent"` // seconds
	CompletedAt    time.Time  `bson:"completedAt" json:"completedAt"`
	Mode           string     `bson:"mode" json:"mode"`
	Timestamp      time.Time  `bson:"timestamp" json:"timestamp"`
}

func (r *QuizResult) Validate() error {
	if len(r.UserAnswers) != len(r.Questions) {
		return fmt.Errorf("userAnswers has %d entries, questions has %d", len(r.UserAnswers), len(r.Questions))
	}
	if r.Mode != ModeStudy && r.Mode != ModePractice {
		return fmt.Errorf("mode must be study or practice")
	}
	if r.Score < 0 || r.Score > 1 {
		return fmt.Errorf("score must be a ratio between 0 and 1")
	}
	return nil
}

// Tally counts how the stored answers fare against the snapshotted questions.
type Tally struct {
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Unanswered int `json:"unanswered"`
}

func (r *QuizResult) Tally() Tally {
	var t Tally
	for i := range r.Questions {
		var ans Answer
		if i < len(r.UserAnswers) {
			ans = r.UserAnswers[i]
		}
		switch {
		case !ans.IsAnswered():
			t.Unanswered++
		case r.Questions[i].IsCorrect(ans):
			t.Correct++
		default:
			t.Incorrect++
		}
	}
	return t
}

// IncorrectQuestions returns the questions that were answered but answered wrong.
func (r *QuizResult) IncorrectQuestions() []Question {
	var out []Question
	for i, q := range r.Questions {
		if i < len(r.UserAnswers) && r.UserAnswers[i].IsAnswered() && !q.IsCorrect(r.UserAnswers[i]) {
			out = append(out, q)
		}
	}
	return out
}

type Statistics struct {
	TotalQuestions  int            `json:"totalQuestions"`
	TotalResults    int            `json:"totalResults"`
	AverageScore    float64        `json:"averageScore"`
	RecentResults   []QuizResult   `json:"recentResults"`
	CategoriesCount map[string]int `json:"categoriesCount"`
	DifficultyCount map[string]int `json:"difficultyCount"`
}
