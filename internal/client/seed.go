package client

import (
	"time"

	"quizbank/internal/models"
)

// SeedQuestions is the starter bank used when neither the API nor the local copy has one.
func SeedQuestions() []models.Question {
	now := time.Now()
	return []models.Question{
		{
			ID:            "1",
			Content:       "Thủ đô của Việt Nam là gì?",
			Options:       []string{"Hồ Chí Minh", "Hà Nội", "Đà Nẵng", "Huế"},
			CorrectAnswer: models.Single(1),
			Category:      "Địa lý",
			Difficulty:    models.DifficultyEasy,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:            "2",
			Content:       `Ai là tác giả của tác phẩm "Truyện Kiều"?`,
			Options:       []string{"Nguyễn Bỉnh Khiêm", "Nguyễn Du", "Hồ Xuân Hương", "Nguyễn Đình Chiểu"},
			CorrectAnswer: models.Single(1),
			Category:      "Văn học",
			Difficulty:    models.DifficultyMedium,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}
