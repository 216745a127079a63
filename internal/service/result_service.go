package service

import (
	"context"
	"math"
	"time"

	"quizbank/internal/event"
	"quizbank/internal/models"
)

const (
	// StatisticsWindow is how many of the newest results feed the average score.
	StatisticsWindow = 10
	recentPreview    = 5
)

type ResultService struct {
	Repo      ResultStore
	Questions QuestionStore
	cache     StatisticsCache
	publisher event.Publisher
	now       func() time.Time
}

func NewResultService(repo ResultStore, questions QuestionStore, cache StatisticsCache, publisher event.Publisher) *ResultService {
	if cache == nil {
		cache = noCache{}
	}
	return &ResultService{Repo: repo, Questions: questions, cache: cache, publisher: publisher, now: time.Now}
}

func (s *ResultService) ListResults(ctx context.Context) ([]models.QuizResult, error) {
	return s.Repo.FindRecent(ctx, 0)
}

func (s *ResultService) CreateResult(ctx context.Context, result *models.QuizResult) error {
	if result.Mode == "" {
		result.Mode = models.ModePractice
	}
	if result.TotalQuestions == 0 {
		result.TotalQuestions = len(result.Questions)
	}
	if err := result.Validate(); err != nil {
		return &ValidationError{Msg: err.Error()}
	}
	now := s.now()
	result.Timestamp = now
	if result.CompletedAt.IsZero() {
		result.CompletedAt = now
	}
	if err := s.Repo.Create(ctx, result); err != nil {
		return err
	}
	afterWrite(ctx, s.cache, s.publisher, event.PracticeResultCreated, map[string]any{
		"id":        result.ID,
		"quizSetId": result.QuizSetID,
		"score":     result.Score,
	})
	return nil
}

func (s *ResultService) DeleteResult(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	afterWrite(ctx, s.cache, s.publisher, event.PracticeResultDeleted, map[string]any{"id": id})
	return nil
}

// Statistics summarises the bank and the latest practice results.
func (s *ResultService) Statistics(ctx context.Context) (*models.Statistics, error) {
	if cached, ok := s.cache.GetStatistics(ctx); ok {
		return cached, nil
	}

	questions, err := s.Questions.FindAll(ctx, "")
	if err != nil {
		return nil, err
	}
	resultCount, err := s.Repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.Repo.FindRecent(ctx, StatisticsWindow)
	if err != nil {
		return nil, err
	}

	stats := &models.Statistics{
		TotalQuestions: len(questions),
		TotalResults:   int(resultCount),
		AverageScore:   AverageScore(recent),
		RecentResults:  recent[:min(recentPreview, len(recent))],
	}
	stats.CategoriesCount, stats.DifficultyCount = CountQuestions(questions)

	s.cache.SaveStatistics(ctx, stats)
	return stats, nil
}

// AverageScore is the mean score rounded to two decimals, 0 for no results.
func AverageScore(results []models.QuizResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	return math.Round(sum/float64(len(results))*100) / 100
}

// CountQuestions buckets the bank by category and difficulty.
func CountQuestions(questions []models.Question) (map[string]int, map[string]int) {
	categories := map[string]int{}
	difficulties := map[string]int{}
	for _, q := range questions {
		category := q.Category
		if category == "" {
			category = models.UncategorizedLabel
		}
		difficulty := q.Difficulty
		if difficulty == "" {
			difficulty = models.DifficultyMedium
		}
		categories[category]++
		difficulties[difficulty]++
	}
	return categories, difficulties
}
