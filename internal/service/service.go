package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"quizbank/internal/event"
	"quizbank/internal/models"
	"quizbank/internal/repository"
)

var (
	ErrNotFound  = repository.ErrNotFound
	ErrInvalidID = repository.ErrInvalidID

	ErrValidation = errors.New("validation failed")
)

// ValidationError is returned when the request body breaks a model invariant.
// Rows holds one message per offending item for batch operations.
type ValidationError struct {
	Msg  string
	Rows []string
}

func (e *ValidationError) Error() string {
	if len(e.Rows) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, strings.Join(e.Rows, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type QuestionStore interface {
	FindAll(ctx context.Context, category string) ([]models.Question, error)
	FindByID(ctx context.Context, id string) (*models.Question, error)
	FindByContent(ctx context.Context, content string) (*models.Question, error)
	Create(ctx context.Context, question *models.Question) error
	CreateMany(ctx context.Context, questions []models.Question) ([]string, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type ResultStore interface {
	FindRecent(ctx context.Context, limit int64) ([]models.QuizResult, error)
	Create(ctx context.Context, result *models.QuizResult) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

type StatisticsCache interface {
	GetStatistics(ctx context.Context) (*models.Statistics, bool)
	SaveStatistics(ctx context.Context, stats *models.Statistics)
	InvalidateStatistics(ctx context.Context)
}

type noCache struct{}

func (noCache) GetStatistics(context.Context) (*models.Statistics, bool) { return nil, false }
func (noCache) SaveStatistics(context.Context, *models.Statistics)      {}
func (noCache) InvalidateStatistics(context.Context)                    {}

// afterWrite drops cached statistics and emits the domain event. Neither may fail the request.
func afterWrite(ctx context.Context, cache StatisticsCache, publisher event.Publisher, eventType string, payload any) {
	cache.InvalidateStatistics(ctx)
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, eventType, payload); err != nil {
		log.Printf("Failed to publish %s: %v", eventType, err)
	}
}
