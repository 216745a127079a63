package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quizbank/internal/event"
	"quizbank/internal/models"
)

type QuestionService struct {
	Repo      QuestionStore
	cache     StatisticsCache
	publisher event.Publisher
	now       func() time.Time
}

func NewQuestionService(repo QuestionStore, cache StatisticsCache, publisher event.Publisher) *QuestionService {
	if cache == nil {
		cache = noCache{}
	}
	return &QuestionService{Repo: repo, cache: cache, publisher: publisher, now: time.Now}
}

func (s *QuestionService) ListQuestions(ctx context.Context, category string) ([]models.Question, error) {
	return s.Repo.FindAll(ctx, category)
}

func (s *QuestionService) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	return s.Repo.FindByID(ctx, id)
}

func (s *QuestionService) CreateQuestion(ctx context.Context, question *models.Question) error {
	if err := question.Validate(); err != nil {
		return &ValidationError{Msg: err.Error()}
	}
	question.Stamp(s.now())
	if err := s.Repo.Create(ctx, question); err != nil {
		return err
	}
	afterWrite(ctx, s.cache, s.publisher, event.QuestionCreated, question)
	return nil
}

// BulkCreate inserts all questions or none: any invalid row rejects the batch.
func (s *QuestionService) BulkCreate(ctx context.Context, questions []models.Question) (*models.BulkInsertResult, error) {
	if len(questions) == 0 {
		return nil, &ValidationError{Msg: "no questions provided"}
	}
	var rows []string
	now := s.now()
	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			rows = append(rows, fmt.Sprintf("Câu %d: %s", i+1, err))
			continue
		}
		questions[i].Stamp(now)
	}
	if len(rows) > 0 {
		return nil, &ValidationError{Msg: "invalid questions", Rows: rows}
	}

	ids, err := s.Repo.CreateMany(ctx, questions)
	if err != nil {
		return nil, err
	}
	afterWrite(ctx, s.cache, s.publisher, event.QuestionBulkCreated, map[string]any{"ids": ids})
	return &models.BulkInsertResult{InsertedCount: len(ids), InsertedIDs: ids}, nil
}

// ImportJSON converts rows of the external export format. Each row is judged on
// its own; bad rows are reported and skipped, the rest are inserted together.
func (s *QuestionService) ImportJSON(ctx context.Context, rows []json.RawMessage) (*models.ImportReport, error) {
	report := &models.ImportReport{Errors: []string{}}
	var added []models.Question
	now := s.now()

	for i, raw := range rows {
		q, msg := convertImportRow(raw, i+1)
		if msg != "" {
			report.Errors = append(report.Errors, msg)
			continue
		}
		q.Stamp(now)
		added = append(added, q)
	}

	if len(added) > 0 {
		if _, err := s.Repo.CreateMany(ctx, added); err != nil {
			return nil, err
		}
		afterWrite(ctx, s.cache, s.publisher, event.QuestionImported, map[string]any{"count": len(added)})
	}
	report.AddedCount = len(added)
	return report, nil
}

func convertImportRow(raw json.RawMessage, row int) (models.Question, string) {
	var item models.ImportItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return models.Question{}, fmt.Sprintf("Câu %d không hợp lệ", row)
	}
	return item.ToQuestion(row)
}

func (s *QuestionService) UpdateQuestion(ctx context.Context, id string, update models.QuestionUpdate) (*models.Question, error) {
	existing, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	merged := existing.Apply(update)
	if err := merged.Validate(); err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}
	merged.UpdatedAt = s.now()
	if err := s.Repo.Update(ctx, &merged); err != nil {
		return nil, err
	}
	afterWrite(ctx, s.cache, s.publisher, event.QuestionUpdated, map[string]any{"id": id})
	return &merged, nil
}

func (s *QuestionService) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	afterWrite(ctx, s.cache, s.publisher, event.QuestionDeleted, map[string]any{"id": id})
	return nil
}

// CheckDuplicates reports candidates whose text already exists verbatim in the bank.
func (s *QuestionService) CheckDuplicates(ctx context.Context, candidates []models.DuplicateCandidate) ([]models.Duplicate, error) {
	duplicates := []models.Duplicate{}
	for _, c := range candidates {
		if strings.TrimSpace(c.Content) == "" {
			continue
		}
		existing, err := s.Repo.FindByContent(ctx, c.Content)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		duplicates = append(duplicates, models.Duplicate{Content: c.Content, ExistingID: existing.ID})
	}
	return duplicates, nil
}
