package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"quizbank/internal/event"
	"quizbank/internal/models"
)

func sampleQuestion(content string) models.Question {
	return models.Question{
		Content:       content,
		Options:       []string{"A1", "B1", "C1", "D1"},
		CorrectAnswer: models.Single(2),
		Category:      "Địa lý",
	}
}

func TestCreateQuestion(t *testing.T) {
	repo := newMemQuestions()
	pub := &recordingPublisher{}
	svc := NewQuestionService(repo, nil, pub)

	q := sampleQuestion("Sông dài nhất Việt Nam?")
	if err := svc.CreateQuestion(context.Background(), &q); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if q.ID == "" {
		t.Error("Expected created question to have an id")
	}
	if q.CreatedAt.IsZero() || !q.CreatedAt.Equal(q.UpdatedAt) {
		t.Errorf("Expected matching timestamps, got %v / %v", q.CreatedAt, q.UpdatedAt)
	}
	if idx := q.CorrectAnswer.Index(); idx < 0 || idx >= len(q.Options) {
		t.Errorf("Stored correct answer %d does not index into options", idx)
	}
	if len(pub.events) != 1 || pub.events[0] != event.QuestionCreated {
		t.Errorf("Expected one %s event, got %v", event.QuestionCreated, pub.events)
	}
}

func TestCreateQuestionRejectsOutOfRangeAnswer(t *testing.T) {
	repo := newMemQuestions()
	svc := NewQuestionService(repo, nil, nil)

	q := sampleQuestion("Câu hỏi")
	q.CorrectAnswer = models.Single(7)
	err := svc.CreateQuestion(context.Background(), &q)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}
	if n, _ := repo.Count(context.Background()); n != 0 {
		t.Errorf("Expected nothing stored, got %d", n)
	}
}

func TestBulkCreateIsAllOrNothing(t *testing.T) {
	repo := newMemQuestions()
	svc := NewQuestionService(repo, nil, nil)

	bad := sampleQuestion("")
	_, err := svc.BulkCreate(context.Background(), []models.Question{sampleQuestion("ok"), bad})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if len(verr.Rows) != 1 {
		t.Errorf("Expected one bad row, got %v", verr.Rows)
	}
	if n, _ := repo.Count(context.Background()); n != 0 {
		t.Errorf("Expected no inserts, got %d", n)
	}

	res, err := svc.BulkCreate(context.Background(), []models.Question{sampleQuestion("a"), sampleQuestion("b")})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if res.InsertedCount != 2 || len(res.InsertedIDs) != 2 {
		t.Errorf("Expected 2 inserted, got %+v", res)
	}
}

func TestImportJSON(t *testing.T) {
	repo := newMemQuestions()
	cache := &memCache{}
	svc := NewQuestionService(repo, cache, nil)

	body := `[
		{"question": "Thủ đô?", "options": ["Huế", "Hà Nội"], "correct_answers": ["Hà Nội"], "category": "Địa lý"},
		{"question": "Sai?", "options": ["x", "y"], "correct_answers": ["z"]},
		{"options": ["x"], "correct_answers": ["x"]},
		{"question": "Chọn số chẵn", "options": ["1", "2", "4"], "correct_answers": ["2", "4"], "difficulty": "easy"}
	]`
	var rows []json.RawMessage
	if err := json.Unmarshal([]byte(body), &rows); err != nil {
		t.Fatal(err)
	}

	report, err := svc.ImportJSON(context.Background(), rows)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if report.AddedCount != 2 {
		t.Errorf("Expected 2 added, got %d", report.AddedCount)
	}
	wantErrors := []string{"Câu 2 không tìm thấy đáp án đúng", "Câu 3 không hợp lệ"}
	if len(report.Errors) != len(wantErrors) {
		t.Fatalf("Expected errors %v, got %v", wantErrors, report.Errors)
	}
	for i, want := range wantErrors {
		if report.Errors[i] != want {
			t.Errorf("Error %d: expected %q, got %q", i, want, report.Errors[i])
		}
	}

	stored, _ := repo.FindAll(context.Background(), "")
	if len(stored) != 2 {
		t.Fatalf("Expected 2 stored questions, got %d", len(stored))
	}
	first, second := stored[0], stored[1]
	if first.CorrectAnswer.Index() != 1 || first.Difficulty != models.DifficultyMedium {
		t.Errorf("Unexpected first import: %+v", first)
	}
	if !second.CorrectAnswer.Equal(models.Multiple(1, 2)) || second.Difficulty != models.DifficultyEasy {
		t.Errorf("Unexpected second import: %+v", second)
	}
	if cache.invalidated != 1 {
		t.Errorf("Expected statistics invalidated once, got %d", cache.invalidated)
	}
}

func TestUpdateQuestion(t *testing.T) {
	repo := newMemQuestions(sampleQuestion("cũ"))
	svc := NewQuestionService(repo, nil, nil)
	all, _ := repo.FindAll(context.Background(), "")
	id := all[0].ID

	content := "mới"
	updated, err := svc.UpdateQuestion(context.Background(), id, models.QuestionUpdate{Content: &content})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if updated.Content != "mới" || updated.Category != "Địa lý" {
		t.Errorf("Unexpected updated question: %+v", updated)
	}

	options := []string{"only"}
	if _, err := svc.UpdateQuestion(context.Background(), id, models.QuestionUpdate{Options: &options}); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected shrinking options below the answer index to fail, got %v", err)
	}

	if _, err := svc.UpdateQuestion(context.Background(), "missing", models.QuestionUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMissingQuestion(t *testing.T) {
	repo := newMemQuestions(sampleQuestion("giữ lại"))
	pub := &recordingPublisher{}
	svc := NewQuestionService(repo, nil, pub)

	err := svc.DeleteQuestion(context.Background(), "does-not-exist")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if n, _ := repo.Count(context.Background()); n != 1 {
		t.Errorf("Expected collection unchanged, got %d documents", n)
	}
	if len(pub.events) != 0 {
		t.Errorf("Expected no events on failed delete, got %v", pub.events)
	}
}

func TestCheckDuplicates(t *testing.T) {
	repo := newMemQuestions(sampleQuestion("Đã có"))
	svc := NewQuestionService(repo, nil, nil)

	dups, err := svc.CheckDuplicates(context.Background(), []models.DuplicateCandidate{
		{Content: "Đã có"}, {Content: "Chưa có"}, {Content: "  "},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(dups) != 1 || dups[0].Content != "Đã có" || dups[0].ExistingID == "" {
		t.Errorf("Unexpected duplicates: %+v", dups)
	}
}
