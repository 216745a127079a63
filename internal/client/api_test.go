package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizbank/internal/models"
)

func TestAPIRequests(t *testing.T) {
	var gotAuth, gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/questions", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query().Get("category")
		json.NewEncoder(w).Encode([]models.Question{{ID: "1", Content: "x", Options: []string{"a"}, CorrectAnswer: models.Multiple(0)}})
	})
	mux.HandleFunc("PUT /api/questions/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"message":  "Question updated successfully",
			"question": models.Question{ID: r.PathValue("id"), Content: "new"},
		})
	})
	mux.HandleFunc("DELETE /api/questions/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":"Question not found"}`)
	})
	mux.HandleFunc("POST /api/questions/parse-pdf", func(w http.ResponseWriter, r *http.Request) {
		f, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		json.NewEncoder(w).Encode(map[string]any{
			"questions":      []models.Question{},
			"errors":         []string{header.Filename + ":" + string(data)},
			"totalExtracted": 0,
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api := NewAPI(srv.URL+"/api/", "tok", time.Second)
	ctx := context.Background()

	qs, err := api.Questions(ctx, "Địa lý")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(qs) != 1 || !qs[0].CorrectAnswer.IsMultiple() {
		t.Errorf("Expected one multi-answer question, got %+v", qs)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Expected bearer token, got %q", gotAuth)
	}
	if gotQuery != "Địa lý" {
		t.Errorf("Expected category query, got %q", gotQuery)
	}

	content := "new"
	q, err := api.UpdateQuestion(ctx, "abc", models.QuestionUpdate{Content: &content})
	if err != nil || q.ID != "abc" || q.Content != "new" {
		t.Errorf("Expected updated question, got %+v err=%v", q, err)
	}

	err = api.DeleteQuestion(ctx, "abc")
	if !IsNotFound(err) || !strings.Contains(err.Error(), "Question not found") {
		t.Errorf("Expected 404 with message, got %v", err)
	}

	res, err := api.ParsePDF(ctx, "exam.pdf", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(res.Errors) != 1 || res.Errors[0] != "exam.pdf:%PDF" {
		t.Errorf("Expected the upload to reach the server, got %v", res.Errors)
	}
}

func TestAPIUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewAPI(url, "", time.Second).Statistics(context.Background())
	if err == nil {
		t.Fatal("Expected an error for a closed server")
	}
	if !fallbackAllowed(err) {
		t.Errorf("Expected transport errors to allow the local fallback, got %v", err)
	}
}

func TestAPIBankAndResults(t *testing.T) {
	var bulk []models.Question
	var deleted string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/questions/{id}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Question{ID: r.PathValue("id"), Content: "x", Options: []string{"a"}})
	})
	mux.HandleFunc("POST /api/questions/bulk", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&bulk)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.BulkInsertResult{InsertedCount: len(bulk), InsertedIDs: []string{"n1"}})
	})
	mux.HandleFunc("POST /api/questions/check-duplicates", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Questions []models.DuplicateCandidate `json:"questions"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{
			"duplicates": []models.Duplicate{{Content: body.Questions[1].Content, ExistingID: "old"}},
		})
	})
	mux.HandleFunc("POST /api/practice-results", func(w http.ResponseWriter, r *http.Request) {
		var res models.QuizResult
		json.NewDecoder(r.Body).Decode(&res)
		res.ID = "r1"
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(res)
	})
	mux.HandleFunc("DELETE /api/practice-results/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = r.PathValue("id")
		io.WriteString(w, `{"message":"Practice result deleted successfully"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	api := NewAPI(srv.URL+"/api", "", time.Second)
	ctx := context.Background()

	q, err := api.Question(ctx, "q9")
	if err != nil || q.ID != "q9" {
		t.Errorf("Expected question q9, got %+v err=%v", q, err)
	}

	inserted, err := api.BulkCreate(ctx, []models.Question{{Content: "a"}, {Content: "b"}})
	if err != nil || inserted.InsertedCount != 2 || len(bulk) != 2 {
		t.Errorf("Expected 2 inserted, got %+v err=%v", inserted, err)
	}

	dups, err := api.CheckDuplicates(ctx, []string{"mới", "cũ"})
	if err != nil || len(dups) != 1 || dups[0].Content != "cũ" || dups[0].ExistingID != "old" {
		t.Errorf("Expected one duplicate, got %+v err=%v", dups, err)
	}

	saved, err := api.SavePracticeResult(ctx, models.QuizResult{Mode: models.ModePractice, TotalQuestions: 1})
	if err != nil || saved.ID != "r1" {
		t.Errorf("Expected stored result r1, got %+v err=%v", saved, err)
	}

	if err := api.DeletePracticeResult(ctx, "r1"); err != nil || deleted != "r1" {
		t.Errorf("Expected r1 deleted, got %q err=%v", deleted, err)
	}
}
